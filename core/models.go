package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

type ID uint64

func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DocumentID derives a document's ID from its category and raw layout bytes,
// so re-ingesting the same file always lands on the same record.
func DocumentID(category Category, layout []byte) ID {
	return IDFromContent(string(category) + "\x00" + string(layout))
}

// Category is the document collection a file belongs to.
type Category string

const (
	CategoryPharma Category = "pharma"
	CategoryHerbal Category = "herbal"
)

// Categories lists every known category in processing order.
func Categories() []Category {
	return []Category{CategoryPharma, CategoryHerbal}
}

// ParseCategory normalizes s and checks it against the known categories.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories() {
		if c == known {
			return c, nil
		}
	}
	return "", ErrInvalidCategory
}

// DirName is the folder name used for the category on disk ("Pharma", "Herbal").
func (c Category) DirName() string {
	s := string(c)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

type Document struct {
	Id         ID
	Name       string            // Source file name without extension
	Category   Category
	Layout     []byte            // Raw layout JSON as received from the OCR service
	Annotated  string            // Textual form of the annotated line stream
	Blocks     []ContentBlock    // Classified content blocks
	Stats      DocumentStats     // Counters gathered while transforming
	Metadata   map[string]string // Extracted metadata (product name, usage, ...)
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// DocumentStats are the diagnostic counters kept for a document.
type DocumentStats struct {
	Pages         int
	LayoutBlocks  int
	UnknownBlocks int
	TextLength    int
	Lines         int
	Headings      int
	Paragraphs    int
	BulletItems   int
	Tables        int
}

// Empty reports whether no text was extracted.
func (s DocumentStats) Empty() bool {
	return s.TextLength == 0
}

type Chunk struct {
	DocumentId ID
	Index      int
	Heading    string    // Heading of the section the chunk was cut from, if any
	Text       string
	Vector     []float32 // Embedding vector (populated by the embedder)
}

type ChunkResult struct {
	Chunk *Chunk
	Score float32
}

type Checkpoint struct {
	ProcessorType string
	LastID        ID
	UpdatedAt     time.Time
}
