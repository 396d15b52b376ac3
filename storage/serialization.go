// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/relayout/core"
)

// Records are stored as a flat sequence of MUS-encoded fields in
// declaration order. Slices and maps are prefixed with their length.
// Timestamps are Unix microseconds, with 0 reserved for the zero time.

// encoder appends MUS-encoded fields to a buffer.
type encoder struct {
	buf []byte
}

func (e *encoder) putString(v string) {
	b := make([]byte, ord.String.Size(v))
	ord.String.Marshal(v, b)
	e.buf = append(e.buf, b...)
}

func (e *encoder) putInt(v int) {
	b := make([]byte, varint.Int.Size(v))
	varint.Int.Marshal(v, b)
	e.buf = append(e.buf, b...)
}

func (e *encoder) putUint64(v uint64) {
	b := make([]byte, varint.Uint64.Size(v))
	varint.Uint64.Marshal(v, b)
	e.buf = append(e.buf, b...)
}

func (e *encoder) putFloat32(v float32) {
	bits := math.Float32bits(v)
	b := make([]byte, varint.Uint32.Size(bits))
	varint.Uint32.Marshal(bits, b)
	e.buf = append(e.buf, b...)
}

func (e *encoder) putTime(t time.Time) {
	var v int64
	if !t.IsZero() {
		v = t.UnixMicro()
	}
	b := make([]byte, varint.Int64.Size(v))
	varint.Int64.Marshal(v, b)
	e.buf = append(e.buf, b...)
}

// decoder reads fields written by encoder. The first error is sticky and
// every later read returns a zero value.
type decoder struct {
	data []byte
	err  error
}

func (d *decoder) advance(n int, err error) bool {
	if d.err != nil {
		return false
	}
	if err != nil {
		d.err = fmt.Errorf("%w: %w", ErrSerializationFailed, err)
		return false
	}
	d.data = d.data[n:]
	return true
}

func (d *decoder) readString() string {
	if d.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(d.data)
	if !d.advance(n, err) {
		return ""
	}
	return v
}

func (d *decoder) readInt() int {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(d.data)
	if !d.advance(n, err) {
		return 0
	}
	return v
}

// readLength reads a collection length and rejects values that cannot fit in
// the remaining input.
func (d *decoder) readLength() int {
	n := d.readInt()
	if d.err == nil && (n < 0 || n > len(d.data)) {
		d.err = fmt.Errorf("%w: length %d exceeds %d remaining bytes", ErrTruncatedData, n, len(d.data))
		return 0
	}
	return n
}

func (d *decoder) readUint64() uint64 {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(d.data)
	if !d.advance(n, err) {
		return 0
	}
	return v
}

func (d *decoder) readFloat32() float32 {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Uint32.Unmarshal(d.data)
	if !d.advance(n, err) {
		return 0
	}
	return math.Float32frombits(v)
}

func (d *decoder) readTime() time.Time {
	if d.err != nil {
		return time.Time{}
	}
	v, n, err := varint.Int64.Unmarshal(d.data)
	if !d.advance(n, err) || v == 0 {
		return time.Time{}
	}
	return time.UnixMicro(v).UTC()
}

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	e := &encoder{}
	e.putUint64(uint64(id))
	return e.buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	d := &decoder{data: data}
	id := core.ID(d.readUint64())
	return id, d.err
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	e := &encoder{}
	e.putUint64(uint64(doc.Id))
	e.putString(doc.Name)
	e.putString(string(doc.Category))
	e.putString(string(doc.Layout))
	e.putString(doc.Annotated)

	encodeBlocks(e, doc.Blocks)

	s := doc.Stats
	for _, v := range []int{s.Pages, s.LayoutBlocks, s.UnknownBlocks, s.TextLength, s.Lines,
		s.Headings, s.Paragraphs, s.BulletItems, s.Tables} {
		e.putInt(v)
	}

	keys := make([]string, 0, len(doc.Metadata))
	for k := range doc.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	e.putInt(len(keys))
	for _, k := range keys {
		e.putString(k)
		e.putString(doc.Metadata[k])
	}

	e.putTime(doc.InsertedAt)
	e.putTime(doc.UpdatedAt)
	return e.buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	d := &decoder{data: data}
	doc := &core.Document{
		Id:        core.ID(d.readUint64()),
		Name:      d.readString(),
		Category:  core.Category(d.readString()),
		Layout:    []byte(d.readString()),
		Annotated: d.readString(),
	}
	if len(doc.Layout) == 0 {
		doc.Layout = nil
	}

	doc.Blocks = decodeBlocks(d)

	doc.Stats = core.DocumentStats{
		Pages:         d.readInt(),
		LayoutBlocks:  d.readInt(),
		UnknownBlocks: d.readInt(),
		TextLength:    d.readInt(),
		Lines:         d.readInt(),
		Headings:      d.readInt(),
		Paragraphs:    d.readInt(),
		BulletItems:   d.readInt(),
		Tables:        d.readInt(),
	}

	if n := d.readLength(); n > 0 {
		doc.Metadata = make(map[string]string, n)
		for i := 0; i < n && d.err == nil; i++ {
			k := d.readString()
			doc.Metadata[k] = d.readString()
		}
	}

	doc.InsertedAt = d.readTime()
	doc.UpdatedAt = d.readTime()

	if d.err != nil {
		return nil, d.err
	}
	return doc, nil
}

func encodeBlocks(e *encoder, blocks []core.ContentBlock) {
	e.putInt(len(blocks))
	for _, b := range blocks {
		e.putInt(int(b.Kind))
		e.putString(b.Text)
		e.putInt(len(b.Rows))
		for _, row := range b.Rows {
			e.putInt(len(row))
			for _, cell := range row {
				e.putString(cell)
			}
		}
	}
}

func decodeBlocks(d *decoder) []core.ContentBlock {
	n := d.readLength()
	if n == 0 {
		return nil
	}
	blocks := make([]core.ContentBlock, 0, n)
	for i := 0; i < n && d.err == nil; i++ {
		b := core.ContentBlock{Kind: core.BlockKind(d.readInt()), Text: d.readString()}
		if rows := d.readLength(); rows > 0 {
			b.Rows = make([][]string, 0, rows)
			for r := 0; r < rows && d.err == nil; r++ {
				cells := d.readLength()
				row := make([]string, 0, cells)
				for c := 0; c < cells && d.err == nil; c++ {
					row = append(row, d.readString())
				}
				b.Rows = append(b.Rows, row)
			}
		}
		blocks = append(blocks, b)
	}
	return blocks
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) []byte {
	e := &encoder{}
	e.putUint64(uint64(chunk.DocumentId))
	e.putInt(chunk.Index)
	e.putString(chunk.Heading)
	e.putString(chunk.Text)
	e.putInt(len(chunk.Vector))
	for _, f := range chunk.Vector {
		e.putFloat32(f)
	}
	return e.buf
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	d := &decoder{data: data}
	chunk := &core.Chunk{
		DocumentId: core.ID(d.readUint64()),
		Index:      d.readInt(),
		Heading:    d.readString(),
		Text:       d.readString(),
	}
	if n := d.readLength(); n > 0 {
		chunk.Vector = make([]float32, 0, n)
		for i := 0; i < n && d.err == nil; i++ {
			chunk.Vector = append(chunk.Vector, d.readFloat32())
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	return chunk, nil
}

// MarshalCheckpoint serializes a Checkpoint to bytes.
func MarshalCheckpoint(checkpoint *core.Checkpoint) []byte {
	e := &encoder{}
	e.putString(checkpoint.ProcessorType)
	e.putUint64(uint64(checkpoint.LastID))
	e.putTime(checkpoint.UpdatedAt)
	return e.buf
}

// UnmarshalCheckpoint deserializes a Checkpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*core.Checkpoint, error) {
	d := &decoder{data: data}
	checkpoint := &core.Checkpoint{
		ProcessorType: d.readString(),
		LastID:        core.ID(d.readUint64()),
		UpdatedAt:     d.readTime(),
	}
	if d.err != nil {
		return nil, d.err
	}
	return checkpoint, nil
}
