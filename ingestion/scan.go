package ingestion

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/relayout/core"
)

// Input is one layout response waiting to be ingested.
type Input struct {
	Name     string        // Document name, usually the file name without extensions
	Category core.Category // Collection the document belongs to
	Layout   []byte        // Raw layout JSON
	Path     string        // Source file, empty for in-memory inputs
}

// Scan loads every *.json file directly inside dir as an Input of the given
// category, in file name order.
func Scan(dir string, category core.Category) ([]Input, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var inputs []Input
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		inputs = append(inputs, Input{
			Name:     trimExtensions(entry.Name()),
			Category: category,
			Layout:   data,
			Path:     path,
		})
	}
	return inputs, nil
}

// ScanCategories scans root/<Category.DirName()> for each category.
// Missing category folders are skipped.
func ScanCategories(root string, categories ...core.Category) ([]Input, error) {
	if len(categories) == 0 {
		categories = core.Categories()
	}

	var inputs []Input
	for _, category := range categories {
		found, err := Scan(filepath.Join(root, category.DirName()), category)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, found...)
	}
	return inputs, nil
}
