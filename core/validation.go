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


package core

import (
	"fmt"
	"time"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Name must not be empty
//   - Category must be one of Categories()
//   - Every block must pass ValidateContentBlock
//   - InsertedAt must not be in the future
//
// NOT validated:
//   - Layout (kept as received, may be empty for hand-built documents)
//   - Blocks (an empty document is still stored)
//   - ID (derived by the pipeline)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyName)
	}

	if _, err := ParseCategory(string(doc.Category)); err != nil {
		return fmt.Errorf("%w: %w: %q", ErrInvalidDocument, err, doc.Category)
	}

	for i, block := range doc.Blocks {
		if err := ValidateContentBlock(block); err != nil {
			return fmt.Errorf("%w: block %d: %w", ErrInvalidDocument, i, err)
		}
	}

	if !IsValidTimestamp(doc.InsertedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateContentBlock checks that text blocks carry text and tables carry rows.
func ValidateContentBlock(block ContentBlock) error {
	switch block.Kind {
	case BlockHeading, BlockParagraph, BlockBulletItem:
		if block.Text == "" {
			return fmt.Errorf("%w: %s: %w", ErrInvalidContentBlock, block.Kind, ErrEmptyContent)
		}
	case BlockTable:
		if len(block.Rows) == 0 {
			return fmt.Errorf("%w: %w", ErrInvalidContentBlock, ErrEmptyTable)
		}
	default:
		return fmt.Errorf("%w: %w: value %d", ErrInvalidContentBlock, ErrInvalidBlockKind, block.Kind)
	}
	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Vector is not validated; it stays empty until the embedder runs.
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if chunk.Index < 0 {
		return fmt.Errorf("%w: negative index %d", ErrInvalidChunk, chunk.Index)
	}

	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
