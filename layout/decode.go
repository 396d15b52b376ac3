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


// Package layout decodes layout-parser output into a core.LayoutBlock tree.
//
// Input is the JSON form of a Document AI layout parser response, either with
// proto field names (document_layout, text_block, body_rows, ...) or the
// camelCase JSON mapping (documentLayout, textBlock, bodyRows, ...). A bare
// {"blocks": [...]} object is also accepted. Only a payload that is not a
// JSON object is an error; absent or mistyped fields decode as empty.
package layout

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/poiesic/relayout/core"
)

// Document is a decoded layout response.
type Document struct {
	Blocks    []core.LayoutBlock
	PageCount int
}

type object map[string]json.RawMessage

// Keys that carry positional metadata rather than content.
var metadataKeys = map[string]bool{
	"block_id":  true,
	"blockId":   true,
	"page_span": true,
	"pageSpan":  true,
}

// Decode parses data into a Document.
func Decode(data []byte) (*Document, error) {
	var root object
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLayout, err)
	}
	if root == nil {
		return nil, fmt.Errorf("%w: null document", ErrInvalidLayout)
	}

	doc := &Document{PageCount: len(root.arrayField("pages"))}

	container := root.objectField("document_layout", "documentLayout")
	if container == nil {
		container = root
	}
	doc.Blocks = decodeBlocks(container.arrayField("blocks"))
	return doc, nil
}

func decodeBlocks(raws []json.RawMessage) []core.LayoutBlock {
	if len(raws) == 0 {
		return nil
	}
	blocks := make([]core.LayoutBlock, 0, len(raws))
	for _, raw := range raws {
		var obj object
		if json.Unmarshal(raw, &obj) != nil || obj == nil {
			continue
		}
		blocks = append(blocks, decodeBlock(obj))
	}
	return blocks
}

func decodeBlock(obj object) core.LayoutBlock {
	if tb := obj.objectField("text_block", "textBlock"); tb != nil {
		return &core.TextBlock{
			Text:     tb.stringField("text"),
			Kind:     textKind(tb.stringField("type_", "type")),
			Children: decodeBlocks(tb.arrayField("blocks")),
		}
	}
	if tab := obj.objectField("table_block", "tableBlock"); tab != nil {
		table := &core.TableBlock{}
		for _, key := range [][]string{{"header_rows", "headerRows"}, {"body_rows", "bodyRows"}} {
			for _, raw := range tab.arrayField(key...) {
				table.Rows = append(table.Rows, decodeRow(raw))
			}
		}
		return table
	}
	if lb := obj.objectField("list_block", "listBlock"); lb != nil {
		list := &core.ListBlock{}
		for _, raw := range lb.arrayField("list_entries", "listEntries") {
			var entry object
			if json.Unmarshal(raw, &entry) != nil || entry == nil {
				continue
			}
			list.Entries = append(list.Entries, core.ListEntry{Text: entryText(entry)})
		}
		return list
	}
	return &core.UnknownBlock{Kind: unknownKind(obj)}
}

func decodeRow(raw json.RawMessage) core.Row {
	var obj object
	if json.Unmarshal(raw, &obj) != nil {
		return core.Row{}
	}
	cells := obj.arrayField("cells")
	row := core.Row{Cells: make([]core.Cell, 0, len(cells))}
	for _, rawCell := range cells {
		var cell object
		if json.Unmarshal(rawCell, &cell) != nil {
			row.Cells = append(row.Cells, core.Cell{})
			continue
		}
		row.Cells = append(row.Cells, core.Cell{Blocks: decodeBlocks(cell.arrayField("blocks"))})
	}
	return row
}

// entryText returns an entry's own text, or the text of its nested blocks
// when the entry only carries blocks.
func entryText(entry object) string {
	if text := entry.stringField("text"); text != "" {
		return text
	}
	var parts []string
	var collect func([]core.LayoutBlock)
	collect = func(blocks []core.LayoutBlock) {
		for _, b := range blocks {
			if tb, ok := b.(*core.TextBlock); ok {
				if t := strings.TrimSpace(tb.Text); t != "" {
					parts = append(parts, t)
				}
				collect(tb.Children)
			}
		}
	}
	collect(decodeBlocks(entry.arrayField("blocks")))
	return strings.Join(parts, " ")
}

func textKind(typ string) core.TextKind {
	typ = strings.ToLower(strings.TrimSpace(typ))
	switch {
	case strings.HasPrefix(typ, "heading"):
		return core.TextKindHeading
	case strings.HasPrefix(typ, "paragraph"):
		return core.TextKindParagraph
	default:
		return core.TextKindUnspecified
	}
}

func unknownKind(obj object) string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		if !metadataKeys[k] {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	return keys[0]
}

func (o object) lookup(keys ...string) json.RawMessage {
	for _, k := range keys {
		if v, ok := o[k]; ok {
			return v
		}
	}
	return nil
}

func (o object) objectField(keys ...string) object {
	raw := o.lookup(keys...)
	if raw == nil {
		return nil
	}
	var obj object
	if json.Unmarshal(raw, &obj) != nil {
		return nil
	}
	return obj
}

func (o object) arrayField(keys ...string) []json.RawMessage {
	raw := o.lookup(keys...)
	if raw == nil {
		return nil
	}
	var arr []json.RawMessage
	if json.Unmarshal(raw, &arr) != nil {
		return nil
	}
	return arr
}

func (o object) stringField(keys ...string) string {
	raw := o.lookup(keys...)
	if raw == nil {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}
