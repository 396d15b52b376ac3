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


// Package render lays out content blocks for people and for downstream tools.
//
// Each Renderer writes a titled document built from an ordered list of
// core.ContentBlock values. Renderers own presentation only; they never
// reorder, merge, or drop blocks.
package render

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/poiesic/relayout/core"
)

// ErrUnknownFormat is returned by ForFormat for unsupported format names.
var ErrUnknownFormat = errors.New("unknown render format")

// Renderer writes a document made of content blocks.
type Renderer interface {
	// Render writes title and blocks to w.
	Render(w io.Writer, title string, blocks []core.ContentBlock) error
	// Extension is the file extension for rendered output, including the dot.
	Extension() string
}

var formats = map[string]func() Renderer{
	"markdown": func() Renderer { return &MarkdownRenderer{} },
	"text":     func() Renderer { return &TextRenderer{} },
	"json":     func() Renderer { return &JSONRenderer{Indent: true} },
	"terminal": func() Renderer { return NewTerminalRenderer() },
}

// Formats lists the names accepted by ForFormat.
func Formats() []string {
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForFormat returns a renderer with default settings for name.
func ForFormat(name string) (Renderer, error) {
	ctor, ok := formats[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownFormat, name, strings.Join(Formats(), ", "))
	}
	return ctor(), nil
}

// RenderString renders blocks with r and returns the output.
func RenderString(r Renderer, title string, blocks []core.ContentBlock) (string, error) {
	var sb strings.Builder
	if err := r.Render(&sb, title, blocks); err != nil {
		return "", err
	}
	return sb.String(), nil
}
