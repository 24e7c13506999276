// seehuhn.de/go/certpdf - compose and annotate PDF documents
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"encoding/json"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/certpdf/annotation"
)

// annotationRecord is the JSON form of an annotation.  Coordinates are in
// PDF points, relative to the lower left corner of the visible page area.
type annotationRecord struct {
	Kind    string  `json:"kind"`
	Page    int     `json:"page"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width,omitempty"`
	Height  float64 `json:"height,omitempty"`
	Content string  `json:"content,omitempty"`
	Color   string  `json:"color,omitempty"`
	Size    float64 `json:"size,omitempty"`
}

// readAnnotations decodes a JSON array of annotation records and places
// the annotations into a new store.  The store assigns the IDs and
// establishes the drawing order.
func readAnnotations(data []byte) ([]*annotation.Annotation, error) {
	var records []annotationRecord
	err := json.Unmarshal(data, &records)
	if err != nil {
		return nil, err
	}

	store := annotation.NewStore()
	for i, rec := range records {
		kind, err := annotation.ParseKind(rec.Kind)
		if err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i+1, err)
		}
		style := annotation.DefaultStyle(kind)
		if rec.Color != "" {
			style.Color, err = parseColor(rec.Color)
			if err != nil {
				return nil, fmt.Errorf("annotation %d: %w", i+1, err)
			}
		}
		if rec.Size > 0 {
			style.FontSize = rec.Size
		}

		var extent *vec.Vec2
		if kind == annotation.Highlight {
			ext := annotation.HighlightExtent
			if rec.Width > 0 && rec.Height > 0 {
				ext = vec.Vec2{X: rec.Width, Y: rec.Height}
			}
			extent = &ext
		}
		store.Insert(kind, rec.Page, vec.Vec2{X: rec.X, Y: rec.Y}, extent, rec.Content, style)
	}
	return store.All(), nil
}

// parseColor parses colours of the form "#rrggbb".
func parseColor(s string) (color.NRGBA, error) {
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}, nil
}
