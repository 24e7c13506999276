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

// Package annotation implements the annotations an operator places on the
// pages of a document, and the Store which holds them during an editing
// session.
//
// All positions are given in document space: the origin is the lower left
// corner of the visible page area, y increases upwards and units are PDF
// points.  No stored value depends on the zoom factor.
package annotation

import (
	"fmt"
	"image/color"
	"strings"
	"sync/atomic"

	"seehuhn.de/go/geom/vec"
)

// ID identifies an annotation.  IDs are unique within a process and are
// never reused.
type ID uint64

var lastID atomic.Uint64

func nextID() ID {
	return ID(lastID.Add(1))
}

// Kind is the type of an annotation.
type Kind int

// These are the supported annotation kinds.
const (
	Text Kind = iota + 1
	Highlight
	Signature
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "Text"
	case Highlight:
		return "Highlight"
	case Signature:
		return "Signature"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind converts the name of an annotation kind, as returned by
// [Kind.String], back into a Kind.  Case is ignored.
func ParseKind(s string) (Kind, error) {
	for _, k := range []Kind{Text, Highlight, Signature} {
		if strings.EqualFold(k.String(), s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown annotation kind %q", s)
}

// Style describes how an annotation is drawn.
type Style struct {
	Color color.NRGBA

	// FontSize is the text size in PDF points.  This is only used for Text
	// and Signature annotations.
	FontSize float64
}

// DefaultStyle returns the style used for new annotations of the given kind.
func DefaultStyle(kind Kind) Style {
	switch kind {
	case Highlight:
		return Style{Color: color.NRGBA{R: 0xFF, G: 0xEB, B: 0x3B, A: 0xFF}}
	case Signature:
		return Style{Color: color.NRGBA{R: 0x1A, G: 0x23, B: 0x7E, A: 0xFF}, FontSize: 18}
	default:
		return Style{Color: color.NRGBA{A: 0xFF}, FontSize: 12}
	}
}

// HighlightExtent is the size of a highlight created by a single click.
// It is also used for highlights which have no extent.
var HighlightExtent = vec.Vec2{X: 100, Y: 20}

// Annotation is a mark placed by the operator on one page of a document.
type Annotation struct {
	ID   ID
	Kind Kind

	// Page is the 1-based index of the page the annotation belongs to.
	Page int

	// Anchor is the reference point of the annotation.  For Text and
	// Signature annotations this is the start of the text baseline, for
	// Highlight annotations the lower left corner of the marked area.
	Anchor vec.Vec2

	// Extent is the size of the marked area for Highlight annotations, and
	// nil for the other kinds.
	Extent *vec.Vec2

	Content string
	Style   Style
}

// Clone returns a deep copy of a.
func (a *Annotation) Clone() *Annotation {
	b := *a
	if a.Extent != nil {
		ext := *a.Extent
		b.Extent = &ext
	}
	return &b
}
