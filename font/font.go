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

// Package font substitutes the Go fonts for the fonts used in PDF files.
//
// When reading, the glyph shapes of simple fonts are taken from the Go font
// family, choosing a face which matches the weight, slant and pitch of the
// requested font.  Embedded TrueType data can be read with [ReadTrueType].
// When writing, the standard 14 fonts are referenced by name, and text
// widths are computed from the metrics of the substituted Go font.  Text
// outside WinAnsiEncoding is written with an [Embedded] subset of the Go
// font instead.
package font

import (
	"bytes"
	"errors"
	"strings"
	"sync"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"

	"seehuhn.de/go/sfnt"
	"seehuhn.de/go/sfnt/cmap"
	"seehuhn.de/go/sfnt/glyph"
)

// Names of the standard 14 fonts.
const (
	Courier              = "Courier"
	CourierBold          = "Courier-Bold"
	CourierBoldOblique   = "Courier-BoldOblique"
	CourierOblique       = "Courier-Oblique"
	Helvetica            = "Helvetica"
	HelveticaBold        = "Helvetica-Bold"
	HelveticaBoldOblique = "Helvetica-BoldOblique"
	HelveticaOblique     = "Helvetica-Oblique"
	Symbol               = "Symbol"
	TimesBold            = "Times-Bold"
	TimesBoldItalic      = "Times-BoldItalic"
	TimesItalic          = "Times-Italic"
	TimesRoman           = "Times-Roman"
	ZapfDingbats         = "ZapfDingbats"
)

// Face is a font from the Go font family.
type Face struct {
	// Name is the name of the Go font.
	Name string

	info *sfnt.Font
	cmap cmap.Subtable
	q    float64 // font design units to PDF glyph space units
}

type style struct {
	bold, italic, mono bool
}

var goFonts = []struct {
	style
	name string
	ttf  []byte
}{
	{style{}, "Go Regular", goregular.TTF},
	{style{bold: true}, "Go Bold", gobold.TTF},
	{style{italic: true}, "Go Italic", goitalic.TTF},
	{style{bold: true, italic: true}, "Go Bold Italic", gobolditalic.TTF},
	{style{mono: true}, "Go Mono", gomono.TTF},
	{style{mono: true, bold: true}, "Go Mono Bold", gomonobold.TTF},
	{style{mono: true, italic: true}, "Go Mono Italic", gomonoitalic.TTF},
	{style{mono: true, bold: true, italic: true}, "Go Mono Bold Italic", gomonobolditalic.TTF},
}

// faces holds the parsed Go fonts.  The embedded font data is known to be
// valid, so parse errors are programming errors.
var faces = sync.OnceValue(func() map[style]*Face {
	res := make(map[style]*Face, len(goFonts))
	for _, f := range goFonts {
		info, err := sfnt.Read(bytes.NewReader(f.ttf))
		if err != nil {
			panic("font: cannot parse " + f.name + ": " + err.Error())
		}
		subtable, err := info.CMapTable.GetBest()
		if err != nil {
			panic("font: no usable cmap in " + f.name + ": " + err.Error())
		}
		res[f.style] = &Face{
			Name: f.name,
			info: info,
			cmap: subtable,
			q:    1000 / float64(info.UnitsPerEm),
		}
	}
	return res
})

// Substitute returns the Go font used in place of the font with the given
// PostScript name.  Any name is accepted: the face is chosen by looking for
// weight, slant and pitch hints in the name.  A subset tag like "ABCDEF+"
// is ignored.
func Substitute(baseFont string) *Face {
	return faces()[classify(baseFont)]
}

func classify(baseFont string) style {
	if len(baseFont) > 7 && baseFont[6] == '+' {
		baseFont = baseFont[7:]
	}
	name := strings.ToLower(baseFont)

	var s style
	for _, hint := range []string{"bold", "black", "heavy", "semibold", "demi"} {
		if strings.Contains(name, hint) {
			s.bold = true
			break
		}
	}
	s.italic = strings.Contains(name, "italic") || strings.Contains(name, "oblique")
	s.mono = strings.Contains(name, "courier") || strings.Contains(name, "mono")
	return s
}

// IsStandard reports whether name is one of the standard 14 fonts.
func IsStandard(name string) bool {
	switch name {
	case Courier, CourierBold, CourierBoldOblique, CourierOblique,
		Helvetica, HelveticaBold, HelveticaBoldOblique, HelveticaOblique,
		Symbol, TimesBold, TimesBoldItalic, TimesItalic, TimesRoman,
		ZapfDingbats:
		return true
	}
	return false
}

// ReadTrueType parses the data of a TrueType font embedded in a PDF file.
// Embedded fonts often have no usable cmap table, so glyphs are usually
// selected by glyph index.
func ReadTrueType(data []byte) (*Face, error) {
	info, err := sfnt.Read(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if !info.IsGlyf() || info.UnitsPerEm == 0 {
		return nil, errNotTrueType
	}
	var subtable cmap.Subtable
	if info.CMapTable != nil {
		subtable, _ = info.CMapTable.GetBest()
	}
	return &Face{
		Name: info.PostScriptName(),
		info: info,
		cmap: subtable,
		q:    1000 / float64(info.UnitsPerEm),
	}, nil
}

var errNotTrueType = errors.New("not a TrueType font")

// GlyphID returns the glyph used to show r.  If the font has no glyph for
// r, 0 (the .notdef glyph) is returned.
func (f *Face) GlyphID(r rune) glyph.ID {
	if f.cmap == nil {
		return 0
	}
	return f.cmap.Lookup(r)
}

// NumGlyphs returns the number of glyphs in the font.
func (f *Face) NumGlyphs() int {
	return f.info.NumGlyphs()
}

// Width returns the advance width of the glyph for r, in PDF glyph space
// units (1/1000 of the font size).
func (f *Face) Width(r rune) float64 {
	return f.GlyphWidth(f.GlyphID(r))
}

// GlyphWidth returns the advance width of a glyph in PDF glyph space
// units.  Glyphs outside the font have width 0.
func (f *Face) GlyphWidth(gid glyph.ID) float64 {
	if int(gid) >= f.NumGlyphs() {
		return 0
	}
	return f.info.GlyphWidthPDF(gid)
}

// TextWidth returns the width of s when set at the given font size.
func (f *Face) TextWidth(s string, size float64) float64 {
	var w float64
	for _, r := range s {
		w += f.Width(r)
	}
	return w * size / 1000
}

// Ascent returns the ascent of the font at the given size.
func (f *Face) Ascent(size float64) float64 {
	return float64(f.info.Ascent) * f.q * size / 1000
}

// Descent returns the descent of the font at the given size.  The value is
// negative for glyphs extending below the baseline.
func (f *Face) Descent(size float64) float64 {
	return float64(f.info.Descent) * f.q * size / 1000
}

// UnitsPerEm returns the number of font design units per em.
func (f *Face) UnitsPerEm() float64 {
	return float64(f.info.UnitsPerEm)
}
