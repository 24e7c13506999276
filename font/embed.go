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

package font

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"slices"
	"unicode/utf16"

	"seehuhn.de/go/sfnt/glyph"

	"seehuhn.de/go/certpdf/pdf"
)

// Writer receives the objects of an embedded font.
type Writer interface {
	Alloc() pdf.Reference
	Put(ref pdf.Reference, obj pdf.Object)
}

// Embedded collects the glyphs of a Go font which are used in a PDF file,
// so that a subset of the font can be embedded as a composite TrueType
// font.  Character codes are two bytes long and equal the glyph index in
// the embedded subset, so that the font uses the Identity-H encoding and
// an identity CIDToGIDMap.
type Embedded struct {
	face  *Face
	gids  []glyph.ID          // code -> glyph of the Go font
	codes map[glyph.ID]uint16 // glyph of the Go font -> code
	text  map[uint16]string   // code -> text, for the ToUnicode CMap
}

// NewEmbedded starts a new font subset for face.
func NewEmbedded(face *Face) *Embedded {
	return &Embedded{
		face:  face,
		gids:  []glyph.ID{0},
		codes: map[glyph.ID]uint16{0: 0},
		text:  make(map[uint16]string),
	}
}

// Encode returns the character codes for s, adding glyphs to the subset
// as needed.  Runes without a glyph in the font are shown using the
// .notdef glyph, in the same way as on screen.
func (e *Embedded) Encode(s string) pdf.String {
	res := make(pdf.String, 0, 2*len(s))
	for _, r := range s {
		gid := e.face.GlyphID(r)
		code, ok := e.codes[gid]
		if !ok {
			code = uint16(len(e.gids))
			e.gids = append(e.gids, gid)
			e.codes[gid] = code
		}
		if _, seen := e.text[code]; !seen && gid != 0 {
			e.text[code] = string(r)
		}
		res = append(res, byte(code>>8), byte(code))
	}
	return res
}

// Embed writes the font dictionary to ref, together with the CIDFont,
// the font descriptor, the font file and a ToUnicode CMap.
func (e *Embedded) Embed(w Writer, ref pdf.Reference) error {
	ttf := e.face.info.Clone()
	ttf.CMapTable = nil
	ttf.Gdef = nil
	ttf.Gsub = nil
	ttf.Gpos = nil
	sub := ttf.Subset(slices.Clone(e.gids))

	fontName := pdf.Name(subsetTag(e.gids) + "+" + ttf.PostScriptName())

	fontFile := &bytes.Buffer{}
	n, err := sub.WriteTrueTypePDF(fontFile)
	if err != nil {
		return fmt.Errorf("embedding %s: %w", e.face.Name, err)
	}

	widths := make(pdf.Array, len(e.gids))
	for code, gid := range e.gids {
		widths[code] = pdf.Number(e.face.GlyphWidth(gid))
	}

	flags := pdf.Integer(1 << 2) // symbolic
	if ttf.IsItalic {
		flags |= 1 << 6
	}
	bbox := sub.FontBBoxPDF()

	cidFontRef := w.Alloc()
	descriptorRef := w.Alloc()
	fontFileRef := w.Alloc()
	toUnicodeRef := w.Alloc()

	w.Put(ref, pdf.Dict{
		"Type":            pdf.Name("Font"),
		"Subtype":         pdf.Name("Type0"),
		"BaseFont":        fontName,
		"Encoding":        pdf.Name("Identity-H"),
		"DescendantFonts": pdf.Array{cidFontRef},
		"ToUnicode":       toUnicodeRef,
	})
	w.Put(cidFontRef, pdf.Dict{
		"Type":     pdf.Name("Font"),
		"Subtype":  pdf.Name("CIDFontType2"),
		"BaseFont": fontName,
		"CIDSystemInfo": pdf.Dict{
			"Registry":   pdf.String("Adobe"),
			"Ordering":   pdf.String("Identity"),
			"Supplement": pdf.Integer(0),
		},
		"FontDescriptor": descriptorRef,
		"CIDToGIDMap":    pdf.Name("Identity"),
		"W":              pdf.Array{pdf.Integer(0), widths},
	})
	w.Put(descriptorRef, pdf.Dict{
		"Type":     pdf.Name("FontDescriptor"),
		"FontName": fontName,
		"Flags":    flags,
		"FontBBox": &pdf.Rectangle{
			LLx: bbox.LLx, LLy: bbox.LLy, URx: bbox.URx, URy: bbox.URy,
		},
		"ItalicAngle": pdf.Number(ttf.ItalicAngle),
		"Ascent":      pdf.Number(e.face.Ascent(1000)),
		"Descent":     pdf.Number(e.face.Descent(1000)),
		"CapHeight":   pdf.Number(float64(ttf.CapHeight) * e.face.q),
		"StemV":       pdf.Integer(80),
		"FontFile2":   fontFileRef,
	})
	w.Put(fontFileRef, pdf.NewFlateStream(pdf.Dict{"Length1": pdf.Integer(n)}, fontFile.Bytes()))
	w.Put(toUnicodeRef, pdf.NewFlateStream(nil, e.toUnicode()))
	return nil
}

// toUnicode returns a ToUnicode CMap for the codes used so far.
func (e *Embedded) toUnicode() []byte {
	codes := make([]uint16, 0, len(e.text))
	for code := range e.text {
		codes = append(codes, code)
	}
	slices.Sort(codes)

	buf := &bytes.Buffer{}
	buf.WriteString(toUnicodeHeader)
	for len(codes) > 0 {
		// at most 100 entries per block
		k := min(len(codes), 100)
		fmt.Fprintf(buf, "%d beginbfchar\n", k)
		for _, code := range codes[:k] {
			fmt.Fprintf(buf, "<%04X> <", code)
			for _, u := range utf16.Encode([]rune(e.text[code])) {
				fmt.Fprintf(buf, "%04X", u)
			}
			buf.WriteString(">\n")
		}
		buf.WriteString("endbfchar\n")
		codes = codes[k:]
	}
	buf.WriteString(toUnicodeFooter)
	return buf.Bytes()
}

const toUnicodeHeader = `/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
/CIDSystemInfo << /Registry (Adobe) /Ordering (UCS) /Supplement 0 >> def
/CMapName /Adobe-Identity-UCS def
/CMapType 2 def
1 begincodespacerange
<0000> <FFFF>
endcodespacerange
`

const toUnicodeFooter = `endcmap
CMapName currentdict /CMap defineresource pop
end
end
`

// subsetTag returns the six letter tag which identifies a font subset.
func subsetTag(gids []glyph.ID) string {
	h := md5.New()
	for _, gid := range gids {
		h.Write([]byte{byte(gid >> 8), byte(gid)})
	}
	sum := h.Sum(nil)
	tag := make([]byte, 6)
	for i := range tag {
		tag[i] = 'A' + sum[i]%26
	}
	return string(tag)
}
