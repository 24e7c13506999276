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

package render

import (
	"errors"
	"fmt"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/sfnt/glyph"

	"seehuhn.de/go/certpdf/font"
	"seehuhn.de/go/certpdf/internal/logging"
	"seehuhn.de/go/certpdf/pdf"
)

// fontInfo describes how to show text in a font from the PDF file.
type fontInfo struct {
	face *font.Face
	enc  *font.Encoding

	// widths are the glyph widths from the font dictionary, in PDF glyph
	// space units, starting at code firstChar.
	widths    []float64
	firstChar int

	// Composite fonts use two-byte codes.  Glyphs are drawn only if the
	// font embeds TrueType data and uses the Identity-H encoding; otherwise
	// only the text position advances.
	composite    bool
	defaultWidth float64
	cidWidths    map[uint16]float64
	cidFace      *font.Face
	cidToGID     []glyph.ID // nil for the identity mapping
}

func (ip *interpreter) setFont(name pdf.Name, size float64) {
	fonts, _ := pdf.GetDict(ip.r, ip.resources["Font"])
	obj, ok := fonts[name]
	if !ok {
		logging.Logger().Debug("font not in resources", "name", name)
		ip.font = nil
		return
	}
	ip.font = ip.loadFont(obj)
	ip.fontSize = size
}

func (ip *interpreter) loadFont(obj pdf.Object) *fontInfo {
	ref, isRef := obj.(pdf.Reference)
	if isRef {
		if fi, ok := ip.fonts[ref]; ok {
			return fi
		}
	}

	fi, err := readFont(ip.r, obj)
	if err != nil {
		logging.Logger().Warn("cannot read font", "font", obj, "error", err)
		fi = &fontInfo{
			face: font.Substitute(font.Helvetica),
			enc:  font.StandardEncoding,
		}
	}
	if isRef {
		ip.fonts[ref] = fi
	}
	return fi
}

func readFont(r *pdf.Reader, obj pdf.Object) (*fontInfo, error) {
	dict, err := pdf.GetDict(r, obj)
	if err != nil {
		return nil, err
	}
	baseFont, _ := pdf.GetName(r, dict["BaseFont"])
	subtype, _ := pdf.GetName(r, dict["Subtype"])

	fi := &fontInfo{
		face: font.Substitute(string(baseFont)),
	}

	if subtype == "Type0" {
		fi.composite = true
		fi.defaultWidth = 1000
		desc, _ := pdf.GetArray(r, dict["DescendantFonts"])
		if len(desc) == 0 {
			return fi, nil
		}
		cidFont, _ := pdf.GetDict(r, desc[0])
		if dw, err := pdf.GetNumber(r, cidFont["DW"]); err == nil && cidFont["DW"] != nil {
			fi.defaultWidth = dw
		}
		fi.cidWidths = readCIDWidths(r, cidFont["W"])

		encoding, _ := pdf.GetName(r, dict["Encoding"])
		if encoding == "Identity-H" {
			err := fi.readCIDFontType2(r, cidFont)
			if err != nil {
				logging.Logger().Debug("composite font not drawn",
					"font", baseFont, "error", err)
			}
		}
		return fi, nil
	}

	fi.enc = font.ReadEncoding(r, dict)

	widths, _ := pdf.GetArray(r, dict["Widths"])
	if len(widths) > 0 {
		first, _ := pdf.GetInteger(r, dict["FirstChar"])
		q := 1.0
		if subtype == "Type3" {
			// Type 3 widths are given in glyph space.
			fm, _ := pdf.GetArray(r, dict["FontMatrix"])
			if len(fm) == 6 {
				if x, ok := pdf.AsNumber(fm[0]); ok {
					q = x * 1000
				}
			}
		}
		fi.firstChar = int(first)
		fi.widths = make([]float64, len(widths))
		for i, w := range widths {
			x, _ := pdf.GetNumber(r, w)
			fi.widths[i] = x * q
		}
	}
	return fi, nil
}

// readCIDFontType2 loads the embedded TrueType data of a CIDFont.
func (fi *fontInfo) readCIDFontType2(r *pdf.Reader, cidFont pdf.Dict) error {
	subtype, _ := pdf.GetName(r, cidFont["Subtype"])
	if subtype != "CIDFontType2" {
		return fmt.Errorf("unsupported CIDFont type %q", subtype)
	}
	fd, err := pdf.GetDict(r, cidFont["FontDescriptor"])
	if err != nil {
		return err
	}
	stm, err := pdf.GetStream(r, fd["FontFile2"])
	if err != nil {
		return err
	} else if stm == nil {
		return errors.New("no embedded font data")
	}
	data, err := r.DecodeStream(stm)
	if err != nil {
		return err
	}
	face, err := font.ReadTrueType(data)
	if err != nil {
		return err
	}

	cidToGID, err := pdf.Resolve(r, cidFont["CIDToGIDMap"])
	if err != nil {
		return err
	}
	switch m := cidToGID.(type) {
	case nil, pdf.Name:
		// identity
	case *pdf.Stream:
		data, err := r.DecodeStream(m)
		if err != nil {
			return err
		}
		fi.cidToGID = make([]glyph.ID, len(data)/2)
		for i := range fi.cidToGID {
			fi.cidToGID[i] = glyph.ID(data[2*i])<<8 | glyph.ID(data[2*i+1])
		}
	}
	fi.cidFace = face
	return nil
}

// readCIDWidths decodes the /W array of a CIDFont.  Both the
// "c [w1 w2 ...]" and the "c_first c_last w" forms are supported.
func readCIDWidths(r pdf.Getter, obj pdf.Object) map[uint16]float64 {
	a, _ := pdf.GetArray(r, obj)
	if len(a) == 0 {
		return nil
	}
	res := make(map[uint16]float64)
	for i := 0; i < len(a); {
		first, err := pdf.GetInteger(r, a[i])
		if err != nil || i+1 >= len(a) {
			break
		}
		next, _ := pdf.Resolve(r, a[i+1])
		if ww, ok := next.(pdf.Array); ok {
			for j, w := range ww {
				x, _ := pdf.GetNumber(r, w)
				if c := int64(first) + int64(j); c >= 0 && c <= 0xFFFF {
					res[uint16(c)] = x
				}
			}
			i += 2
			continue
		}
		if i+2 >= len(a) {
			break
		}
		last, _ := pdf.GetInteger(r, a[i+1])
		x, _ := pdf.GetNumber(r, a[i+2])
		for c := max(int64(first), 0); c <= min(int64(last), 0xFFFF); c++ {
			res[uint16(c)] = x
		}
		i += 3
	}
	return res
}

// cidWidth returns the glyph width for a CID of a composite font.
func (fi *fontInfo) cidWidth(cid uint16) float64 {
	if w, ok := fi.cidWidths[cid]; ok {
		return w
	}
	return fi.defaultWidth
}

// gid returns the glyph of the embedded font used for a CID.
func (fi *fontInfo) gid(cid uint16) glyph.ID {
	if fi.cidToGID == nil {
		return glyph.ID(cid)
	}
	if int(cid) < len(fi.cidToGID) {
		return fi.cidToGID[cid]
	}
	return 0
}

// width returns the glyph width for a character code of a simple font.
func (fi *fontInfo) width(code byte, r rune) float64 {
	if i := int(code) - fi.firstChar; i >= 0 && i < len(fi.widths) {
		return fi.widths[i]
	}
	return fi.face.Width(r)
}

// showText draws a string and advances the text matrix.
func (ip *interpreter) showText(s pdf.String) {
	fi := ip.font
	if fi == nil {
		return
	}

	// text rendering modes 3 and 7 do not paint
	visible := ip.renderMode != 3 && ip.renderMode != 7
	ip.c.reset()

	if fi.composite {
		face := fi.cidFace
		for i := 0; i+1 < len(s); i += 2 {
			cid := uint16(s[i])<<8 | uint16(s[i+1])
			if gid := fi.gid(cid); visible && face != nil && gid != 0 {
				k := 1 / face.UnitsPerEm()
				trm := matrix.Matrix{ip.fontSize * ip.hScale, 0, 0, ip.fontSize, 0, ip.rise}.Mul(ip.tm).Mul(ip.ctm)
				face.DrawGlyph(ip.c, gid, matrix.Matrix{k, 0, 0, k, 0, 0}.Mul(trm))
			}
			ip.advance(fi.cidWidth(cid), false)
		}
		if visible {
			ip.c.fill(toNRGBA(ip.fill, ip.fillAlpha))
		}
		return
	}

	k := 1 / fi.face.UnitsPerEm()
	for i, r := range fi.enc.Decode(s) {
		if visible && r != 0 && r != ' ' {
			trm := matrix.Matrix{ip.fontSize * ip.hScale, 0, 0, ip.fontSize, 0, ip.rise}.Mul(ip.tm).Mul(ip.ctm)
			fi.face.DrawGlyph(ip.c, fi.face.GlyphID(r), matrix.Matrix{k, 0, 0, k, 0, 0}.Mul(trm))
		}
		ip.advance(fi.width(s[i], r), s[i] == ' ')
	}
	if visible {
		ip.c.fill(toNRGBA(ip.fill, ip.fillAlpha))
	}
}

// advance moves the text position after showing a glyph of width w,
// given in PDF glyph space units.
func (ip *interpreter) advance(w float64, isSpace bool) {
	tx := w/1000*ip.fontSize + ip.charSpacing
	if isSpace {
		tx += ip.wordSpacing
	}
	ip.tm = matrix.Translate(tx*ip.hScale, 0).Mul(ip.tm)
}

// showKerned implements the TJ operator.
func (ip *interpreter) showKerned(a pdf.Array) {
	for _, item := range a {
		switch item := item.(type) {
		case pdf.String:
			ip.showText(item)
		default:
			if d, ok := pdf.AsNumber(item); ok {
				ip.tm = matrix.Translate(-d/1000*ip.fontSize*ip.hScale, 0).Mul(ip.tm)
			}
		}
	}
}
