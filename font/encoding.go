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
	"golang.org/x/text/encoding/charmap"

	"seehuhn.de/go/postscript/type1/names"

	"seehuhn.de/go/certpdf/internal/logging"
	"seehuhn.de/go/certpdf/pdf"
)

// Encoding maps the character codes of a simple font to Unicode.
// Unused codes map to 0.
type Encoding [256]rune

// Decode converts a string shown with a simple font to runes.  Codes
// without a mapping are returned as 0, so that the result has one entry per
// byte of s.
func (e *Encoding) Decode(s pdf.String) []rune {
	res := make([]rune, len(s))
	for i, c := range s {
		res[i] = e[c]
	}
	return res
}

func fromCharmap(cm *charmap.Charmap) *Encoding {
	enc := &Encoding{}
	for i := range enc {
		r := cm.DecodeByte(byte(i))
		if r != '\uFFFD' && r >= ' ' && (r < 0x7F || r > 0x9F) {
			enc[i] = r
		}
	}
	return enc
}

// Predefined encodings.
var (
	WinAnsiEncoding  = fromCharmap(charmap.Windows1252)
	MacRomanEncoding = fromCharmap(charmap.Macintosh)
	StandardEncoding = makeStandardEncoding()
)

func makeStandardEncoding() *Encoding {
	enc := &Encoding{}
	for c := ' '; c <= '~'; c++ {
		enc[c] = c
	}
	enc['\''] = '’'
	enc['`'] = '‘'
	high := map[byte]rune{
		0xA1: '¡', 0xA2: '¢', 0xA3: '£', 0xA4: '⁄', 0xA5: '¥', 0xA6: 'ƒ',
		0xA7: '§', 0xA8: '¤', 0xA9: '\'', 0xAA: '“', 0xAB: '«', 0xAC: '‹',
		0xAD: '›', 0xAE: 'ﬁ', 0xAF: 'ﬂ', 0xB1: '–', 0xB2: '†', 0xB3: '‡',
		0xB4: '·', 0xB6: '¶', 0xB7: '•', 0xB8: '‚', 0xB9: '„', 0xBA: '”',
		0xBB: '»', 0xBC: '…', 0xBD: '‰', 0xBF: '¿', 0xC1: '`', 0xC2: '´',
		0xC3: 'ˆ', 0xC4: '˜', 0xC5: '¯', 0xC6: '˘', 0xC7: '˙', 0xC8: '¨',
		0xCA: '˚', 0xCB: '¸', 0xCD: '˝', 0xCE: '˛', 0xCF: 'ˇ', 0xD0: '—',
		0xE1: 'Æ', 0xE3: 'ª', 0xE8: 'Ł', 0xE9: 'Ø', 0xEA: 'Œ', 0xEB: 'º',
		0xF1: 'æ', 0xF5: 'ı', 0xF8: 'ł', 0xF9: 'ø', 0xFA: 'œ', 0xFB: 'ß',
	}
	for c, r := range high {
		enc[c] = r
	}
	return enc
}

func namedEncoding(name pdf.Name) *Encoding {
	switch name {
	case "WinAnsiEncoding":
		return WinAnsiEncoding
	case "MacRomanEncoding":
		return MacRomanEncoding
	case "StandardEncoding":
		return StandardEncoding
	}
	return nil
}

// ReadEncoding determines the encoding of a simple font from the /Encoding
// entry of its font dictionary.  Both encoding names and encoding
// dictionaries with a /Differences array are understood.  If the font
// dictionary specifies no usable encoding, StandardEncoding is used.
func ReadEncoding(r pdf.Getter, fontDict pdf.Dict) *Encoding {
	obj, err := pdf.Resolve(r, fontDict["Encoding"])
	if err != nil {
		logging.Logger().Debug("cannot read font encoding", "error", err)
		return StandardEncoding
	}

	switch obj := obj.(type) {
	case pdf.Name:
		if enc := namedEncoding(obj); enc != nil {
			return enc
		}
	case pdf.Dict:
		base, _ := pdf.GetName(r, obj["BaseEncoding"])
		enc := &Encoding{}
		if b := namedEncoding(base); b != nil {
			*enc = *b
		} else {
			*enc = *StandardEncoding
		}

		diff, _ := pdf.GetArray(r, obj["Differences"])
		code := -1
		for _, item := range diff {
			switch item := item.(type) {
			case pdf.Integer:
				code = int(item)
			case pdf.Name:
				if code < 0 || code > 255 {
					continue
				}
				enc[code] = glyphNameToRune(string(item))
				code++
			}
		}
		return enc
	}
	return StandardEncoding
}

// glyphNameToRune maps a glyph name to the first rune of its Unicode value.
func glyphNameToRune(name string) rune {
	for _, r := range names.ToUnicode(name, "") {
		return r
	}
	return 0
}

// IsWinAnsi reports whether every rune of s can be represented in
// WinAnsiEncoding.
func IsWinAnsi(s string) bool {
	for _, r := range s {
		if _, ok := charmap.Windows1252.EncodeRune(r); !ok {
			return false
		}
	}
	return true
}

// EncodeWinAnsi converts s to WinAnsiEncoding.  Runes which cannot be
// represented are replaced by '?'.
func EncodeWinAnsi(s string) pdf.String {
	res := make(pdf.String, 0, len(s))
	for _, r := range s {
		c, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			c = '?'
		}
		res = append(res, c)
	}
	return res
}
