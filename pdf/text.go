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

package pdf

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"
)

// pdfDocHigh lists the characters of PDFDocEncoding in the range 0x80 to
// 0xA0.  The remaining codes above 0xA0 agree with ISO Latin 1.
var pdfDocHigh = [33]rune{
	'•', '†', '‡', '…', '—', '–', 'ƒ', '⁄', '‹', '›', '−', '‰', '„', '“', '”', '‘',
	'’', '‚', '™', 'ﬁ', 'ﬂ', 'Ł', 'Œ', 'Š', 'Ÿ', 'Ž', 'ı', 'ł', 'œ', 'š', 'ž', 0xFFFD,
	'€',
}

// pdfDocLow lists the characters of PDFDocEncoding in the range 0x18 to
// 0x1F.
var pdfDocLow = [8]rune{'˘', 'ˇ', 'ˆ', '˙', '˝', '˛', '˚', '˜'}

// DecodeText decodes a PDF text string, as used in the document information
// dictionary and other places.
func DecodeText(s String) string {
	if len(s) >= 2 && s[0] == 0xFE && s[1] == 0xFF {
		u := make([]uint16, 0, len(s)/2)
		for i := 2; i+1 < len(s); i += 2 {
			u = append(u, uint16(s[i])<<8|uint16(s[i+1]))
		}
		return string(utf16.Decode(u))
	}
	if len(s) >= 3 && s[0] == 0xEF && s[1] == 0xBB && s[2] == 0xBF {
		return string(s[3:])
	}

	var b strings.Builder
	for _, c := range s {
		switch {
		case c >= 0x18 && c <= 0x1F:
			b.WriteRune(pdfDocLow[c-0x18])
		case c >= 0x80 && c <= 0xA0:
			b.WriteRune(pdfDocHigh[c-0x80])
		default:
			b.WriteRune(rune(c))
		}
	}
	return b.String()
}

// EncodeText encodes a string as a PDF text string.  Strings which only use
// printable ASCII characters are stored as is, all other strings use UTF-16
// with a byte order mark.
func EncodeText(s string) String {
	ascii := true
	for _, r := range s {
		if r >= 0x7F || r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			ascii = false
			break
		}
	}
	if ascii {
		return String(s)
	}

	u := utf16.Encode([]rune(s))
	res := make(String, 2, 2+2*len(u))
	res[0] = 0xFE
	res[1] = 0xFF
	for _, x := range u {
		res = append(res, byte(x>>8), byte(x))
	}
	return res
}

// Date formats a time as a PDF date string, e.g. "D:20250306142537+01'00'".
func Date(t time.Time) String {
	s := t.Format("D:20060102150405")
	_, offs := t.Zone()
	if offs == 0 {
		return String(s + "Z")
	}
	sign := '+'
	if offs < 0 {
		sign = '-'
		offs = -offs
	}
	offs /= 60
	return String(fmt.Sprintf("%s%c%02d'%02d'", s, sign, offs/60, offs%60))
}

var errDate = errors.New("malformed PDF date")

// ParseDate parses a PDF date string.  Missing trailing components default
// to their minimal values, and a missing time zone is interpreted as UTC.
func ParseDate(s String) (time.Time, error) {
	str := strings.TrimPrefix(strings.TrimSpace(DecodeText(s)), "D:")

	fields := []int{0, 1, 1, 0, 0, 0}
	widths := []int{4, 2, 2, 2, 2, 2}
	pos := 0
	for i, w := range widths {
		if pos+w > len(str) || str[pos] < '0' || str[pos] > '9' {
			if i == 0 {
				return time.Time{}, errDate
			}
			break
		}
		x, err := strconv.Atoi(str[pos : pos+w])
		if err != nil {
			return time.Time{}, errDate
		}
		fields[i] = x
		pos += w
	}

	loc := time.UTC
	rest := strings.TrimRight(str[pos:], "'")
	if len(rest) > 0 && (rest[0] == '+' || rest[0] == '-') {
		parts := strings.Split(rest[1:], "'")
		h, err := strconv.Atoi(parts[0])
		if err != nil {
			return time.Time{}, errDate
		}
		m := 0
		if len(parts) > 1 && parts[1] != "" {
			m, err = strconv.Atoi(parts[1])
			if err != nil {
				return time.Time{}, errDate
			}
		}
		offs := h*3600 + m*60
		if rest[0] == '-' {
			offs = -offs
		}
		loc = time.FixedZone("", offs)
	}

	return time.Date(fields[0], time.Month(fields[1]), fields[2],
		fields[3], fields[4], fields[5], 0, loc), nil
}
