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
	"testing"

	"github.com/google/go-cmp/cmp"

	"seehuhn.de/go/geom/matrix"

	"seehuhn.de/go/certpdf/pdf"
)

func TestSubstitute(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{Helvetica, "Go Regular"},
		{HelveticaBold, "Go Bold"},
		{HelveticaBoldOblique, "Go Bold Italic"},
		{TimesItalic, "Go Italic"},
		{TimesRoman, "Go Regular"},
		{Courier, "Go Mono"},
		{CourierBoldOblique, "Go Mono Bold Italic"},
		{"ABCDEF+Arial-BoldMT", "Go Bold"},
		{"LiberationMono-Italic", "Go Mono Italic"},
		{"", "Go Regular"},
	}
	for _, c := range cases {
		got := Substitute(c.in).Name
		if got != c.want {
			t.Errorf("%q: got %q, want %q", c.in, got, c.want)
		}
	}
}

func TestIsStandard(t *testing.T) {
	if !IsStandard(TimesItalic) || !IsStandard(ZapfDingbats) {
		t.Error("standard font not recognised")
	}
	if IsStandard("Arial") {
		t.Error("Arial is not a standard font")
	}
}

func TestMetrics(t *testing.T) {
	f := Substitute(Helvetica)

	if w := f.Width(' '); w <= 0 || w >= 1000 {
		t.Errorf("implausible space width %g", w)
	}
	if f.Width('M') <= f.Width('i') {
		t.Error("M should be wider than i")
	}

	w12 := f.TextWidth("Certification", 12)
	w24 := f.TextWidth("Certification", 24)
	if w12 <= 0 || !nearlyEqual(w24, 2*w12) {
		t.Errorf("widths not proportional to size: %g, %g", w12, w24)
	}
	if f.TextWidth("", 12) != 0 {
		t.Error("empty string has non-zero width")
	}

	if f.Ascent(10) <= 0 || f.Descent(10) >= 0 {
		t.Errorf("implausible ascent/descent %g/%g", f.Ascent(10), f.Descent(10))
	}

	bold := Substitute(HelveticaBold)
	if bold.TextWidth("Certification", 12) <= w12 {
		t.Error("bold text should be wider")
	}
}

func nearlyEqual(a, b float64) bool {
	d := a - b
	return d > -1e-9 && d < 1e-9
}

type recorder struct {
	moves, closes, segments int
	minY, maxY              float32
}

func (r *recorder) point(y float32) {
	r.minY = min(r.minY, y)
	r.maxY = max(r.maxY, y)
}
func (r *recorder) MoveTo(x, y float32) { r.moves++; r.point(y) }
func (r *recorder) LineTo(x, y float32) { r.segments++; r.point(y) }
func (r *recorder) QuadTo(_, _, x, y float32) { r.segments++; r.point(y) }
func (r *recorder) CubeTo(_, _, _, _, x, y float32) { r.segments++; r.point(y) }
func (r *recorder) ClosePath() { r.closes++ }

func TestDrawGlyph(t *testing.T) {
	f := Substitute(Helvetica)

	rec := &recorder{}
	f.DrawGlyph(rec, f.GlyphID('O'), matrix.Identity)
	if rec.moves != 2 || rec.segments == 0 {
		t.Errorf("unexpected outline for 'O': %+v", rec)
	}

	// A y-flip maps the glyph above the baseline to negative coordinates.
	rec = &recorder{}
	f.DrawGlyph(rec, f.GlyphID('H'), matrix.Matrix{1, 0, 0, -1, 0, 0})
	if rec.maxY > 0 || rec.minY >= 0 {
		t.Errorf("glyph not flipped: y range [%g, %g]", rec.minY, rec.maxY)
	}

	rec = &recorder{}
	f.DrawGlyph(rec, f.GlyphID(' '), matrix.Identity)
	if rec.moves != 0 {
		t.Error("space glyph has an outline")
	}
}

func TestEncodeWinAnsi(t *testing.T) {
	got := EncodeWinAnsi("Café € ☃")
	want := pdf.String("Caf\xe9 \x80 ?")
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("encoding (-want +got):\n%s", d)
	}
}

func TestBuiltinEncodings(t *testing.T) {
	cases := []struct {
		enc  *Encoding
		code byte
		want rune
	}{
		{WinAnsiEncoding, 'A', 'A'},
		{WinAnsiEncoding, 0x80, '€'},
		{WinAnsiEncoding, 0xE9, 'é'},
		{WinAnsiEncoding, 0x81, 0},
		{MacRomanEncoding, 0x8E, 'é'},
		{StandardEncoding, '\'', '’'},
		{StandardEncoding, 0xAE, 'ﬁ'},
		{StandardEncoding, 0xE9, 'Ø'},
		{StandardEncoding, 0x80, 0},
	}
	for _, c := range cases {
		if got := c.enc[c.code]; got != c.want {
			t.Errorf("code 0x%02x: got %q, want %q", c.code, got, c.want)
		}
	}
}

func TestReadEncoding(t *testing.T) {
	fontDict := pdf.Dict{
		"Encoding": pdf.Dict{
			"BaseEncoding": pdf.Name("WinAnsiEncoding"),
			"Differences": pdf.Array{
				pdf.Integer(65), pdf.Name("Adieresis"), pdf.Name("bullet"),
				pdf.Integer(200), pdf.Name("uni2603"),
			},
		},
	}
	enc := ReadEncoding(nil, fontDict)
	got := enc.Decode(pdf.String("ABC\xc8\xe9"))
	want := []rune{'Ä', '•', 'C', '☃', 'é'}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("decode (-want +got):\n%s", d)
	}
	if WinAnsiEncoding['A'] != 'A' {
		t.Error("Differences modified the base encoding")
	}

	enc = ReadEncoding(nil, pdf.Dict{"Encoding": pdf.Name("MacRomanEncoding")})
	if enc != MacRomanEncoding {
		t.Error("named encoding not recognised")
	}
	enc = ReadEncoding(nil, pdf.Dict{})
	if enc != StandardEncoding {
		t.Error("default encoding should be StandardEncoding")
	}
}
