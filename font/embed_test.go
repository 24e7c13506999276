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
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"seehuhn.de/go/sfnt/glyph"

	"seehuhn.de/go/certpdf/pdf"
)

type memWriter struct {
	objects map[pdf.Reference]pdf.Object
	next    uint32
}

func (w *memWriter) Alloc() pdf.Reference {
	w.next++
	return pdf.NewReference(w.next, 0)
}

func (w *memWriter) Put(ref pdf.Reference, obj pdf.Object) {
	w.objects[ref] = obj
}

func (w *memWriter) Get(ref pdf.Reference) (pdf.Object, error) {
	return w.objects[ref], nil
}

func TestIsWinAnsi(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"Certificate of Completion", true},
		{"Café – “quoted” €5", true},
		{"Łódź", false},
		{"Ωμέγα", false},
	}
	for _, c := range cases {
		if got := IsWinAnsi(c.in); got != c.want {
			t.Errorf("%q: got %t, want %t", c.in, got, c.want)
		}
	}
}

func TestEmbeddedEncode(t *testing.T) {
	face := Substitute(Helvetica)
	e := NewEmbedded(face)

	got := e.Encode("ŁAŁ")
	want := pdf.String{0, 1, 0, 2, 0, 1}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("codes (-want +got):\n%s", d)
	}

	wantGIDs := []glyph.ID{0, face.GlyphID('Ł'), face.GlyphID('A')}
	if d := cmp.Diff(wantGIDs, e.gids); d != "" {
		t.Errorf("glyphs (-want +got):\n%s", d)
	}
	if e.text[1] != "Ł" || e.text[2] != "A" {
		t.Errorf("unexpected text map %q", e.text)
	}
}

func TestEmbed(t *testing.T) {
	face := Substitute(Helvetica)
	e := NewEmbedded(face)
	e.Encode("Łódź")

	w := &memWriter{objects: make(map[pdf.Reference]pdf.Object)}
	ref := w.Alloc()
	err := e.Embed(w, ref)
	if err != nil {
		t.Fatal(err)
	}

	dict, err := pdf.GetDict(w, ref)
	if err != nil {
		t.Fatal(err)
	}
	if dict["Subtype"] != pdf.Name("Type0") || dict["Encoding"] != pdf.Name("Identity-H") {
		t.Errorf("unexpected font dictionary %v", dict)
	}
	baseFont, _ := dict["BaseFont"].(pdf.Name)
	if len(baseFont) < 8 || baseFont[6] != '+' {
		t.Errorf("BaseFont %q lacks a subset tag", baseFont)
	}

	desc, _ := pdf.GetArray(w, dict["DescendantFonts"])
	if len(desc) != 1 {
		t.Fatalf("expected one descendant font, got %d", len(desc))
	}
	cidFont, _ := pdf.GetDict(w, desc[0])
	if cidFont["Subtype"] != pdf.Name("CIDFontType2") {
		t.Errorf("wrong CIDFont type %v", cidFont["Subtype"])
	}
	fd, _ := pdf.GetDict(w, cidFont["FontDescriptor"])
	stm, err := pdf.GetStream(w, fd["FontFile2"])
	if err != nil || stm == nil {
		t.Fatalf("no font file: %v", err)
	}
	data, err := (&pdf.Reader{}).DecodeStream(stm)
	if err != nil {
		t.Fatal(err)
	}

	sub, err := ReadTrueType(data)
	if err != nil {
		t.Fatal(err)
	}
	// components of composite glyphs are appended to the subset
	if sub.NumGlyphs() < len(e.gids) {
		t.Errorf("subset has %d glyphs, want at least %d", sub.NumGlyphs(), len(e.gids))
	}
	for code, gid := range e.gids {
		if got, want := sub.GlyphWidth(glyph.ID(code)), face.GlyphWidth(gid); got != want {
			t.Errorf("code %d: width %g, want %g", code, got, want)
		}
	}

	tu, _ := pdf.GetStream(w, dict["ToUnicode"])
	cmapData, err := (&pdf.Reader{}).DecodeStream(tu)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(cmapData), "<0001> <0141>") {
		t.Errorf("ToUnicode CMap lacks the entry for Ł:\n%s", cmapData)
	}
}
