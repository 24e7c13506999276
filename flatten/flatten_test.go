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

package flatten

import (
	"bytes"
	"image"
	"image/color"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/certpdf/annotation"
	"seehuhn.de/go/certpdf/document"
	"seehuhn.de/go/certpdf/geometry"
	"seehuhn.de/go/certpdf/graphics/content"
	"seehuhn.de/go/certpdf/internal/testpdf"
	"seehuhn.de/go/certpdf/pdf"
	"seehuhn.de/go/certpdf/render"
)

func build(t *testing.T, opt *testpdf.Options, pages ...testpdf.Page) []byte {
	t.Helper()
	data, err := testpdf.Build(pages, opt)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func load(t *testing.T, data []byte) *document.Document {
	t.Helper()
	doc, err := document.Load(data)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func textAnnot(page int, x, y float64, s string) *annotation.Annotation {
	return &annotation.Annotation{
		Kind:    annotation.Text,
		Page:    page,
		Anchor:  vec.Vec2{X: x, Y: y},
		Content: s,
		Style:   annotation.DefaultStyle(annotation.Text),
	}
}

func highlightAnnot(page int, x, y float64) *annotation.Annotation {
	ext := vec.Vec2{X: 100, Y: 20}
	return &annotation.Annotation{
		Kind:   annotation.Highlight,
		Page:   page,
		Anchor: vec.Vec2{X: x, Y: y},
		Extent: &ext,
		Style:  annotation.DefaultStyle(annotation.Highlight),
	}
}

type pageSize struct{ W, H float64 }

func sizes(doc *document.Document) []pageSize {
	var res []pageSize
	for p := 1; p <= doc.NumPages(); p++ {
		w, h, _ := doc.PageSize(p)
		res = append(res, pageSize{w, h})
	}
	return res
}

func TestNonMutation(t *testing.T) {
	for _, compact := range []bool{false, true} {
		original := build(t, &testpdf.Options{Compact: compact, Version: pdf.V1_7},
			testpdf.Page{MediaBox: &pdf.Rectangle{URx: 300, URy: 400}},
			testpdf.Page{},
		)
		saved := bytes.Clone(original)
		before := sizes(load(t, original))

		annots := []*annotation.Annotation{
			textAnnot(1, 20, 300, "Approved"),
			textAnnot(2, 20, 300, "Checked"),
		}
		out, err := Export(original, annots)
		if err != nil {
			t.Fatal(err)
		}

		if !bytes.Equal(original, saved) {
			t.Fatal("original bytes were modified")
		}
		if !bytes.HasPrefix(out, original) {
			t.Error("output is not an incremental update of the original")
		}
		if d := cmp.Diff(sizes(load(t, original)), before); d != "" {
			t.Errorf("original changed (-got +want):\n%s", d)
		}
		exported := load(t, out)
		if d := cmp.Diff(sizes(exported), before); d != "" {
			t.Errorf("exported pages (-got +want):\n%s", d)
		}
		if got := exported.Reader().XRefIsStream(); got != compact {
			t.Errorf("compact=%t: update uses xref stream %t", compact, got)
		}
	}
}

func TestTextIsVisible(t *testing.T) {
	original := testpdf.Letter(2)
	a := textAnnot(1, 50, 700, "Approved")
	out, err := Export(original, []*annotation.Annotation{a})
	if err != nil {
		t.Fatal(err)
	}

	before, err := render.Render(load(t, original), 1, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	after, err := render.Render(load(t, out), 1, 1, nil)
	if err != nil {
		t.Fatal(err)
	}

	d := geometry.ToDevice(a.Anchor, 1, 792)
	area := image.Rect(int(d.X), int(d.Y)-12, int(d.X)+60, int(d.Y)+3)
	if n := darkPixels(before, area); n != 0 {
		t.Errorf("original has %d dark pixels near the anchor", n)
	}
	if n := darkPixels(after, area); n < 10 {
		t.Errorf("export has only %d dark pixels near the anchor", n)
	}

	// page 2 is untouched
	p2, _ := load(t, out).Page(2)
	p2orig, _ := load(t, original).Page(2)
	if d := cmp.Diff(p2.Dict, p2orig.Dict); d != "" {
		t.Errorf("page 2 changed (-got +want):\n%s", d)
	}
}

func TestHighlightPolicy(t *testing.T) {
	original := testpdf.Letter(1)
	annots := []*annotation.Annotation{highlightAnnot(1, 100, 600)}

	out, err := Export(original, annots)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, original) {
		t.Error("preview-only highlights changed the file")
	}

	out, err = ExportWith(original, annots, &Options{Highlights: HighlightsFlatten})
	if err != nil {
		t.Fatal(err)
	}
	doc := load(t, out)
	page, _ := doc.Page(1)
	contents, err := pdf.GetArray(doc.Reader(), page.Dict["Contents"])
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 3 {
		t.Fatalf("got %d content streams, want 3", len(contents))
	}
	if got := streamData(t, doc, contents[0]); string(got) != "q\n" {
		t.Errorf("prefix stream is %q", got)
	}

	states, _ := pdf.GetDict(doc.Reader(), page.Resources["ExtGState"])
	if len(states) != 1 {
		t.Fatalf("got %d ExtGState entries, want 1", len(states))
	}
	for _, obj := range states {
		gs, _ := pdf.GetDict(doc.Reader(), obj)
		ca, _ := pdf.GetNumber(doc.Reader(), gs["ca"])
		if ca != HighlightAlpha {
			t.Errorf("got /ca %g, want %g", ca, HighlightAlpha)
		}
	}

	img, err := render.Render(doc, 1, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	// 30% yellow over white
	c := img.RGBAAt(150, 792-610)
	if c.R != 255 || c.B < 190 || c.B > 201 {
		t.Errorf("highlight pixel is %v", c)
	}
}

func TestResourceNames(t *testing.T) {
	for _, nested := range []bool{false, true} {
		original := build(t, &testpdf.Options{Nested: nested},
			testpdf.Page{Content: "BT /F1 12 Tf 10 10 Td (x) Tj ET"},
			testpdf.Page{},
		)
		sig := &annotation.Annotation{
			Kind:    annotation.Signature,
			Page:    1,
			Anchor:  vec.Vec2{X: 100, Y: 100},
			Content: "Pedro Reyes",
			Style:   annotation.DefaultStyle(annotation.Signature),
		}
		out, err := Export(original, []*annotation.Annotation{sig, textAnnot(1, 100, 200, "Note")})
		if err != nil {
			t.Fatal(err)
		}

		doc := load(t, out)
		r := doc.Reader()
		page, _ := doc.Page(1)
		if _, ok := page.Dict["Resources"].(pdf.Dict); !ok {
			t.Fatalf("nested=%t: resources not materialized on the page", nested)
		}
		fonts, _ := pdf.GetDict(r, page.Resources["Font"])
		baseFonts := map[pdf.Name]pdf.Name{}
		for name, obj := range fonts {
			dict, _ := pdf.GetDict(r, obj)
			baseFonts[name], _ = pdf.GetName(r, dict["BaseFont"])
		}
		want := map[pdf.Name]pdf.Name{
			"F1": "Helvetica",
			"F2": "Times-Italic",
			"F3": "Helvetica",
		}
		if d := cmp.Diff(baseFonts, want); d != "" {
			t.Errorf("nested=%t: fonts (-got +want):\n%s", nested, d)
		}

		// the resources of other pages are unchanged
		page2, _ := doc.Page(2)
		fonts2, _ := pdf.GetDict(r, page2.Resources["Font"])
		if len(fonts2) != 1 {
			t.Errorf("nested=%t: page 2 has %d fonts", nested, len(fonts2))
		}
	}
}

func TestOverlayContent(t *testing.T) {
	original := build(t, nil, testpdf.Page{
		CropBox: &pdf.Rectangle{LLx: 50, LLy: 20, URx: 400, URy: 500},
	})
	a := textAnnot(1, 10, 10, "Café")
	a.Style.Color = color.NRGBA{R: 255, A: 255}
	out, err := Export(original, []*annotation.Annotation{a})
	if err != nil {
		t.Fatal(err)
	}

	doc := load(t, out)
	page, _ := doc.Page(1)
	contents, _ := pdf.GetArray(doc.Reader(), page.Dict["Contents"])
	ops, err := content.Parse(streamData(t, doc, contents[len(contents)-1]))
	if err != nil {
		t.Fatal(err)
	}

	var names []content.OpName
	var shown pdf.Object
	for _, op := range ops {
		names = append(names, op.Name)
		if op.Name == content.OpTextShow {
			shown = op.Args[0]
		}
	}
	wantNames := []content.OpName{"Q", "q", "cm", "rg", "BT", "Tf", "Td", "Tj", "ET", "Q"}
	if d := cmp.Diff(names, wantNames); d != "" {
		t.Errorf("operators (-got +want):\n%s", d)
	}
	if d := cmp.Diff(shown, pdf.Object(pdf.String("Caf\xe9"))); d != "" {
		t.Errorf("text (-got +want):\n%s", d)
	}
}

func TestEmbeddedFont(t *testing.T) {
	original := testpdf.Letter(1)
	a := textAnnot(1, 50, 700, "Łódź Ωμέγα")
	out, err := Export(original, []*annotation.Annotation{a, textAnnot(1, 50, 600, "plain")})
	if err != nil {
		t.Fatal(err)
	}

	doc := load(t, out)
	r := doc.Reader()
	page, _ := doc.Page(1)
	contents, _ := pdf.GetArray(r, page.Dict["Contents"])
	ops, err := content.Parse(streamData(t, doc, contents[len(contents)-1]))
	if err != nil {
		t.Fatal(err)
	}

	fonts, _ := pdf.GetDict(r, page.Resources["Font"])
	var shown []pdf.String
	var subtypes []pdf.Name
	for _, op := range ops {
		switch op.Name {
		case content.OpTextSetFont:
			name, _ := op.Args[0].(pdf.Name)
			dict, _ := pdf.GetDict(r, fonts[name])
			subtype, _ := pdf.GetName(r, dict["Subtype"])
			subtypes = append(subtypes, subtype)
		case content.OpTextShow:
			s, _ := op.Args[0].(pdf.String)
			shown = append(shown, s)
		}
	}
	if d := cmp.Diff(subtypes, []pdf.Name{"Type0", "Type1"}); d != "" {
		t.Errorf("font types (-got +want):\n%s", d)
	}
	if len(shown) != 2 {
		t.Fatalf("got %d strings, want 2", len(shown))
	}
	if len(shown[0]) != 2*utf8.RuneCountInString(a.Content) {
		t.Errorf("got %d bytes for %d runes", len(shown[0]), utf8.RuneCountInString(a.Content))
	}
	for i := 0; i+1 < len(shown[0]); i += 2 {
		if shown[0][i] == 0 && shown[0][i+1] == 0 {
			t.Errorf("rune %d is shown as .notdef", i/2)
		}
	}

	img, err := render.Render(doc, 1, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	d := geometry.ToDevice(a.Anchor, 1, 792)
	area := image.Rect(int(d.X), int(d.Y)-12, int(d.X)+80, int(d.Y)+4)
	if n := darkPixels(img, area); n < 20 {
		t.Errorf("embedded text has only %d dark pixels near the anchor", n)
	}
}

func TestStateIsolation(t *testing.T) {
	// The original content leaves a scaled CTM and a white fill colour.
	original := build(t, nil, testpdf.Page{
		MediaBox: &pdf.Rectangle{URx: 200, URy: 200},
		Content:  "q 3 0 0 3 0 0 cm 1 1 1 rg",
	})
	a := textAnnot(1, 10, 100, "HHH")
	out, err := Export(original, []*annotation.Annotation{a})
	if err != nil {
		t.Fatal(err)
	}
	img, err := render.Render(load(t, out), 1, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n := darkPixels(img, image.Rect(10, 88, 40, 100)); n < 10 {
		t.Errorf("text not drawn at the anchor (%d dark pixels)", n)
	}
}

func TestMissingPage(t *testing.T) {
	original := testpdf.Letter(1)
	out, err := Export(original, []*annotation.Annotation{textAnnot(5, 10, 10, "lost")})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, original) {
		t.Error("annotation for a missing page changed the file")
	}
}

func TestMalformed(t *testing.T) {
	_, err := Export([]byte("not a pdf"), nil)
	if err == nil {
		t.Error("malformed input accepted")
	}
}

func TestPageOrder(t *testing.T) {
	original := testpdf.Letter(2)
	annots := []*annotation.Annotation{
		textAnnot(2, 10, 10, "second"),
		textAnnot(1, 10, 10, "first"),
		textAnnot(2, 10, 30, "third"),
	}
	out, err := Export(original, annots)
	if err != nil {
		t.Fatal(err)
	}
	doc := load(t, out)

	var shown []string
	for p := 1; p <= 2; p++ {
		page, _ := doc.Page(p)
		contents, _ := pdf.GetArray(doc.Reader(), page.Dict["Contents"])
		ops, _ := content.Parse(streamData(t, doc, contents[len(contents)-1]))
		for _, op := range ops {
			if op.Name == content.OpTextShow {
				s, _ := op.Args[0].(pdf.String)
				shown = append(shown, string(s))
			}
		}
	}
	if d := cmp.Diff(shown, []string{"first", "second", "third"}); d != "" {
		t.Errorf("order (-got +want):\n%s", d)
	}
}

func streamData(t *testing.T, doc *document.Document, obj pdf.Object) []byte {
	t.Helper()
	stm, err := pdf.GetStream(doc.Reader(), obj)
	if err != nil {
		t.Fatal(err)
	}
	data, err := doc.Reader().DecodeStream(stm)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func darkPixels(img *image.RGBA, r image.Rectangle) int {
	n := 0
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := img.RGBAAt(x, y)
			if int(c.R)+int(c.G)+int(c.B) < 3*128 {
				n++
			}
		}
	}
	return n
}
