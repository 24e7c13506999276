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

package compose

import (
	"bytes"
	"errors"
	"image"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"seehuhn.de/go/xmp"

	"seehuhn.de/go/certpdf/document"
	"seehuhn.de/go/certpdf/font"
	"seehuhn.de/go/certpdf/graphics/content"
	"seehuhn.de/go/certpdf/pdf"
	"seehuhn.de/go/certpdf/render"
)

var (
	testDate = time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
	testNow  = time.Date(2025, time.March, 3, 10, 4, 5, 0, time.UTC)
)

func testOptions() *Options {
	return &Options{Now: func() time.Time { return testNow }}
}

func testRequest(signed bool) Request {
	return Request{
		MemoNo:   "NYK-JD-2025-003",
		Purpose:  "PHILHEALTH",
		CrewName: "Pedro Reyes",
		CrewID:   "NYC-2024-003",
		Signed:   signed,
		Date:     testDate,
	}
}

func TestGenerate(t *testing.T) {
	data, err := GenerateWith(testRequest(false), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Fatal("no output")
	}

	doc, err := document.Load(data)
	if err != nil {
		t.Fatal(err)
	}
	if doc.NumPages() != 1 {
		t.Fatalf("got %d pages, want 1", doc.NumPages())
	}
	if doc.Version() != pdf.V1_7 {
		t.Errorf("got version %s, want 1.7", doc.Version())
	}
	w, h, _ := doc.PageSize(1)
	if d := cmp.Diff([]float64{w, h}, []float64{595.276, 841.890}, cmpopts.EquateApprox(0, 1e-3)); d != "" {
		t.Errorf("page size (-got +want):\n%s", d)
	}
	if !doc.Reader().XRefIsStream() {
		t.Error("expected a cross-reference stream")
	}
}

func TestSignedWatermark(t *testing.T) {
	unsigned, err := GenerateWith(testRequest(false), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	signed, err := GenerateWith(testRequest(true), testOptions())
	if err != nil {
		t.Fatal(err)
	}

	if n := pageContent(t, unsigned); bytes.Contains(n, []byte("Digitally signed")) {
		t.Error("unsigned certificate has a watermark")
	}
	if n := pageContent(t, signed); !bytes.Contains(n, []byte("(Digitally signed) Tj")) {
		t.Error("signed certificate has no watermark")
	}

	imgU := renderPage(t, unsigned)
	imgS := renderPage(t, signed)
	if imgU.Bounds() != imgS.Bounds() {
		t.Fatal("page sizes differ")
	}

	// Both versions agree above the watermark, and only the signed version
	// has marks below the signature block.
	split := firstDifferentRow(imgU, imgS)
	if split < 0 {
		t.Fatal("signed and unsigned pages render identically")
	}
	if n := inkedPixels(imgU, image.Rect(0, split, imgU.Bounds().Dx(), imgU.Bounds().Dy())); n != 0 {
		t.Errorf("unsigned page has %d marked pixels below row %d", n, split)
	}
	if n := inkedPixels(imgS, image.Rect(0, split, imgS.Bounds().Dx(), imgS.Bounds().Dy())); n < 100 {
		t.Errorf("signed page has only %d marked pixels in the watermark area", n)
	}
}

func TestLongPurpose(t *testing.T) {
	req := testRequest(true)
	req.Purpose = strings.Repeat("PURPOSE ", 600)
	data, err := GenerateWith(req, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	doc, err := document.Load(data)
	if err != nil {
		t.Fatal(err)
	}
	n := doc.NumPages()
	if n < 2 {
		t.Fatalf("got %d pages, want at least 2", n)
	}

	var last []byte
	for i := 1; i <= n; i++ {
		_, height, _ := doc.PageSize(i)
		body := pageContentN(t, doc, i)
		ops, err := content.Parse(body)
		if err != nil {
			t.Fatal(err)
		}
		for _, op := range ops {
			if op.Name != content.OpTextMoveOffset || len(op.Args) != 2 {
				continue
			}
			y, _ := pdf.AsNumber(op.Args[1])
			if y < marginBottom || y > height {
				t.Errorf("page %d: baseline at y=%g is outside the text area", i, y)
			}
		}
		last = body
	}

	// The signatory block and the watermark end up on the last page.
	for _, want := range []string{"(Authorized Signatory) Tj", "(Digitally signed) Tj"} {
		if !bytes.Contains(last, []byte(want)) {
			t.Errorf("last page does not contain %q", want)
		}
	}
}

// TestRenderTime checks that previews of a certificate are fast enough
// for interactive use.
func TestNonWinAnsiName(t *testing.T) {
	req := testRequest(false)
	req.CrewName = "Łukasz Wójcik"
	data, err := GenerateWith(req, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	doc, err := document.Load(data)
	if err != nil {
		t.Fatal(err)
	}
	r := doc.Reader()

	p, _ := doc.Page(1)
	fonts, _ := pdf.GetDict(r, p.Resources["Font"])
	var subtypes []string
	for _, obj := range fonts {
		dict, _ := pdf.GetDict(r, obj)
		subtype, _ := pdf.GetName(r, dict["Subtype"])
		subtypes = append(subtypes, string(subtype))
	}
	if !slices.Contains(subtypes, "Type0") {
		t.Errorf("no embedded font in %q", subtypes)
	}

	ops, err := content.Parse(pageContentN(t, doc, 1))
	if err != nil {
		t.Fatal(err)
	}
	for _, op := range ops {
		if op.Name != content.OpTextShow {
			continue
		}
		s, _ := op.Args[0].(pdf.String)
		if bytes.Contains(s, []byte("?")) {
			t.Errorf("replacement character in %q", s)
		}
	}

	img := renderPage(t, data)
	if n := inkedPixels(img, img.Bounds()); n == 0 {
		t.Error("page is blank")
	}
}

func TestRenderTime(t *testing.T) {
	data, err := GenerateWith(testRequest(true), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	doc, err := document.Load(data)
	if err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	for _, scale := range []float64{1.5, 3} {
		_, err := render.Render(doc, 1, scale, nil)
		if err != nil {
			t.Fatal(err)
		}
	}
	if d := time.Since(start); d > 2*time.Second {
		t.Errorf("rendering took %s", d)
	}
}

func TestValidation(t *testing.T) {
	cases := []struct {
		req  Request
		want []string
	}{
		{Request{MemoNo: "X", Purpose: "VISA", CrewName: "", CrewID: "NYC-1"}, []string{"CrewName"}},
		{Request{CrewName: "Ana Cruz", CrewID: "  "}, []string{"CrewID"}},
		{Request{Signed: true}, []string{"CrewName", "CrewID"}},
	}
	for _, c := range cases {
		data, err := Generate(c.req)
		if data != nil {
			t.Errorf("%v: output produced", c.req)
		}
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("%v: got %v, want ValidationError", c.req, err)
			continue
		}
		if d := cmp.Diff(vErr.Fields, c.want); d != "" {
			t.Errorf("fields (-got +want):\n%s", d)
		}
	}
}

func TestDeterministic(t *testing.T) {
	a, err := GenerateWith(testRequest(true), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	b, err := GenerateWith(testRequest(true), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("output is not deterministic")
	}
}

func TestInfo(t *testing.T) {
	req := testRequest(false)
	data, err := GenerateWith(req, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	doc, err := document.Load(data)
	if err != nil {
		t.Fatal(err)
	}
	info, err := doc.Info()
	if err != nil {
		t.Fatal(err)
	}
	want := &document.Info{
		Title:        "Certification NYK-JD-2025-003",
		Subject:      "Crew certificate for Pedro Reyes (NYC-2024-003), PHILHEALTH",
		Author:       "Crew Management Office",
		Creator:      "Authorized Signatory",
		Producer:     producer,
		CreationDate: testNow,
	}
	if d := cmp.Diff(info, want); d != "" {
		t.Errorf("info (-got +want):\n%s", d)
	}

	packet, err := doc.Metadata()
	if err != nil {
		t.Fatal(err)
	}
	if packet == nil {
		t.Fatal("no XMP metadata")
	}
	var got xmp.DublinCore
	packet.Get(&got)
	o := withDefaults(nil)
	if d := cmp.Diff(got, *dublinCore(&req, o)); d != "" {
		t.Errorf("Dublin Core (-got +want):\n%s", d)
	}
}

func TestOptions(t *testing.T) {
	req := testRequest(false)
	req.Signatory = "Maria Santos"
	opt := &Options{
		Letterhead: []string{"Example Shipping"},
		PageSize:   document.Letter,
		Now:        func() time.Time { return testNow },
	}
	data, err := GenerateWith(req, opt)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := document.Load(data)
	if err != nil {
		t.Fatal(err)
	}
	w, h, _ := doc.PageSize(1)
	if w != 612 || h != 792 {
		t.Errorf("got page size %gx%g, want Letter", w, h)
	}
	body := pageContent(t, data)
	for _, s := range []string{"(Example Shipping) Tj", "(Maria Santos) Tj", "(Crew Manager) Tj"} {
		if !bytes.Contains(body, []byte(s)) {
			t.Errorf("missing %q", s)
		}
	}
}

func TestDefaultDate(t *testing.T) {
	req := testRequest(false)
	req.Date = time.Time{}
	data, err := GenerateWith(req, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	body := pageContent(t, data)
	for _, s := range []string{"(Date: March 3, 2025) Tj", "(Issued this 3rd day of March 2025.) Tj"} {
		if !bytes.Contains(body, []byte(s)) {
			t.Errorf("missing %q", s)
		}
	}
}

func TestWrap(t *testing.T) {
	face := font.Substitute(font.Helvetica)
	text := "This is to certify that the crew member named below is duly registered."
	width := face.TextWidth("This is to certify that", 10)

	lines := wrap(face, text, 10, width)
	if len(lines) < 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	if lines[0] != "This is to certify that" {
		t.Errorf("first line is %q", lines[0])
	}
	for _, line := range lines {
		if w := face.TextWidth(line, 10); w > width && strings.Contains(line, " ") {
			t.Errorf("line %q is too wide (%g > %g)", line, w, width)
		}
	}

	if got := wrap(face, "   ", 10, 100); got != nil {
		t.Errorf("blank text gave %q", got)
	}
	if got := wrap(face, "supercalifragilistic", 10, 5); len(got) != 1 {
		t.Errorf("long word gave %q", got)
	}
}

func TestOrdinalSuffix(t *testing.T) {
	cases := map[int]string{
		1: "st", 2: "nd", 3: "rd", 4: "th", 11: "th", 12: "th", 13: "th",
		21: "st", 22: "nd", 23: "rd", 30: "th", 31: "st",
	}
	for day, want := range cases {
		if got := ordinalSuffix(day); got != want {
			t.Errorf("%d: got %q, want %q", day, got, want)
		}
	}
}

// pageContent returns the decoded content stream of the first page.
func pageContent(t *testing.T, data []byte) []byte {
	t.Helper()
	doc, err := document.Load(data)
	if err != nil {
		t.Fatal(err)
	}
	return pageContentN(t, doc, 1)
}

func pageContentN(t *testing.T, doc *document.Document, n int) []byte {
	t.Helper()
	p, _ := doc.Page(n)
	r := doc.Reader()
	stm, err := pdf.GetStream(r, p.Dict["Contents"])
	if err != nil {
		t.Fatal(err)
	}
	body, err := r.DecodeStream(stm)
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func renderPage(t *testing.T, data []byte) *image.RGBA {
	t.Helper()
	doc, err := document.Load(data)
	if err != nil {
		t.Fatal(err)
	}
	img, err := render.Render(doc, 1, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	return img
}

// firstDifferentRow returns the first pixel row where a and b differ, or
// -1 if the images are equal.
func firstDifferentRow(a, b *image.RGBA) int {
	for y := 0; y < a.Bounds().Dy(); y++ {
		i := y * a.Stride
		if !bytes.Equal(a.Pix[i:i+a.Stride], b.Pix[i:i+b.Stride]) {
			return y
		}
	}
	return -1
}

func inkedPixels(img *image.RGBA, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := img.RGBAAt(x, y)
			if c.R != 255 || c.G != 255 || c.B != 255 {
				n++
			}
		}
	}
	return n
}
