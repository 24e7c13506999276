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

package certpdf

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/certpdf/annotation"
	"seehuhn.de/go/certpdf/compose"
	"seehuhn.de/go/certpdf/document"
	"seehuhn.de/go/certpdf/geometry"
	"seehuhn.de/go/certpdf/internal/testpdf"
)

func loaded(t *testing.T, pages int) *Session {
	t.Helper()
	s := NewSession(nil)
	err := s.Load(testpdf.Letter(pages))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestAnnotationLifecycle(t *testing.T) {
	s := loaded(t, 2)
	s.SetTool(ToolText)

	req := s.OnPointerClick(vec.Vec2{X: 50, Y: 50})
	if req == nil {
		t.Fatal("no content request")
	}
	id, ok := req.Complete("Approved")
	if !ok {
		t.Fatal("annotation not created")
	}

	p1 := s.Store().ListForPage(1)
	if len(p1) != 1 {
		t.Fatalf("page 1 has %d annotations, want 1", len(p1))
	}
	if p1[0].ID != id || p1[0].Kind != annotation.Text || p1[0].Content != "Approved" {
		t.Errorf("unexpected annotation %+v", p1[0])
	}
	if n := len(s.Store().ListForPage(2)); n != 0 {
		t.Errorf("page 2 has %d annotations, want 0", n)
	}

	want := geometry.ToDocument(vec.Vec2{X: 50, Y: 50}, DefaultScale, 792)
	if d := cmp.Diff(p1[0].Anchor, want, cmpopts.EquateApprox(0, 1e-9)); d != "" {
		t.Errorf("anchor (-got +want):\n%s", d)
	}

	s.RemoveAnnotation(id)
	if s.Store().Len() != 0 {
		t.Error("annotation not removed")
	}
}

func TestZoomInvariance(t *testing.T) {
	s := loaded(t, 1)
	const h = 792.0
	d1 := vec.Vec2{X: 120, Y: 300}

	s.SetScale(1)
	s.SetTool(ToolHighlight)
	if req := s.OnPointerClick(d1); req != nil {
		t.Fatal("highlight tool returned a content request")
	}
	s.SetScale(2)

	a := s.Annotations()[0]
	got := geometry.ToDevice(a.Anchor, s.View().Scale, h)
	want := geometry.ToDevice(geometry.ToDocument(d1, 1, h), 2, h)
	if d := cmp.Diff(got, want, cmpopts.EquateApprox(0, 1e-9)); d != "" {
		t.Errorf("device position (-got +want):\n%s", d)
	}
	if d := cmp.Diff(*a.Extent, annotation.HighlightExtent); d != "" {
		t.Errorf("extent (-got +want):\n%s", d)
	}

	// The highlight extends up and to the right of the click position.
	img, err := s.Render()
	if err != nil {
		t.Fatal(err)
	}
	c := img.RGBAAt(int(want.X)+10, int(want.Y)-10)
	if c.R != 255 || c.B > 220 {
		t.Errorf("no highlight at the expected position: %v", c)
	}
	c = img.RGBAAt(int(want.X)-10, int(want.Y)+10)
	if c.B != 255 {
		t.Errorf("highlight below the click position: %v", c)
	}
}

func TestReadOnly(t *testing.T) {
	s := loaded(t, 1)

	s.SetTool(ToolText)
	pending := s.OnPointerClick(vec.Vec2{X: 10, Y: 10})

	s.SetReadOnly(true)
	for _, tool := range []Tool{ToolSelect, ToolText, ToolHighlight, ToolSignature} {
		s.SetTool(tool)
		if req := s.OnPointerClick(vec.Vec2{X: 100, Y: 100}); req != nil {
			t.Errorf("%s: got a content request in read-only mode", tool)
		}
	}
	if _, ok := pending.Complete("late"); ok {
		t.Error("request completed in read-only mode")
	}
	if n := s.Store().Len(); n != 0 {
		t.Errorf("store has %d annotations", n)
	}

	s.SetReadOnly(false)
	s.SetTool(ToolHighlight)
	s.OnPointerClick(vec.Vec2{X: 100, Y: 100})
	id := s.Annotations()[0].ID
	s.SetReadOnly(true)
	s.RemoveAnnotation(id)
	if s.Store().Len() != 1 {
		t.Error("annotation removed in read-only mode")
	}
}

func TestMalformedLoad(t *testing.T) {
	s := loaded(t, 2)
	s.SetPage(2)
	s.SetScale(2)
	s.SetTool(ToolHighlight)
	s.OnPointerClick(vec.Vec2{X: 10, Y: 10})

	doc := s.Document()
	view := s.View()

	err := s.Load(nil)
	if !errors.Is(err, document.ErrMalformed) {
		t.Fatalf("got %v, want a malformed error", err)
	}
	var pErr *document.ParseError
	if !errors.As(err, &pErr) {
		t.Errorf("got %T, want *document.ParseError", err)
	}

	if s.Document() != doc {
		t.Error("document replaced")
	}
	if d := cmp.Diff(s.View(), view); d != "" {
		t.Errorf("view state changed (-got +want):\n%s", d)
	}
	if s.Store().Len() != 1 {
		t.Error("annotations lost")
	}
}

func TestContentRequest(t *testing.T) {
	var seen []*ContentRequest
	s := NewSession(&Options{
		OnContentNeeded: func(r *ContentRequest) { seen = append(seen, r) },
	})
	err := s.Load(testpdf.Letter(1))
	if err != nil {
		t.Fatal(err)
	}
	s.SetTool(ToolSignature)

	r1 := s.OnPointerClick(vec.Vec2{X: 10, Y: 10})
	if len(seen) != 1 || seen[0] != r1 {
		t.Fatal("callback not invoked with the request")
	}
	if r1.Kind != annotation.Signature || r1.Page != 1 {
		t.Errorf("unexpected draft %+v", r1)
	}
	if _, ok := r1.Complete("Pedro Reyes"); !ok {
		t.Error("first completion failed")
	}
	if _, ok := r1.Complete("again"); ok {
		t.Error("request resolved twice")
	}

	r2 := s.OnPointerClick(vec.Vec2{X: 10, Y: 10})
	if _, ok := r2.Complete("   "); ok {
		t.Error("blank content created an annotation")
	}
	if !r2.Done() {
		t.Error("blank completion did not resolve the request")
	}

	r3 := s.OnPointerClick(vec.Vec2{X: 10, Y: 10})
	r3.Cancel()
	if _, ok := r3.Complete("x"); ok {
		t.Error("cancelled request completed")
	}

	r4 := s.OnPointerClick(vec.Vec2{X: 10, Y: 10})
	err = s.Load(testpdf.Letter(1))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r4.Complete("stale"); ok {
		t.Error("request completed after loading a new document")
	}

	if n := s.Store().Len(); n != 0 {
		t.Errorf("new document has %d annotations", n)
	}
}

func TestViewState(t *testing.T) {
	s := NewSession(nil)
	if got := s.View(); got.Page != 0 || got.Scale != DefaultScale {
		t.Errorf("initial view %+v", got)
	}
	if req := s.OnPointerClick(vec.Vec2{}); req != nil {
		t.Error("click without a document")
	}

	err := s.Load(testpdf.Letter(3))
	if err != nil {
		t.Fatal(err)
	}

	type step struct {
		do   func()
		page int
	}
	steps := []step{
		{func() {}, 1},
		{s.PrevPage, 1},
		{s.NextPage, 2},
		{s.NextPage, 3},
		{s.NextPage, 3},
		{func() { s.SetPage(-5) }, 1},
		{func() { s.SetPage(99) }, 3},
	}
	for i, st := range steps {
		st.do()
		if got := s.View().Page; got != st.page {
			t.Errorf("step %d: page %d, want %d", i, got, st.page)
		}
	}

	s.SetScale(2.9)
	s.ZoomIn()
	if got := s.View().Scale; got != geometry.MaxScale {
		t.Errorf("scale %g, want %g", got, geometry.MaxScale)
	}
	s.SetScale(0.1)
	if got := s.View().Scale; got != geometry.MinScale {
		t.Errorf("scale %g, want %g", got, geometry.MinScale)
	}
	s.ZoomIn()
	if got := s.View().Scale; got != 0.75 {
		t.Errorf("scale %g, want 0.75", got)
	}
	s.ZoomOut()
	s.ZoomOut()
	if got := s.View().Scale; got != geometry.MinScale {
		t.Errorf("scale %g, want %g", got, geometry.MinScale)
	}

	s.SetTool(ToolSignature)
	s.SetTool(Tool(42))
	if got := s.View().Tool; got != ToolSignature {
		t.Errorf("tool %s, want signature", got)
	}
}

func TestExport(t *testing.T) {
	s := loaded(t, 2)
	original := s.Document().Bytes()

	s.SetTool(ToolText)
	s.OnPointerClick(vec.Vec2{X: 100, Y: 100}).Complete("Checked")
	s.SetTool(ToolHighlight)
	s.OnPointerClick(vec.Vec2{X: 100, Y: 200})

	before := s.Annotations()
	out, annots, err := s.Export()
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(annots, before); d != "" {
		t.Errorf("annotations (-got +want):\n%s", d)
	}
	if s.Store().Len() != 2 {
		t.Error("export changed the store")
	}

	doc, err := document.Load(out)
	if err != nil {
		t.Fatal(err)
	}
	if doc.NumPages() != 2 {
		t.Errorf("exported document has %d pages", doc.NumPages())
	}
	if !bytes.Equal(s.Document().Bytes(), original) {
		t.Error("document bytes changed")
	}
}

func TestGenerate(t *testing.T) {
	s := NewSession(nil)
	data, err := s.Generate(compose.Request{
		MemoNo:   "NYK-JD-2025-003",
		Purpose:  "PHILHEALTH",
		CrewName: "Pedro Reyes",
		CrewID:   "NYC-2024-003",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 || s.Document() == nil || s.Document().NumPages() != 1 {
		t.Fatal("certificate not loaded")
	}

	doc := s.Document()
	_, err = s.Generate(compose.Request{CrewID: "NYC-1"})
	var vErr *compose.ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("got %v, want a validation error", err)
	}
	if s.Document() != doc {
		t.Error("failed generation replaced the document")
	}
}

func TestNoDocument(t *testing.T) {
	s := NewSession(nil)
	if _, err := s.Render(); !errors.Is(err, ErrNoDocument) {
		t.Errorf("Render: got %v", err)
	}
	if _, _, err := s.Export(); !errors.Is(err, ErrNoDocument) {
		t.Errorf("Export: got %v", err)
	}
	s.SetPage(3)
	if s.View().Page != 0 {
		t.Error("page set without a document")
	}
}
