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
	"errors"
	"fmt"
	"image"

	"seehuhn.de/go/certpdf/annotation"
	"seehuhn.de/go/certpdf/compose"
	"seehuhn.de/go/certpdf/document"
	"seehuhn.de/go/certpdf/flatten"
	"seehuhn.de/go/certpdf/geometry"
	"seehuhn.de/go/certpdf/render"
)

// ErrNoDocument is returned by operations which need a loaded document.
var ErrNoDocument = errors.New("no document loaded")

// DefaultScale is the zoom factor after a document is loaded.
const DefaultScale = 1.5

// Tool is the editing tool which handles pointer clicks.
type Tool int

// These are the available tools.
const (
	ToolSelect Tool = iota
	ToolText
	ToolHighlight
	ToolSignature
)

func (t Tool) String() string {
	switch t {
	case ToolSelect:
		return "select"
	case ToolText:
		return "text"
	case ToolHighlight:
		return "highlight"
	case ToolSignature:
		return "signature"
	default:
		return fmt.Sprintf("Tool(%d)", int(t))
	}
}

// ViewState describes how the document is presented.
type ViewState struct {
	// Page is the current page, starting at 1.  This is 0 if the
	// document has no pages.
	Page int

	// Scale is the zoom factor, in the range [geometry.MinScale,
	// geometry.MaxScale].
	Scale float64

	Tool     Tool
	ReadOnly bool
}

// Options configure a [Session].
type Options struct {
	// OnContentNeeded, if set, is called when a click with the text or
	// signature tool needs the operator to supply the annotation text.
	// The function is called before OnPointerClick returns.
	OnContentNeeded func(*ContentRequest)

	// Highlights determines whether Export writes highlight annotations.
	Highlights flatten.HighlightPolicy
}

// Session is an editing session for one document at a time.
type Session struct {
	opt   Options
	doc   *document.Document
	store *annotation.Store
	view  ViewState

	// generation changes whenever a new document is loaded.  This is used
	// to invalidate outstanding content requests.
	generation uint64
}

// NewSession creates a session without a document.
func NewSession(opt *Options) *Session {
	s := &Session{
		store: annotation.NewStore(),
		view:  ViewState{Scale: DefaultScale},
	}
	if opt != nil {
		s.opt = *opt
	}
	return s
}

// Load replaces the current document.  All annotations are discarded and
// the view state is reset.  If the data cannot be parsed, the error is a
// [*document.ParseError] and the session is left unchanged.
func (s *Session) Load(data []byte) error {
	doc, err := document.Load(data)
	if err != nil {
		return err
	}

	s.doc = doc
	s.store = annotation.NewStore()
	s.view = ViewState{Scale: DefaultScale}
	if doc.NumPages() > 0 {
		s.view.Page = 1
	}
	s.generation++
	return nil
}

// Generate creates a certificate and loads it into the session.  On error,
// the session is left unchanged.
func (s *Session) Generate(req compose.Request) ([]byte, error) {
	data, err := compose.Generate(req)
	if err != nil {
		return nil, err
	}
	err = s.Load(data)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Document returns the current document, or nil if none is loaded.
func (s *Session) Document() *document.Document {
	return s.doc
}

// View returns the current view state.
func (s *Session) View() ViewState {
	return s.view
}

// Store returns the annotations of the current document.
func (s *Session) Store() *annotation.Store {
	return s.store
}

// Annotations returns all annotations, ordered by page and then by
// insertion order.
func (s *Session) Annotations() []*annotation.Annotation {
	return s.store.All()
}

// SetPage changes the current page.  The page number is clamped to the
// range of valid pages.
func (s *Session) SetPage(p int) {
	if s.doc == nil || s.doc.NumPages() == 0 {
		return
	}
	s.view.Page = min(max(p, 1), s.doc.NumPages())
}

// NextPage moves to the next page, if there is one.
func (s *Session) NextPage() {
	s.SetPage(s.view.Page + 1)
}

// PrevPage moves to the previous page, if there is one.
func (s *Session) PrevPage() {
	s.SetPage(s.view.Page - 1)
}

// SetScale changes the zoom factor.  The value is clamped to the range
// [geometry.MinScale, geometry.MaxScale].
func (s *Session) SetScale(scale float64) {
	s.view.Scale = geometry.ClampScale(scale)
}

// ZoomIn increases the zoom factor by one step.
func (s *Session) ZoomIn() {
	s.SetScale(s.view.Scale + geometry.ZoomStep)
}

// ZoomOut decreases the zoom factor by one step.
func (s *Session) ZoomOut() {
	s.SetScale(s.view.Scale - geometry.ZoomStep)
}

// SetTool selects the tool used for pointer clicks.
func (s *Session) SetTool(t Tool) {
	if t < ToolSelect || t > ToolSignature {
		return
	}
	s.view.Tool = t
}

// SetReadOnly enables or disables read-only mode.  In read-only mode,
// annotations cannot be added or removed.
func (s *Session) SetReadOnly(readOnly bool) {
	s.view.ReadOnly = readOnly
}

// RemoveAnnotation deletes an annotation.  Unknown IDs are ignored, and
// nothing is removed in read-only mode.
func (s *Session) RemoveAnnotation(id annotation.ID) {
	if s.view.ReadOnly {
		return
	}
	s.store.Remove(id)
}

// Render draws the current page at the current zoom factor, together with
// its annotations.
func (s *Session) Render() (*image.RGBA, error) {
	if s.doc == nil {
		return nil, ErrNoDocument
	}
	p := s.view.Page
	return render.Render(s.doc, p, s.view.Scale, s.store.ListForPage(p))
}

// Export writes the annotations into a copy of the document.  The
// annotations stay in the session, so that editing can continue.  The
// second return value is the current list of annotations.
func (s *Session) Export() ([]byte, []*annotation.Annotation, error) {
	if s.doc == nil {
		return nil, nil, ErrNoDocument
	}
	annots := s.store.All()
	out, err := flatten.ExportWith(s.doc.Bytes(), annots, &flatten.Options{
		Highlights: s.opt.Highlights,
	})
	if err != nil {
		return nil, nil, err
	}
	return out, annots, nil
}
