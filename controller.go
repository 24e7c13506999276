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
	"strings"

	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/certpdf/annotation"
	"seehuhn.de/go/certpdf/geometry"
)

// ContentRequest is a pending text or signature annotation which waits
// for the operator to supply its content.
//
// A request is resolved by calling either Complete or Cancel.  Only the
// first of these calls has an effect.
type ContentRequest struct {
	Kind   annotation.Kind
	Page   int
	Anchor vec.Vec2 // document space

	s          *Session
	generation uint64
	done       bool
}

// Complete adds the annotation with the given text.  The text is trimmed
// of surrounding white space.  No annotation is created if the text is
// empty, if the request was already resolved, or if the session has since
// loaded another document, switched to read-only mode, or no longer has
// the page.  The return value reports whether an annotation was created.
func (r *ContentRequest) Complete(text string) (annotation.ID, bool) {
	if r.done {
		return 0, false
	}
	r.done = true

	text = strings.TrimSpace(text)
	if text == "" || !r.valid() {
		return 0, false
	}
	id := r.s.store.Insert(r.Kind, r.Page, r.Anchor, nil, text, annotation.DefaultStyle(r.Kind))
	return id, true
}

// Cancel discards the request.
func (r *ContentRequest) Cancel() {
	r.done = true
}

// Done reports whether the request has been resolved.
func (r *ContentRequest) Done() bool {
	return r.done
}

func (r *ContentRequest) valid() bool {
	s := r.s
	return s.generation == r.generation &&
		!s.view.ReadOnly &&
		s.doc != nil &&
		r.Page >= 1 && r.Page <= s.doc.NumPages()
}

// OnPointerClick handles a click at the device position d on the current
// page, using the active tool.
//
// The highlight tool adds an annotation immediately.  The text and
// signature tools return a [ContentRequest], which must be completed to
// create the annotation.  In all other cases, and in read-only mode, the
// click is ignored and nil is returned.
func (s *Session) OnPointerClick(d vec.Vec2) *ContentRequest {
	if s.view.ReadOnly || s.doc == nil {
		return nil
	}
	page := s.view.Page
	_, h, ok := s.doc.PageSize(page)
	if !ok {
		return nil
	}
	p := geometry.ToDocument(d, s.view.Scale, h)

	switch s.view.Tool {
	case ToolHighlight:
		// The click marks the lower left corner of the highlighted area.
		ext := annotation.HighlightExtent
		s.store.Insert(annotation.Highlight, page, p, &ext, "",
			annotation.DefaultStyle(annotation.Highlight))
		return nil

	case ToolText, ToolSignature:
		kind := annotation.Text
		if s.view.Tool == ToolSignature {
			kind = annotation.Signature
		}
		req := &ContentRequest{
			Kind:       kind,
			Page:       page,
			Anchor:     p,
			s:          s,
			generation: s.generation,
		}
		if s.opt.OnContentNeeded != nil {
			s.opt.OnContentNeeded(req)
		}
		return req
	}
	return nil
}
