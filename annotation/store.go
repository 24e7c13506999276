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

package annotation

import (
	"slices"

	"seehuhn.de/go/geom/vec"
)

// Store holds the annotations of one editing session.  Annotations are
// addressed by ID, and the annotations of each page are kept in insertion
// order, which is also the painting order.
//
// All methods return copies of the stored annotations, so that callers
// cannot modify the Store by accident.  A Store is not safe for concurrent
// use.
type Store struct {
	slots map[ID]*Annotation

	// pages lists the IDs of the annotations of each page in insertion
	// order.  Removed IDs stay in the list until the next compaction.
	pages map[int][]ID
	dead  map[int]int
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		slots: make(map[ID]*Annotation),
		pages: make(map[int][]ID),
		dead:  make(map[int]int),
	}
}

// Insert adds a new annotation and returns its ID.  The extent may be nil
// for point annotations.
func (s *Store) Insert(kind Kind, page int, anchor vec.Vec2, extent *vec.Vec2, content string, style Style) ID {
	id := nextID()
	a := &Annotation{
		ID:      id,
		Kind:    kind,
		Page:    page,
		Anchor:  anchor,
		Content: content,
		Style:   style,
	}
	if extent != nil {
		ext := *extent
		a.Extent = &ext
	}
	s.slots[id] = a
	s.pages[page] = append(s.pages[page], id)
	return id
}

// Remove deletes the annotation with the given ID.  Removing an unknown ID
// has no effect.
func (s *Store) Remove(id ID) {
	a, ok := s.slots[id]
	if !ok {
		return
	}
	delete(s.slots, id)

	page := a.Page
	s.dead[page]++
	if ids := s.pages[page]; 2*s.dead[page] > len(ids) {
		s.pages[page] = slices.DeleteFunc(ids, func(other ID) bool {
			_, alive := s.slots[other]
			return !alive
		})
		s.dead[page] = 0
		if len(s.pages[page]) == 0 {
			delete(s.pages, page)
			delete(s.dead, page)
		}
	}
}

// Get returns a copy of the annotation with the given ID.
func (s *Store) Get(id ID) (*Annotation, bool) {
	a, ok := s.slots[id]
	if !ok {
		return nil, false
	}
	return a.Clone(), true
}

// Len returns the number of annotations in the Store.
func (s *Store) Len() int {
	return len(s.slots)
}

// ListForPage returns the annotations of the given page, in insertion order.
// Every call returns a new slice.
func (s *Store) ListForPage(page int) []*Annotation {
	ids := s.pages[page]
	res := make([]*Annotation, 0, len(ids)-s.dead[page])
	for _, id := range ids {
		if a, ok := s.slots[id]; ok {
			res = append(res, a.Clone())
		}
	}
	return res
}

// All returns all annotations, ordered by page and then by insertion order.
func (s *Store) All() []*Annotation {
	pages := make([]int, 0, len(s.pages))
	for page := range s.pages {
		pages = append(pages, page)
	}
	slices.Sort(pages)

	res := make([]*Annotation, 0, len(s.slots))
	for _, page := range pages {
		res = append(res, s.ListForPage(page)...)
	}
	return res
}
