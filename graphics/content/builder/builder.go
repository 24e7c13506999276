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

package builder

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"seehuhn.de/go/certpdf/graphics/content"
	"seehuhn.de/go/certpdf/pdf"
)

// Builder accumulates the operators of a content stream.
type Builder struct {
	Stream content.Stream

	// Resources is the resource dictionary for the content stream.  It is
	// filled in as fonts and other resources are used.
	Resources pdf.Dict

	Err error

	state  gState
	stack  []gState
	inText bool

	resName map[resKey]pdf.Name
}

// gState holds the parts of the graphics state which are used to elide
// redundant operators.  A zero field means "unknown".
type gState struct {
	fill      *[3]float64
	stroke    *[3]float64
	lineWidth float64
	hasWidth  bool
	font      pdf.Name
	fontSize  float64
}

// resKey identifies a resource for deduplication purposes.
type resKey struct {
	category pdf.Name
	obj      string
}

// New returns a new Builder with an empty stream.
func New() *Builder {
	return &Builder{
		Resources: pdf.Dict{},
		resName:   make(map[resKey]pdf.Name),
	}
}

// emit appends an operator to the stream.
func (b *Builder) emit(name content.OpName, args ...pdf.Object) {
	if b.Err != nil {
		return
	}
	b.Stream = append(b.Stream, content.Operator{Name: name, Args: args})
}

// Harvest returns the content stream built so far and clears it.  An error
// is returned if an error occurred while building the stream, or if q/Q or
// BT/ET operators are unbalanced.
func (b *Builder) Harvest() (content.Stream, error) {
	if b.Err != nil {
		return nil, b.Err
	}
	if len(b.stack) > 0 {
		return nil, fmt.Errorf("%d unclosed graphics states", len(b.stack))
	}
	if b.inText {
		return nil, errors.New("unclosed text object")
	}
	res := b.Stream
	b.Stream = nil
	return res, nil
}

// Build runs buildFunc to populate the stream, and returns the result.
// On error, nil is returned and the error is stored in b.Err.
func (b *Builder) Build(buildFunc func(b *Builder) error) content.Stream {
	if b.Err != nil {
		return nil
	}
	if err := buildFunc(b); err != nil {
		b.Err = err
		return nil
	}
	res, err := b.Harvest()
	if err != nil {
		b.Err = err
		return nil
	}
	return res
}

// resource returns the name under which obj is available in the given
// category of the resource dictionary.  New names are allocated as needed.
func (b *Builder) resource(category, prefix pdf.Name, obj pdf.Object) pdf.Name {
	key := resKey{category: category, obj: pdf.Format(obj)}
	if name, ok := b.resName[key]; ok {
		return name
	}

	dict, _ := b.Resources[category].(pdf.Dict)
	if dict == nil {
		dict = pdf.Dict{}
		b.Resources[category] = dict
	}
	name := allocateName(prefix, dict)
	dict[name] = obj
	b.resName[key] = name
	return name
}

func nearlyEqual(a, b float64) bool {
	const ε = 1e-6
	return math.Abs(a-b) < ε
}

// allocateName generates a new unique name with the given prefix in the dict.
func allocateName[T any](prefix pdf.Name, dict map[pdf.Name]T) pdf.Name {
	for i := 1; ; i++ {
		name := pdf.Name(string(prefix) + strconv.Itoa(i))
		if _, exists := dict[name]; !exists {
			return name
		}
	}
}
