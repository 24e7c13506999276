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
)

// Getter represents a source of indirect objects.
type Getter interface {
	Get(ref Reference) (Object, error)
}

// maxRefDepth limits the length of reference chains.
const maxRefDepth = 16

var errNoGetter = errors.New("cannot resolve references without a reader")

// Resolve resolves references to indirect objects.
//
// If obj is a [Reference], the function reads the corresponding object using
// r and returns the result.  Otherwise, obj is returned unchanged.
func Resolve(r Getter, obj Object) (Object, error) {
	for range maxRefDepth {
		ref, isRef := obj.(Reference)
		if !isRef {
			return obj, nil
		}
		if r == nil {
			return nil, errNoGetter
		}
		var err error
		obj, err = r.Get(ref)
		if err != nil {
			return nil, err
		}
	}
	if _, isRef := obj.(Reference); isRef {
		return nil, &MalformedFileError{Err: errors.New("reference chain too long")}
	}
	return obj, nil
}

func typeError(expected string, obj Object) error {
	return &MalformedFileError{
		Err: fmt.Errorf("expected %s but got %T", expected, obj),
	}
}

// GetDict resolves references to indirect objects and makes sure the
// resulting object is a dictionary.  A null object gives a nil Dict.
func GetDict(r Getter, obj Object) (Dict, error) {
	obj, err := Resolve(r, obj)
	if err != nil || obj == nil {
		return nil, err
	}
	switch x := obj.(type) {
	case Dict:
		return x, nil
	case *Stream:
		return x.Dict, nil
	}
	return nil, typeError("Dict", obj)
}

// GetStream resolves references to indirect objects and makes sure the
// resulting object is a stream.
func GetStream(r Getter, obj Object) (*Stream, error) {
	obj, err := Resolve(r, obj)
	if err != nil || obj == nil {
		return nil, err
	}
	x, ok := obj.(*Stream)
	if !ok {
		return nil, typeError("Stream", obj)
	}
	return x, nil
}

// GetArray resolves references to indirect objects and makes sure the
// resulting object is an array.
func GetArray(r Getter, obj Object) (Array, error) {
	obj, err := Resolve(r, obj)
	if err != nil || obj == nil {
		return nil, err
	}
	x, ok := obj.(Array)
	if !ok {
		return nil, typeError("Array", obj)
	}
	return x, nil
}

// GetName resolves references to indirect objects and makes sure the
// resulting object is a name.
func GetName(r Getter, obj Object) (Name, error) {
	obj, err := Resolve(r, obj)
	if err != nil || obj == nil {
		return "", err
	}
	x, ok := obj.(Name)
	if !ok {
		return "", typeError("Name", obj)
	}
	return x, nil
}

// GetString resolves references to indirect objects and makes sure the
// resulting object is a string.
func GetString(r Getter, obj Object) (String, error) {
	obj, err := Resolve(r, obj)
	if err != nil || obj == nil {
		return nil, err
	}
	x, ok := obj.(String)
	if !ok {
		return nil, typeError("String", obj)
	}
	return x, nil
}

// GetInteger resolves references to indirect objects and makes sure the
// resulting object is an integer.  Reals with integral values are accepted.
func GetInteger(r Getter, obj Object) (Integer, error) {
	obj, err := Resolve(r, obj)
	if err != nil || obj == nil {
		return 0, err
	}
	switch x := obj.(type) {
	case Integer:
		return x, nil
	case Real:
		if float64(x) == float64(int64(x)) {
			return Integer(x), nil
		}
	}
	return 0, typeError("Integer", obj)
}

// GetNumber resolves references to indirect objects and makes sure the
// resulting object is a number.
func GetNumber(r Getter, obj Object) (float64, error) {
	obj, err := Resolve(r, obj)
	if err != nil || obj == nil {
		return 0, err
	}
	if x, ok := AsNumber(obj); ok {
		return x, nil
	}
	return 0, typeError("number", obj)
}

// AsNumber converts a numeric object to float64.
func AsNumber(obj Object) (float64, bool) {
	switch x := obj.(type) {
	case Integer:
		return float64(x), true
	case Real:
		return float64(x), true
	case Number:
		return float64(x), true
	}
	return 0, false
}

// GetRectangle resolves references to indirect objects and converts the
// resulting array into a rectangle.  The corners are normalised so that
// LLx <= URx and LLy <= URy.
func GetRectangle(r Getter, obj Object) (*Rectangle, error) {
	a, err := GetArray(r, obj)
	if err != nil || a == nil {
		return nil, err
	}
	if len(a) != 4 {
		return nil, &MalformedFileError{
			Err: fmt.Errorf("rectangle with %d elements", len(a)),
		}
	}
	var v [4]float64
	for i, x := range a {
		v[i], err = GetNumber(r, x)
		if err != nil {
			return nil, err
		}
	}
	return &Rectangle{
		LLx: min(v[0], v[2]),
		LLy: min(v[1], v[3]),
		URx: max(v[0], v[2]),
		URy: max(v[1], v[3]),
	}, nil
}
