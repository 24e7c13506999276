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

package document

import (
	"errors"
)

// ErrorKind classifies the errors returned by [Load] and [Read].
type ErrorKind int

// These are the possible kinds of [ParseError].
const (
	// Malformed indicates that the input is not a well-formed PDF file,
	// or uses features which are not supported.
	Malformed ErrorKind = iota + 1

	// IO indicates that the input could not be read completely.
	IO
)

func (k ErrorKind) String() string {
	switch k {
	case Malformed:
		return "malformed"
	case IO:
		return "I/O"
	default:
		return "unknown"
	}
}

// Sentinel errors for use with [errors.Is].
var (
	ErrMalformed = errors.New("malformed document")
	ErrIO        = errors.New("cannot read document")
)

// ParseError is the error type returned when a document cannot be loaded.
type ParseError struct {
	Kind ErrorKind
	Err  error
}

func (err *ParseError) Error() string {
	var prefix string
	switch err.Kind {
	case IO:
		prefix = ErrIO.Error()
	default:
		prefix = ErrMalformed.Error()
	}
	if err.Err == nil {
		return prefix
	}
	return prefix + ": " + err.Err.Error()
}

func (err *ParseError) Unwrap() error {
	return err.Err
}

// Is allows to test the kind of a ParseError using [ErrMalformed] and
// [ErrIO].
func (err *ParseError) Is(target error) bool {
	switch target {
	case ErrMalformed:
		return err.Kind == Malformed
	case ErrIO:
		return err.Kind == IO
	}
	return false
}

func malformed(err error) error {
	return &ParseError{Kind: Malformed, Err: err}
}
