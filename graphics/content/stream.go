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

package content

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"

	"seehuhn.de/go/certpdf/pdf"
)

// Operator represents a content stream operator with its arguments.
type Operator struct {
	Name OpName
	Args []pdf.Object
}

// Stream represents a PDF content stream.
type Stream []Operator

// maxArgs limits the number of operands before an operator.
const maxArgs = 64

// Parse splits a content stream into operators.
//
// Parsing is permissive: an overlong list of operands is truncated, and
// stray delimiters are skipped.  If the data cannot be parsed completely,
// the operators read so far are returned together with the error.
func Parse(data []byte) (Stream, error) {
	tok := pdf.NewTokenizer(data)

	var res Stream
	var args []pdf.Object
	for {
		obj, err := tok.Next()
		if err == io.EOF {
			return res, nil
		} else if err != nil {
			return res, err
		}

		op, isOp := obj.(pdf.Operator)
		if !isOp {
			if len(args) < maxArgs {
				args = append(args, obj)
			}
			continue
		}

		switch op {
		case "BI":
			img, err := readInlineImage(tok)
			if err != nil {
				return res, err
			}
			res = append(res, img)
		case "ID", "EI", "]", ">>", ")", "}", "{":
			// stray tokens
		default:
			res = append(res, Operator{Name: OpName(op), Args: args})
		}
		args = nil
	}
}

func readInlineImage(tok *pdf.Tokenizer) (Operator, error) {
	dict := pdf.Dict{}
	var key pdf.Name
	haveKey := false
	for {
		obj, err := tok.Next()
		if err == io.EOF {
			return Operator{}, errors.New("unterminated inline image")
		} else if err != nil {
			return Operator{}, err
		}

		if op, ok := obj.(pdf.Operator); ok && op == "ID" {
			break
		}
		if !haveKey {
			name, ok := obj.(pdf.Name)
			if !ok {
				return Operator{}, fmt.Errorf("invalid inline image key %s", pdf.Format(obj))
			}
			key = name
			haveKey = true
			continue
		}
		dict[key] = obj
		haveKey = false
	}

	data, err := tok.InlineImageData()
	if err != nil {
		return Operator{}, err
	}
	return Operator{
		Name: OpInlineImage,
		Args: []pdf.Object{dict, pdf.String(bytes.Clone(data))},
	}, nil
}

// Write writes the content stream to w, one operator per line.
func (s Stream) Write(w io.Writer) error {
	for _, op := range s {
		if op.Name == OpInlineImage {
			err := writeInlineImage(w, op)
			if err != nil {
				return err
			}
			continue
		}

		for _, arg := range op.Args {
			if arg == nil {
				_, err := io.WriteString(w, "null ")
				if err != nil {
					return err
				}
				continue
			}
			err := arg.PDF(w)
			if err != nil {
				return err
			}
			_, err = io.WriteString(w, " ")
			if err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, string(op.Name)+"\n")
		if err != nil {
			return err
		}
	}
	return nil
}

func writeInlineImage(w io.Writer, op Operator) error {
	if len(op.Args) != 2 {
		return errors.New("malformed inline image")
	}
	dict, _ := op.Args[0].(pdf.Dict)
	data, _ := op.Args[1].(pdf.String)

	buf := &bytes.Buffer{}
	buf.WriteString("BI\n")
	keys := make([]pdf.Name, 0, len(dict))
	for key := range dict {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		val := dict[key]
		if val == nil {
			continue
		}
		buf.WriteString(pdf.Format(key))
		buf.WriteByte(' ')
		buf.WriteString(pdf.Format(val))
		buf.WriteByte('\n')
	}
	buf.WriteString("ID\n")
	buf.Write(data)
	buf.WriteString("\nEI\n")

	_, err := w.Write(buf.Bytes())
	return err
}

// Bytes returns the content stream in PDF syntax.
func (s Stream) Bytes() []byte {
	buf := &bytes.Buffer{}
	_ = s.Write(buf) // writes to a bytes.Buffer cannot fail
	return buf.Bytes()
}

// Validate checks that the operators have the expected number of arguments,
// and that q/Q and BT/ET are correctly nested.
func (s Stream) Validate() error {
	depth := 0
	inText := false
	for i, op := range s {
		if n, ok := argCount[op.Name]; ok && len(op.Args) != n {
			return fmt.Errorf("operator %d (%s): expected %d arguments, got %d",
				i, op.Name, n, len(op.Args))
		}

		switch op.Name {
		case OpPushGraphicsState:
			depth++
		case OpPopGraphicsState:
			if depth == 0 {
				return fmt.Errorf("operator %d (Q): unbalanced", i)
			}
			depth--
		case OpTextBegin:
			if inText {
				return fmt.Errorf("operator %d (BT): nested text object", i)
			}
			inText = true
		case OpTextEnd:
			if !inText {
				return fmt.Errorf("operator %d (ET): not in a text object", i)
			}
			inText = false
		}
	}
	if depth != 0 {
		return fmt.Errorf("%d unclosed q operators", depth)
	}
	if inText {
		return errors.New("unclosed text object")
	}
	return nil
}
