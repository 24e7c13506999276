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
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadObject(t *testing.T) {
	cases := []struct {
		in  string
		out Object
	}{
		{"null", nil},
		{"true", Bool(true)},
		{"false ", Bool(false)},
		{"12", Integer(12)},
		{"+12", Integer(12)},
		{"-0.5", Real(-0.5)},
		{".5", Real(0.5)},
		{"4.", Real(4)},
		{"--3", Integer(-3)},
		{"/Name", Name("Name")},
		{"/A#20B", Name("A B")},
		{"/a#4F", Name("aO")},
		{"(hello)", String("hello")},
		{"(a(b)c)", String("a(b)c")},
		{`(a\)b)`, String("a)b")},
		{`(\101\1011)`, String("AA1")},
		{"(a\\\nb)", String("ab")},
		{"(a\r\nb)", String("a\nb")},
		{"<41 42 4>", String("AB@")},
		{"<>", String{}},
		{"()", String{}},
		{"1 0 R", NewReference(1, 0)},
		{"[1 0 R 2 3]", Array{NewReference(1, 0), Integer(2), Integer(3)}},
		{"[1 2]", Array{Integer(1), Integer(2)}},
		{"[/a%comment\n/b]", Array{Name("a"), Name("b")}},
		{
			"<</Type/Page/Kids[1 0 R]/N -3.5/S(a\\)b)/X null>>",
			Dict{
				"Type": Name("Page"),
				"Kids": Array{NewReference(1, 0)},
				"N":    Real(-3.5),
				"S":    String("a)b"),
			},
		},
	}
	for _, test := range cases {
		s := newScanner([]byte(test.in), 0)
		obj, err := s.readObject()
		if err != nil {
			t.Errorf("%q: %v", test.in, err)
			continue
		}
		if d := cmp.Diff(test.out, obj); d != "" {
			t.Errorf("%q: (-want +got):\n%s", test.in, d)
		}
	}
}

func TestReadObjectErrors(t *testing.T) {
	cases := []string{
		"",
		"(unterminated",
		"[1 2",
		"<< /A 1",
		"<< 1 2 >>",
		"<4G>",
		"}",
	}
	for _, in := range cases {
		s := newScanner([]byte(in), 0)
		_, err := s.readObject()
		if err == nil {
			t.Errorf("%q: missing error", in)
		} else if !IsMalformed(err) {
			t.Errorf("%q: wrong error type %T", in, err)
		}
	}
}

func TestReadIndirectObject(t *testing.T) {
	in := "7 0 obj\n<< /Length 5 >>\nstream\nhello\nendstream\nendobj\n"
	s := newScanner([]byte(in), 0)
	ref, obj, err := s.readIndirectObject()
	if err != nil {
		t.Fatal(err)
	}
	if ref != NewReference(7, 0) {
		t.Errorf("wrong reference %s", ref)
	}
	stream, ok := obj.(*Stream)
	if !ok {
		t.Fatalf("expected stream, got %T", obj)
	}
	if string(stream.Data) != "hello" {
		t.Errorf("wrong stream data %q", stream.Data)
	}
}

func TestStreamWrongLength(t *testing.T) {
	for _, length := range []string{"2", "100", "3 0 R"} {
		in := "7 0 obj\n<< /Length " + length + " >>\nstream\r\nhello\r\nendstream\nendobj\n"
		s := newScanner([]byte(in), 0)
		_, obj, err := s.readIndirectObject()
		if err != nil {
			t.Fatal(err)
		}
		stream := obj.(*Stream)
		if string(stream.Data) != "hello" {
			t.Errorf("length %s: wrong stream data %q", length, stream.Data)
		}
	}
}

func TestTokenizer(t *testing.T) {
	in := "q 1 0 0 1 10 20 cm BT /F1 12 Tf (Hi) Tj ET BI /W 2 /H 1 ID \x01\x02 EI Q"
	tok := NewTokenizer([]byte(in))
	var got []Object
	for {
		obj, err := tok.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			t.Fatal(err)
		}
		got = append(got, obj)
		if obj == Operator("ID") {
			data, err := tok.InlineImageData()
			if err != nil {
				t.Fatal(err)
			}
			got = append(got, String(data))
		}
	}
	want := []Object{
		Operator("q"), Integer(1), Integer(0), Integer(0), Integer(1),
		Integer(10), Integer(20), Operator("cm"),
		Operator("BT"), Name("F1"), Integer(12), Operator("Tf"),
		String("Hi"), Operator("Tj"), Operator("ET"),
		Operator("BI"), Name("W"), Integer(2), Name("H"), Integer(1),
		Operator("ID"), String("\x01\x02"),
		Operator("Q"),
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("(-want +got):\n%s", d)
	}
}

func TestHeaderVersion(t *testing.T) {
	cases := []struct {
		in   string
		ver  Version
		base int
		ok   bool
	}{
		{"%PDF-1.4\n", V1_4, 0, true},
		{"junk\n%PDF-1.7\n", V1_7, 5, true},
		{"%PDF-2.0\r", V2_0, 0, true},
		{"%PDF-1.9\n", V1_7, 0, true},
		{"%PS-Adobe-3.0\n", 0, 0, false},
	}
	for _, test := range cases {
		ver, base, err := readHeaderVersion([]byte(test.in))
		if (err == nil) != test.ok {
			t.Errorf("%q: unexpected error state %v", test.in, err)
			continue
		}
		if test.ok && (ver != test.ver || base != test.base) {
			t.Errorf("%q: got %s at %d, want %s at %d",
				test.in, ver, base, test.ver, test.base)
		}
	}
}
