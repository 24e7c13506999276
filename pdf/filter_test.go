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
	"bytes"
	"compress/zlib"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFlateRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789 "), 100)
	s := NewFlateStream(Dict{"Type": Name("Test")}, data)

	r := &Reader{}
	out, err := r.DecodeStream(s)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, data) {
		t.Error("data changed in round trip")
	}
}

func TestPNGPredictor(t *testing.T) {
	// two rows of three bytes, using the Sub and Up row filters
	raw := []byte{
		1, 10, 1, 1,
		2, 1, 1, 1,
	}
	buf := &bytes.Buffer{}
	zw := zlib.NewWriter(buf)
	zw.Write(raw)
	zw.Close()

	s := &Stream{
		Dict: Dict{
			"Filter":      Name("FlateDecode"),
			"DecodeParms": Dict{"Predictor": Integer(12), "Columns": Integer(3)},
		},
		Data: buf.Bytes(),
	}
	out, err := (&Reader{}).DecodeStream(s)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{10, 11, 12, 11, 12, 13}
	if d := cmp.Diff(want, out); d != "" {
		t.Errorf("(-want +got):\n%s", d)
	}
}

func TestTIFFPredictor(t *testing.T) {
	out, err := unpredict([]byte{1, 1, 1, 5, 1, 1}, Dict{
		"Predictor": Integer(2),
		"Columns":   Integer(3),
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{1, 2, 3, 5, 6, 7}
	if d := cmp.Diff(want, out); d != "" {
		t.Errorf("(-want +got):\n%s", d)
	}
}

func TestASCIIFilters(t *testing.T) {
	cases := []struct {
		filter Name
		in     string
		out    string
	}{
		{"ASCIIHexDecode", "48 65 6c6C 6f>", "Hello"},
		{"ASCIIHexDecode", "414>", "A@"},
		{"ASCII85Decode", "87cURDZ~>", "Hello"},
		{"ASCII85Decode", "<~87cURDZ~>", "Hello"},
	}
	for _, test := range cases {
		s := &Stream{Dict: Dict{"Filter": test.filter}, Data: []byte(test.in)}
		out, err := (&Reader{}).DecodeStream(s)
		if err != nil {
			t.Errorf("%s %q: %v", test.filter, test.in, err)
			continue
		}
		if string(out) != test.out {
			t.Errorf("%s %q: got %q, want %q", test.filter, test.in, out, test.out)
		}
	}
}

func TestImageFilterChain(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	s := &Stream{
		Dict: Dict{
			"Filter": Array{Name("ASCIIHexDecode"), Name("DCTDecode")},
		},
		Data: []byte("FFD8FFD9>"),
	}
	r := &Reader{}
	data, name, _, err := r.DecodeImageStream(s)
	if err != nil {
		t.Fatal(err)
	}
	if name != "DCTDecode" || !bytes.Equal(data, jpeg) {
		t.Errorf("got %q %x", name, data)
	}

	_, err = r.DecodeStream(s)
	if err == nil {
		t.Error("DCTDecode decoded without error")
	}
}
