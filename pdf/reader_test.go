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
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// writeTestFile writes a minimal PDF file with one page.
func writeTestFile(t *testing.T, ver Version, opt *WriterOptions) []byte {
	t.Helper()

	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, ver, opt)
	if err != nil {
		t.Fatal(err)
	}

	catalog := w.Alloc()
	pages := w.Alloc()
	page := w.Alloc()
	content := w.Alloc()
	length := w.Alloc()

	data := []byte("0 0 1 rg 10 10 50 50 re f")
	objects := []struct {
		ref Reference
		obj Object
	}{
		{catalog, Dict{"Type": Name("Catalog"), "Pages": pages}},
		{pages, Dict{
			"Type":     Name("Pages"),
			"Kids":     Array{page},
			"Count":    Integer(1),
			"MediaBox": &Rectangle{0, 0, 200, 100},
		}},
		{page, Dict{
			"Type":     Name("Page"),
			"Parent":   pages,
			"Contents": content,
		}},
		{content, &Stream{Dict: Dict{"Length": length}, Data: data}},
		{length, Integer(len(data))},
	}
	for _, o := range objects {
		err = w.Put(o.ref, o.obj)
		if err != nil {
			t.Fatal(err)
		}
	}
	err = w.Close(Dict{"Root": catalog})
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func checkTestFile(t *testing.T, r *Reader) {
	t.Helper()

	catalog, err := r.Catalog()
	if err != nil {
		t.Fatal(err)
	}
	pages, err := GetDict(r, catalog["Pages"])
	if err != nil {
		t.Fatal(err)
	}
	box, err := GetRectangle(r, pages["MediaBox"])
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(&Rectangle{0, 0, 200, 100}, box); d != "" {
		t.Errorf("MediaBox (-want +got):\n%s", d)
	}

	kids, err := GetArray(r, pages["Kids"])
	if err != nil || len(kids) != 1 {
		t.Fatalf("wrong /Kids: %v %v", kids, err)
	}
	page, err := GetDict(r, kids[0])
	if err != nil {
		t.Fatal(err)
	}
	stm, err := GetStream(r, page["Contents"])
	if err != nil {
		t.Fatal(err)
	}
	data, err := r.DecodeStream(stm)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "0 0 1 rg 10 10 50 50 re f" {
		t.Errorf("wrong content %q", data)
	}
}

func TestWriteRead(t *testing.T) {
	cases := []struct {
		name     string
		ver      Version
		opt      *WriterOptions
		isStream bool
	}{
		{"table", V1_4, nil, false},
		{"human-readable", V1_7, &WriterOptions{HumanReadable: true}, false},
		{"streams", V1_7, nil, true},
		{"pdf-2.0", V2_0, nil, true},
	}
	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			data := writeTestFile(t, test.ver, test.opt)
			r, err := NewReader(data)
			if err != nil {
				t.Fatal(err)
			}
			if r.Version != test.ver {
				t.Errorf("wrong version %s", r.Version)
			}
			if r.XRefIsStream() != test.isStream {
				t.Errorf("XRefIsStream() = %t", r.XRefIsStream())
			}
			if r.Repaired() {
				t.Error("file needed repair")
			}
			checkTestFile(t, r)
		})
	}
}

func TestDeterministicOutput(t *testing.T) {
	a := writeTestFile(t, V1_7, nil)
	b := writeTestFile(t, V1_7, nil)
	if !bytes.Equal(a, b) {
		t.Error("output is not deterministic")
	}
}

func TestRepair(t *testing.T) {
	for _, ver := range []Version{V1_4, V1_7} {
		data := writeTestFile(t, ver, nil)
		idx := bytes.LastIndex(data, []byte("startxref"))
		broken := append(bytes.Clone(data[:idx]), []byte("startxref\n9\n%%EOF\n")...)

		r, err := NewReader(broken)
		if err != nil {
			t.Fatalf("%s: %v", ver, err)
		}
		if !r.Repaired() {
			t.Errorf("%s: repair not reported", ver)
		}
		checkTestFile(t, r)
	}
}

func TestMalformed(t *testing.T) {
	cases := [][]byte{
		nil,
		[]byte("hello world"),
		[]byte("%PDF-1.4\nno objects here\n"),
	}
	for _, data := range cases {
		_, err := NewReader(data)
		if err == nil {
			t.Errorf("%q: missing error", data)
		} else if !IsMalformed(err) {
			t.Errorf("%q: wrong error %v", data, err)
		}
	}
}

func TestEncrypted(t *testing.T) {
	data := writeTestFile(t, V1_4, nil)
	enc := bytes.Replace(data, []byte("/Root"), []byte("/Encrypt 1 0 R\n/Root"), 1)

	_, err := NewReader(enc)
	if !errors.Is(err, ErrEncrypted) {
		t.Errorf("expected ErrEncrypted, got %v", err)
	}
}

func TestUpdater(t *testing.T) {
	for _, ver := range []Version{V1_4, V1_7} {
		t.Run(ver.String(), func(t *testing.T) {
			orig := writeTestFile(t, ver, nil)
			saved := bytes.Clone(orig)

			r, err := NewReader(orig)
			if err != nil {
				t.Fatal(err)
			}
			u := NewUpdater(r)
			extra := u.Alloc()
			u.Put(extra, Dict{"Test": String("added")})
			catalog, err := r.Catalog()
			if err != nil {
				t.Fatal(err)
			}
			catalog = catalog.Clone()
			catalog["Extra"] = extra
			u.Put(r.Trailer()["Root"].(Reference), catalog)

			out, err := u.Bytes()
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(orig, saved) {
				t.Fatal("original data was modified")
			}
			if !bytes.HasPrefix(out, orig) {
				t.Fatal("update does not start with the original file")
			}

			r2, err := NewReader(out)
			if err != nil {
				t.Fatal(err)
			}
			if r2.Repaired() {
				t.Error("updated file needed repair")
			}
			if r2.XRefIsStream() != r.XRefIsStream() {
				t.Error("xref format changed")
			}
			checkTestFile(t, r2)

			cat2, err := r2.Catalog()
			if err != nil {
				t.Fatal(err)
			}
			dict, err := GetDict(r2, cat2["Extra"])
			if err != nil {
				t.Fatal(err)
			}
			if d := cmp.Diff(Dict{"Test": String("added")}, dict); d != "" {
				t.Errorf("(-want +got):\n%s", d)
			}
		})
	}
}

func TestUpdaterEmpty(t *testing.T) {
	orig := writeTestFile(t, V1_4, nil)
	r, err := NewReader(orig)
	if err != nil {
		t.Fatal(err)
	}
	out, err := NewUpdater(r).Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, orig) {
		t.Error("empty update changed the file")
	}
}

func TestTextString(t *testing.T) {
	cases := []string{
		"",
		"hello",
		"ein Bär",
		"o țesătură",
		"中文",
	}
	for _, test := range cases {
		out := DecodeText(EncodeText(test))
		if out != test {
			t.Errorf("wrong text: %q != %q", out, test)
		}
	}
	if got := DecodeText(String{0x8D, 'x', 0x8E}); got != "“x”" {
		t.Errorf("PDFDocEncoding: got %q", got)
	}
}
