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
	"encoding/ascii85"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// maxDecodedSize limits the size of decoded stream data.
const maxDecodedSize = 256 << 20

var errUnsupportedPredictor = errors.New("unsupported predictor")

// imageFilters lists the filters which are only used for image data.
// Decoding these is left to the caller.
var imageFilters = map[Name]bool{
	"DCTDecode":       true,
	"DCT":             true,
	"JPXDecode":       true,
	"JBIG2Decode":     true,
	"CCITTFaxDecode":  true,
	"CCF":             true,
}

type filter struct {
	name  Name
	parms Dict
}

// streamFilters extracts the list of filters from a stream dictionary.
func streamFilters(r Getter, dict Dict) ([]filter, error) {
	fObj, err := Resolve(r, dict["Filter"])
	if err != nil {
		return nil, err
	}
	pObj, err := Resolve(r, dict["DecodeParms"])
	if err != nil {
		return nil, err
	}

	var names []Object
	var parms []Object
	switch f := fObj.(type) {
	case nil:
		return nil, nil
	case Name:
		names = []Object{f}
		parms = []Object{pObj}
	case Array:
		names = f
		if pa, ok := pObj.(Array); ok {
			parms = pa
		}
	default:
		return nil, fmt.Errorf("invalid /Filter %s", Format(fObj))
	}

	res := make([]filter, 0, len(names))
	for i, nObj := range names {
		nObj, err := Resolve(r, nObj)
		if err != nil {
			return nil, err
		}
		name, ok := nObj.(Name)
		if !ok {
			return nil, fmt.Errorf("invalid filter name %s", Format(nObj))
		}
		var parm Dict
		if i < len(parms) {
			pObj, err := Resolve(r, parms[i])
			if err != nil {
				return nil, err
			}
			parm, _ = pObj.(Dict)
		}
		res = append(res, filter{name: name, parms: parm})
	}
	return res, nil
}

// decode removes one filter from data.
func (f filter) decode(data []byte) ([]byte, error) {
	switch f.name {
	case "FlateDecode", "Fl":
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		out, err := io.ReadAll(io.LimitReader(zr, maxDecodedSize))
		if err != nil && len(out) == 0 {
			return nil, err
		}
		// Truncated zlib data is common in the wild; keep what we got.
		return unpredict(out, f.parms)
	case "ASCIIHexDecode", "AHx":
		return decodeHex(data)
	case "ASCII85Decode", "A85":
		return decodeASCII85(data)
	default:
		return nil, fmt.Errorf("unsupported filter %q", f.name)
	}
}

func decodeHex(data []byte) ([]byte, error) {
	digits := make([]byte, 0, len(data)+1)
	for _, c := range data {
		if c == '>' {
			break
		}
		if isSpace[c] {
			continue
		}
		digits = append(digits, c)
	}
	if len(digits)%2 != 0 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	_, err := hex.Decode(out, digits)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func decodeASCII85(data []byte) ([]byte, error) {
	if i := bytes.Index(data, []byte("~>")); i >= 0 {
		data = data[:i]
	}
	data = bytes.TrimPrefix(bytes.TrimLeft(data, " \t\r\n\f\000"), []byte("<~"))
	out := make([]byte, 4*len(data)/5+4)
	n, _, err := ascii85.Decode(out, data, true)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}

// unpredict undoes the PNG and TIFF predictors of FlateDecode data.
func unpredict(data []byte, parms Dict) ([]byte, error) {
	predictor := 1
	colors := 1
	bpc := 8
	columns := 1
	if parms != nil {
		if x, ok := parms["Predictor"].(Integer); ok {
			predictor = int(x)
		}
		if x, ok := parms["Colors"].(Integer); ok && x > 0 && x <= 32 {
			colors = int(x)
		}
		if x, ok := parms["BitsPerComponent"].(Integer); ok && x > 0 && x <= 16 {
			bpc = int(x)
		}
		if x, ok := parms["Columns"].(Integer); ok && x > 0 && x < 1<<20 {
			columns = int(x)
		}
	}

	bpp := (colors*bpc + 7) / 8
	rowLen := (colors*bpc*columns + 7) / 8

	switch {
	case predictor == 1:
		return data, nil
	case predictor == 2:
		if bpc != 8 {
			return nil, fmt.Errorf("%w: TIFF with %d bits", errUnsupportedPredictor, bpc)
		}
		out := bytes.Clone(data)
		for start := 0; start < len(out); start += rowLen {
			row := out[start:min(start+rowLen, len(out))]
			for i := bpp; i < len(row); i++ {
				row[i] += row[i-bpp]
			}
		}
		return out, nil
	case predictor >= 10 && predictor <= 15:
		return unpredictPNG(data, rowLen, bpp)
	default:
		return nil, fmt.Errorf("%w %d", errUnsupportedPredictor, predictor)
	}
}

func unpredictPNG(data []byte, rowLen, bpp int) ([]byte, error) {
	nRows := len(data) / (rowLen + 1)
	out := make([]byte, 0, nRows*rowLen)
	prev := make([]byte, rowLen)
	for k := range nRows {
		in := data[k*(rowLen+1) : (k+1)*(rowLen+1)]
		tp := in[0]
		cur := make([]byte, rowLen)
		copy(cur, in[1:])
		switch tp {
		case 0: // None
		case 1: // Sub
			for i := bpp; i < rowLen; i++ {
				cur[i] += cur[i-bpp]
			}
		case 2: // Up
			for i := range rowLen {
				cur[i] += prev[i]
			}
		case 3: // Average
			for i := range rowLen {
				var left int
				if i >= bpp {
					left = int(cur[i-bpp])
				}
				cur[i] += byte((left + int(prev[i])) / 2)
			}
		case 4: // Paeth
			for i := range rowLen {
				var a, c int
				if i >= bpp {
					a = int(cur[i-bpp])
					c = int(prev[i-bpp])
				}
				cur[i] += paeth(a, int(prev[i]), c)
			}
		default:
			return nil, fmt.Errorf("malformed PNG predictor row type %d", tp)
		}
		out = append(out, cur...)
		prev = cur
	}
	return out, nil
}

func paeth(a, b, c int) byte {
	p := a + b - c
	pa := abs(p - a)
	pb := abs(p - b)
	pc := abs(p - c)
	if pa <= pb && pa <= pc {
		return byte(a)
	}
	if pb <= pc {
		return byte(b)
	}
	return byte(c)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// compress returns the FlateDecode encoding of data.
func compress(data []byte) []byte {
	buf := &bytes.Buffer{}
	zw, _ := zlib.NewWriterLevel(buf, zlib.BestCompression)
	zw.Write(data)
	zw.Close()
	return buf.Bytes()
}

// NewFlateStream returns a stream object which holds the compressed form of
// data.  The entries of dict are copied into the stream dictionary.
func NewFlateStream(dict Dict, data []byte) *Stream {
	d := dict.Clone()
	if d == nil {
		d = Dict{}
	}
	d["Filter"] = Name("FlateDecode")
	delete(d, "DecodeParms")
	return &Stream{Dict: d, Data: compress(data)}
}

// decodeFilters removes the filters of a stream in order.  If stopAtImage is
// set, decoding stops at the first image filter and that filter is returned,
// together with its parameters.
func decodeFilters(data []byte, filters []filter, stopAtImage bool) ([]byte, *filter, error) {
	for i, f := range filters {
		if imageFilters[f.name] {
			if stopAtImage {
				return data, &filters[i], nil
			}
			return nil, nil, fmt.Errorf("unsupported filter %q", f.name)
		}
		var err error
		data, err = f.decode(data)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return data, nil, nil
}
