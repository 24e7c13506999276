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

package render

import (
	"bytes"

	"seehuhn.de/go/icc"

	"seehuhn.de/go/certpdf/internal/logging"
	"seehuhn.de/go/certpdf/pdf"
)

// profileComponents returns the number of colour components of an ICC
// profile, as given in the profile header.  This is used when the /N entry
// of an ICCBased colour space is missing or invalid.  Only Gray, RGB and
// CMYK profiles are supported; 0 is returned for all other profiles.
func (ip *interpreter) profileComponents(stm *pdf.Stream) int {
	data, err := ip.r.DecodeStream(stm)
	if err != nil {
		logging.Logger().Debug("cannot decode ICC profile", "error", err)
		return 0
	}
	// Decode overwrites the checksum fields of version 4 profiles.
	p, err := icc.Decode(bytes.Clone(data))
	if err != nil {
		logging.Logger().Debug("invalid ICC profile", "error", err)
		return 0
	}

	switch p.ColorSpace {
	case icc.GraySpace, icc.RGBSpace, icc.CMYKSpace:
		return p.ColorSpace.NumComponents()
	}
	return 0
}
