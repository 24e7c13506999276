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

// Package buildinfo reports the version of the certpdf tools.
package buildinfo

import (
	"runtime/debug"
	"strings"
)

// Version returns a version string like "certpdf v0.3.0" or
// "certpdf devel 1a2b3c4d+dirty".  If no build information is available,
// the tool name is returned on its own.
func Version(tool string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return tool
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return tool + " " + v
	}

	settings := make(map[string]string)
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}
	rev := settings["vcs.revision"]
	if rev == "" {
		return tool + " devel"
	}
	if len(rev) > 8 {
		rev = rev[:8]
	}
	parts := []string{tool, "devel", rev}
	if settings["vcs.modified"] == "true" {
		parts[2] += "+dirty"
	}
	return strings.Join(parts, " ")
}
