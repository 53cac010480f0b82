// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

// Package paths resolves the dot-directory this module keeps its saved
// preferences, ROM search paths and cached contention tables in.
package paths

import "path/filepath"

// baseDir is the name of the resource directory, relative to wherever the
// caller decides to root it (normally the user's home directory, but the
// package itself stays agnostic about that to keep it testable).
const baseDir = ".spectrumcore"

// ResourcePath builds a path under the resource directory from an optional
// subdirectory and an optional filename. Either may be empty.
func ResourcePath(subDir string, filename string) (string, error) {
	p := baseDir
	if subDir != "" {
		p = filepath.Join(p, subDir)
	}
	if filename != "" {
		p = filepath.Join(p, filename)
	}
	return p, nil
}
