// Package lang holds the per-language token profiles that shape generated
// code: array brackets, comment prefixes, statement terminators, and the
// base index offset.
package lang

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/jaff-systems/gojaff/gojaff"
)

// Profile is the set of syntax tokens for one target language.
type Profile struct {
	// Name is the canonical language id: "cxx", "c", "f90" or "py".
	Name string

	// Comment prefixes directive marker lines and generated comments,
	// trailing space included.
	Comment string

	// Brackets is the two-rune 1-D array bracket pair, e.g. "[]".
	Brackets string

	// MatrixSep separates the two indices of a 2-D access, e.g. "][".
	MatrixSep string

	// AssignOp is the assignment operator.
	AssignOp string

	// LineEnd is the statement terminator ("" where the language has none).
	LineEnd string

	// IndexOffset is the base of array indexing (1 for Fortran).
	IndexOffset int
}

// Open returns the opening bracket of a 1-D access.
func (p *Profile) Open() string { return p.Brackets[:1] }

// Close returns the closing bracket of a 1-D access.
func (p *Profile) Close() string { return p.Brackets[1:] }

// Index renders a 1-D array access, applying the language's base offset.
func (p *Profile) Index(array string, i int) string {
	return array + p.Open() + strconv.Itoa(i+p.IndexOffset) + p.Close()
}

// MatrixIndex renders a 2-D array access.
func (p *Profile) MatrixIndex(array string, i, j int) string {
	return array + p.Open() + strconv.Itoa(i+p.IndexOffset) + p.MatrixSep + strconv.Itoa(j+p.IndexOffset) + p.Close()
}

var profiles = map[string]*Profile{
	"cxx": {
		Name:        "cxx",
		Comment:     "// ",
		Brackets:    "[]",
		MatrixSep:   "][",
		AssignOp:    "=",
		LineEnd:     ";",
		IndexOffset: 0,
	},
	"c": {
		Name:        "c",
		Comment:     "// ",
		Brackets:    "[]",
		MatrixSep:   "][",
		AssignOp:    "=",
		LineEnd:     ";",
		IndexOffset: 0,
	},
	"f90": {
		Name:        "f90",
		Comment:     "!! ",
		Brackets:    "()",
		MatrixSep:   ")(",
		AssignOp:    "=",
		LineEnd:     "",
		IndexOffset: 1,
	},
	"py": {
		Name:        "py",
		Comment:     "# ",
		Brackets:    "[]",
		MatrixSep:   ", ",
		AssignOp:    "=",
		LineEnd:     "",
		IndexOffset: 0,
	},
}

var aliases = map[string]string{
	"c++":     "cxx",
	"cpp":     "cxx",
	"cxx":     "cxx",
	"c":       "c",
	"fortran": "f90",
	"f90":     "f90",
	"python":  "py",
	"py":      "py",
}

var extMap = map[string]string{
	"cpp": "cxx",
	"cxx": "cxx",
	"cc":  "cxx",
	"hpp": "cxx",
	"hxx": "cxx",
	"hh":  "cxx",
	"h":   "cxx",
	"c":   "c",
	"f":   "f90",
	"for": "f90",
	"f90": "f90",
	"f95": "f90",
	"f03": "f90",
	"f08": "f90",
	"py":  "py",
}

// ForName resolves a language name or alias to its Profile.
func ForName(name string) (*Profile, error) {
	canon, ok := aliases[strings.ToLower(name)]
	if !ok {
		return nil, errors.Wrapf(gojaff.ErrUnsupportedLang, "language %q", name)
	}
	return profiles[canon], nil
}

// ForFile resolves a template file name to its Profile via the extension.
func ForFile(path string) (*Profile, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	canon, ok := extMap[ext]
	if !ok {
		return nil, errors.Wrapf(gojaff.ErrUnsupportedLang, "file extension %q", ext)
	}
	return profiles[canon], nil
}

// Names lists the canonical language ids.
func Names() []string {
	return []string{"cxx", "c", "f90", "py"}
}
