// Package network loads chemical reaction networks and exposes the
// species, reaction and element tables the code generator reads.
package network

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/jaff-systems/gojaff/gojaff"
)

// Species is one network species with its derived attributes.
type Species struct {
	Name  string
	Index int

	// Exploded is the sorted multiset of atoms (and charge symbols) the
	// name decomposes into; H2O+ explodes to [+ H H O].
	Exploded []string

	// Mass in grams, charge symbols contributing ∓ one electron mass.
	Mass float64

	Charge int
	Latex  string

	// Serialized is the canonical form: exploded atoms joined by "/", so
	// isomers share it (H2O+ and OH2+ both give "+/H/H/O").
	Serialized string

	// FIdx is the index-constant name, safe for Fortran and C alike:
	// "idx_" + name with "+" -> "j" and "-" -> "k".
	FIdx string
}

// Electron spellings that must be written "e-".
var badElectronNames = map[string]bool{
	"e": true, "E": true, "E-": true,
	"eletron": true, "electrons": true, "el": true, "els": true,
}

// NewSpecies decomposes a species name against the atom mass table and
// derives mass, charge, LaTeX label and index-constant name.
func NewSpecies(name string, masses map[string]float64, index int) (*Species, error) {
	name = strings.TrimSpace(name)
	if badElectronNames[name] || badElectronNames[strings.ToLower(name)] {
		return nil, errors.Wrapf(gojaff.ErrUnknownAtom, "electron written %q, use e- instead", name)
	}

	sp := &Species{
		Name:  name,
		Index: index,
		FIdx:  "idx_" + strings.ReplaceAll(strings.ReplaceAll(name, "+", "j"), "-", "k"),
	}

	exploded, err := explode(name, masses)
	if err != nil {
		return nil, err
	}
	sort.Strings(exploded)
	sp.Exploded = exploded
	sp.Serialized = strings.Join(exploded, "/")

	for _, atom := range exploded {
		sp.Mass += masses[atom]
	}

	sp.Charge = chargeOf(name)
	sp.Latex = latexOf(name)
	return sp, nil
}

// explode splits a species name into atoms, longest symbol first, with
// trailing digit multipliers (H2 -> H H).
func explode(name string, masses map[string]float64) ([]string, error) {
	atoms := make([]string, 0, len(masses))
	for a := range masses {
		atoms = append(atoms, a)
	}
	sort.Slice(atoms, func(i, j int) bool { return len(atoms[i]) > len(atoms[j]) })

	var out []string
	rest := name
	for len(rest) > 0 {
		if rest[0] >= '0' && rest[0] <= '9' {
			n := 0
			for len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9' {
				n = n*10 + int(rest[0]-'0')
				rest = rest[1:]
			}
			if len(out) == 0 {
				return nil, errors.Wrapf(gojaff.ErrUnknownAtom, "leading digit in %q", name)
			}
			for i := 1; i < n; i++ {
				out = append(out, out[len(out)-1])
			}
			continue
		}

		matched := ""
		for _, a := range atoms {
			if strings.HasPrefix(rest, a) {
				matched = a
				break
			}
		}
		if matched == "" {
			return nil, errors.Wrapf(gojaff.ErrUnknownAtom, "%q in species %q", rest, name)
		}
		out = append(out, matched)
		rest = rest[len(matched):]
	}
	return out, nil
}

// chargeOf counts trailing charge symbols; e- is the lone electron.
func chargeOf(name string) int {
	if name == "e-" {
		return -1
	}
	charge := 0
	for len(name) > 0 {
		switch name[len(name)-1] {
		case '+':
			charge++
		case '-':
			charge--
		default:
			return charge
		}
		name = name[:len(name)-1]
	}
	return charge
}

func latexOf(name string) string {
	latex := strings.TrimSpace(name)
	for d := '0'; d <= '9'; d++ {
		latex = strings.ReplaceAll(latex, string(d), "_{"+string(d)+"}")
	}
	latex = strings.ReplaceAll(latex, "+", "^{+}")
	latex = strings.ReplaceAll(latex, "-", "^{-}")
	if strings.Contains(latex, "_ORTHO") {
		latex = "o" + strings.ReplaceAll(latex, "_ORTHO", "")
	}
	if strings.Contains(latex, "_PARA") {
		latex = "p" + strings.ReplaceAll(latex, "_PARA", "")
	}
	if strings.Contains(latex, "_META") {
		latex = "m" + strings.ReplaceAll(latex, "_META", "")
	}
	if strings.Contains(latex, "_DUST") {
		latex = strings.ReplaceAll(latex, "_DUST", "") + "ice"
	}
	latex = strings.ReplaceAll(latex, "GRAIN", "g")
	return "{\\rm " + latex + "}"
}
