package network

import "sort"

// Elements is the sorted set of chemical elements occurring in a
// network's species, with the composition matrices derived from it.
type Elements struct {
	Names []string

	net *Network
}

// NewElements extracts the unique alphabetic atoms from every species'
// exploded form; charge symbols are not elements.
func NewElements(net *Network) *Elements {
	set := map[string]bool{}
	for _, sp := range net.Species {
		for _, atom := range sp.Exploded {
			if isAlpha(atom) {
				set[atom] = true
			}
		}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return &Elements{Names: names, net: net}
}

func (e *Elements) Len() int { return len(e.Names) }

// Index resolves an element symbol.
func (e *Elements) Index(symbol string) (int, bool) {
	for i, name := range e.Names {
		if name == symbol {
			return i, true
		}
	}
	return 0, false
}

// DensityMatrix is the nelem x nspec matrix of atom counts per species.
func (e *Elements) DensityMatrix() [][]int {
	return e.matrix(func(sp *Species, elem string) int {
		n := 0
		for _, atom := range sp.Exploded {
			if atom == elem {
				n++
			}
		}
		return n
	})
}

// TruthMatrix is the nelem x nspec 0/1 matrix of element presence.
func (e *Elements) TruthMatrix() [][]int {
	return e.matrix(func(sp *Species, elem string) int {
		for _, atom := range sp.Exploded {
			if atom == elem {
				return 1
			}
		}
		return 0
	})
}

func (e *Elements) matrix(cell func(*Species, string) int) [][]int {
	m := make([][]int, len(e.Names))
	for i, elem := range e.Names {
		row := make([]int, len(e.net.Species))
		for j, sp := range e.net.Species {
			row[j] = cell(sp, elem)
		}
		m[i] = row
	}
	return m
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}
