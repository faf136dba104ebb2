// Package codegen exposes a loaded reaction network to the template
// engine: scalar properties, list properties, and the generated-code
// expression collections (rates, fluxes, ODE right-hand sides, Jacobian
// entries) with their common-subexpression temporaries.
package codegen

import (
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/jaff-systems/gojaff/gojaff"
	"github.com/jaff-systems/gojaff/libjaff/lang"
	"github.com/jaff-systems/gojaff/libjaff/network"
)

// Generator implements gojaff.Source for one network and one target
// language. It is read-only after construction and safe to share between
// engines running concurrently.
type Generator struct {
	net   *network.Network
	elems *network.Elements
	prof  *lang.Profile
	file  string
}

// New builds a Generator for a template file. The file path feeds the
// filename/filepath scalars only; the caller still reads and writes the
// file itself.
func New(net *network.Network, prof *lang.Profile, file string) *Generator {
	return &Generator{
		net:   net,
		elems: network.NewElements(net),
		prof:  prof,
		file:  file,
	}
}

// Scalar resolves the network-wide scalars SUB substitutes.
func (g *Generator) Scalar(name string) (gojaff.Scalar, error) {
	switch name {
	case "nspec":
		return gojaff.IntScalar(int64(len(g.net.Species))), nil
	case "nelem":
		return gojaff.IntScalar(int64(g.elems.Len())), nil
	case "nreact":
		return gojaff.IntScalar(int64(len(g.net.Reactions))), nil
	case "label":
		return gojaff.TextScalar(g.net.Label), nil
	case "filename":
		return gojaff.TextScalar(filepath.Base(g.file)), nil
	case "filepath":
		return gojaff.TextScalar(g.file), nil
	case "e_idx":
		i, ok := g.net.ElectronIndex()
		if !ok {
			return gojaff.Scalar{}, errors.Wrap(gojaff.ErrEntityNotFound, "network has no e-")
		}
		return gojaff.IntScalar(int64(i)), nil
	case "dedt":
		return gojaff.TextScalar(g.energyDerivative()), nil
	}
	return gojaff.Scalar{}, errors.Wrapf(gojaff.ErrUnknownProperty, "scalar %q", name)
}

// energyDerivative renders dE/dt as the enthalpy-weighted flux sum; the
// surrounding code supplies the per-reaction enthalpy array dh.
func (g *Generator) energyDerivative() string {
	if len(g.net.Reactions) == 0 {
		return "0.0"
	}
	terms := make([]string, len(g.net.Reactions))
	for i := range g.net.Reactions {
		terms[i] = g.prof.Index("flux", i) + " * " + g.prof.Index("dh", i)
	}
	return strings.Join(terms, " + ")
}

// PropInfo classifies a REPEAT/REDUCE property name.
func (g *Generator) PropInfo(name string) (gojaff.PropInfo, error) {
	if _, ok := listProps[name]; ok {
		return gojaff.PropInfo{Kind: gojaff.PropList}, nil
	}
	if e, ok := exprProps[name]; ok {
		return gojaff.PropInfo{Kind: gojaff.PropExpr, SupportsCSE: e.cse}, nil
	}
	return gojaff.PropInfo{}, errors.Wrapf(gojaff.ErrUnknownProperty, "property %q", name)
}

// ListProperty returns a plain enumeration.
func (g *Generator) ListProperty(name string) (gojaff.IndexedList, error) {
	fn, ok := listProps[name]
	if !ok {
		return gojaff.IndexedList{}, errors.Wrapf(gojaff.ErrUnknownProperty, "list property %q", name)
	}
	return fn(g), nil
}

// ExpressionProperty returns a generated-code collection plus, for
// CSE-capable properties when requested, the parallel temporaries.
func (g *Generator) ExpressionProperty(name string, opts gojaff.ExprOpts) (gojaff.IndexedList, gojaff.IndexedList, error) {
	e, ok := exprProps[name]
	if !ok {
		return gojaff.IndexedList{}, gojaff.IndexedList{}, errors.Wrapf(gojaff.ErrUnknownProperty, "expression property %q", name)
	}
	return e.fn(g, opts)
}

// Lookup resolves one named entity for GET.
func (g *Generator) Lookup(kind gojaff.EntityKind, name string) (gojaff.EntityAttrs, error) {
	switch kind {
	case gojaff.EntitySpecie:
		i, ok := g.net.SpeciesIndex(name)
		if !ok {
			break
		}
		sp := g.net.Species[i]
		return gojaff.EntityAttrs{
			"idx":    gojaff.IntScalar(int64(sp.Index)),
			"mass":   gojaff.TextScalar(formatFloat(sp.Mass)),
			"charge": gojaff.IntScalar(int64(sp.Charge)),
			"latex":  gojaff.TextScalar(sp.Latex),
		}, nil

	case gojaff.EntityReaction:
		i, ok := g.net.ReactionIndex(name)
		if !ok {
			break
		}
		rea := g.net.Reactions[i]
		return gojaff.EntityAttrs{
			"idx":      gojaff.IntScalar(int64(rea.Index)),
			"tmin":     gojaff.TextScalar(formatFloat(rea.Tmin)),
			"tmax":     gojaff.TextScalar(formatFloat(rea.Tmax)),
			"verbatim": gojaff.TextScalar(rea.Verbatim()),
		}, nil

	case gojaff.EntityElement:
		if i, ok := g.elems.Index(name); ok {
			return gojaff.EntityAttrs{"idx": gojaff.IntScalar(int64(i))}, nil
		}
	}
	return nil, errors.Wrapf(gojaff.ErrEntityNotFound, "%s %q", kind, name)
}

// Contains reports entity existence for HAS.
func (g *Generator) Contains(kind gojaff.EntityKind, name string) bool {
	switch kind {
	case gojaff.EntitySpecie:
		_, ok := g.net.SpeciesIndex(name)
		return ok
	case gojaff.EntityReaction:
		_, ok := g.net.ReactionIndex(name)
		return ok
	case gojaff.EntityElement:
		_, ok := g.elems.Index(name)
		return ok
	}
	return false
}

// formatFloat renders floats the way they appear in generated tables.
// Unbounded temperature limits come through as NaN and render "nan".
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
