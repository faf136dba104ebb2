package network

import (
	"math"
	"sort"
	"strings"

	"github.com/plan-systems/klog"
)

// Reaction is one parsed network reaction. Rate expressions stay opaque
// text; they are never evaluated here.
type Reaction struct {
	Index     int
	Reactants []*Species
	Products  []*Species

	Rate string

	// Tmin/Tmax are the validity bounds; NaN when the table gives none.
	Tmin float64
	Tmax float64

	// Original is the source line the reaction came from.
	Original string
}

// Verbatim renders the human form "A + B -> C + D", the key GET and the
// reaction index table use.
func (r *Reaction) Verbatim() string {
	return strings.Join(names(r.Reactants), " + ") + " -> " + strings.Join(names(r.Products), " + ")
}

// Serialized is the order-independent form "R_R__P_P" over species names.
func (r *Reaction) Serialized() string {
	return strings.Join(sortedNames(r.Reactants), "_") + "__" + strings.Join(sortedNames(r.Products), "_")
}

// SerializedExploded uses the species' exploded forms, so isomer variants
// of the same reaction collapse together.
func (r *Reaction) SerializedExploded() string {
	rr := make([]string, len(r.Reactants))
	for i, s := range r.Reactants {
		rr[i] = s.Serialized
	}
	pp := make([]string, len(r.Products))
	for i, s := range r.Products {
		pp[i] = s.Serialized
	}
	sort.Strings(rr)
	sort.Strings(pp)
	return strings.Join(rr, "_") + "__" + strings.Join(pp, "_")
}

// GuessType classifies the reaction from its rate expression.
func (r *Reaction) GuessType() string {
	switch {
	case strings.Contains(r.Rate, "photo"):
		return "photo"
	case containsWord(r.Rate, "crate"):
		return "cosmic_ray"
	case containsWord(r.Rate, "av"):
		return "photo_av"
	case containsWord(r.Rate, "ntot"):
		return "3_body"
	}
	return "unknown"
}

// IsPhoto reports whether the reaction is a photo-reaction.
func (r *Reaction) IsPhoto() bool { return r.GuessType() == "photo" }

// Check warns when mass or charge is not conserved. Conservation slips
// are warnings, not errors: rough networks are common.
func (r *Reaction) Check() {
	if d := r.massDelta(); math.Abs(d) >= electronMass {
		klog.Warningf("mass not conserved in reaction: %s", r.Verbatim())
	}
	if r.chargeDelta() != 0 {
		klog.Warningf("charge not conserved in reaction: %s", r.Verbatim())
	}
}

func (r *Reaction) massDelta() float64 {
	var d float64
	for _, s := range r.Reactants {
		d += s.Mass
	}
	for _, s := range r.Products {
		d -= s.Mass
	}
	return d
}

func (r *Reaction) chargeDelta() int {
	d := 0
	for _, s := range r.Reactants {
		d += s.Charge
	}
	for _, s := range r.Products {
		d -= s.Charge
	}
	return d
}

func names(sp []*Species) []string {
	out := make([]string, len(sp))
	for i, s := range sp {
		out[i] = s.Name
	}
	return out
}

func sortedNames(sp []*Species) []string {
	out := names(sp)
	sort.Strings(out)
	return out
}

// containsWord reports a whole-identifier occurrence of w in expr.
func containsWord(expr, w string) bool {
	for i := 0; i+len(w) <= len(expr); i++ {
		j := strings.Index(expr[i:], w)
		if j < 0 {
			return false
		}
		i += j
		before := i == 0 || !isIdent(expr[i-1])
		after := i+len(w) == len(expr) || !isIdent(expr[i+len(w)])
		if before && after {
			return true
		}
	}
	return false
}

func isIdent(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
