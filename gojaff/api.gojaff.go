package gojaff

import (
	"strconv"

	"github.com/pkg/errors"
)

// EntityKind selects the namespace a named-entity lookup runs against.
type EntityKind int32

const (
	EntitySpecie EntityKind = iota
	EntityReaction
	EntityElement
)

func (k EntityKind) String() string {
	switch k {
	case EntitySpecie:
		return "specie"
	case EntityReaction:
		return "reaction"
	case EntityElement:
		return "element"
	default:
		return "unknown"
	}
}

// ParseEntityKind maps the category keyword appearing in HAS / GET
// directives to its EntityKind.
func ParseEntityKind(s string) (EntityKind, error) {
	switch s {
	case "specie", "species":
		return EntitySpecie, nil
	case "reaction":
		return EntityReaction, nil
	case "element":
		return EntityElement, nil
	}
	return 0, errors.Wrapf(ErrMalformedBlock, "unknown entity category %q", s)
}

// PropKind classifies a named property exposed by a Source.
type PropKind int32

const (
	// PropList is a plain enumeration (species names, masses, charges, ...).
	PropList PropKind = iota

	// PropExpr is a collection of generated code fragments (rates, ODE
	// right-hand sides, Jacobian entries, ...), optionally accompanied by
	// a parallel collection of CSE temporary declarations.
	PropExpr
)

// PropInfo is the resolver metadata for one property name.
type PropInfo struct {
	Kind        PropKind
	SupportsCSE bool
}

// ExprOpts carries flags forwarded opaquely to the expression builder.
type ExprOpts struct {
	// CSE requests factoring of shared subterms into a parallel
	// temporary-declaration collection; without it the expressions come
	// back self-contained.
	CSE bool

	// DEDT requests the synthetic energy-balance row/column on
	// Jacobian-shaped collections.
	DEDT bool
}

// Scalar is a substitutable value: opaque text, or an integer that may
// additionally take part in marker arithmetic ($name+N$).
type Scalar struct {
	Text  string
	Int   int64
	IsInt bool
}

func TextScalar(s string) Scalar {
	return Scalar{Text: s}
}

func IntScalar(v int64) Scalar {
	return Scalar{Text: strconv.FormatInt(v, 10), Int: v, IsInt: true}
}

// EntityAttrs holds the per-entity attributes a GET lookup may ask for,
// keyed by attribute name ("idx", "mass", "charge", "latex", ...).
type EntityAttrs map[string]Scalar

// Source is the generator-collaborator contract consumed by the template
// engine. Implementations must be read-only and safe to share between
// engine instances running concurrently.
type Source interface {
	// Scalar resolves a network-wide scalar for SUB.
	Scalar(name string) (Scalar, error)

	// PropInfo classifies a property name for REPEAT / REDUCE.
	PropInfo(name string) (PropInfo, error)

	// ListProperty returns a flat or nested enumeration.
	ListProperty(name string) (IndexedList, error)

	// ExpressionProperty returns a collection of code fragments plus, for
	// CSE-capable properties, the parallel temporary-declaration
	// collection (empty otherwise).
	ExpressionProperty(name string, opts ExprOpts) (exprs, cseTemps IndexedList, err error)

	// Lookup resolves a named entity to its attributes for GET.
	Lookup(kind EntityKind, name string) (EntityAttrs, error)

	// Contains reports entity existence for HAS. Absence is not an error.
	Contains(kind EntityKind, name string) bool
}
