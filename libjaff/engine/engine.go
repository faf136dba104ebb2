package engine

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/jaff-systems/gojaff/gojaff"
	"github.com/jaff-systems/gojaff/libjaff/directive"
	"github.com/jaff-systems/gojaff/libjaff/lang"
)

// cseState records the declared temporary-variable name for one
// expression property. The first block that declares temporaries for a
// property creates its entry; later blocks consuming the same property
// read it. Entries are never reset between blocks.
type cseState struct {
	varName string
}

// Engine resolves one template file against a read-only Source. Engines
// are single-use and not safe for concurrent use; run one per file.
type Engine struct {
	src  gojaff.Source
	prof *lang.Profile
	file string
	cse  map[string]*cseState
}

func New(src gojaff.Source, prof *lang.Profile, file string) *Engine {
	return &Engine{
		src:  src,
		prof: prof,
		file: file,
		cse:  make(map[string]*cseState),
	}
}

// Process expands every directive block in the template text. Marker
// lines are retained; block bodies are replaced by generated text; all
// other text passes through verbatim. Any error abandons the file.
func (e *Engine) Process(text string) (string, error) {
	segs, err := directive.Scan(text, e.prof.Comment)
	if err != nil {
		return "", errors.WithMessage(err, e.file)
	}

	var out strings.Builder
	for _, seg := range segs {
		if seg.Block == nil {
			out.WriteString(seg.Literal)
			continue
		}
		b := seg.Block
		body, err := e.execBlock(b)
		if err != nil {
			return "", errors.WithMessagef(err, "%s: block at line %d (%s)", e.file, b.Line, b.Directive.Cmd)
		}
		// The replace chain rewrites only this block's generated text.
		body = directive.ApplyChain(b.Directive.Replace, body)

		out.WriteString(b.HeaderLine)
		out.WriteString(body)
		out.WriteString(b.EndLine)
	}
	return out.String(), nil
}

func (e *Engine) execBlock(b *directive.Block) (string, error) {
	d := b.Directive
	switch d.Cmd {
	case directive.CmdSub:
		return e.execSub(d, b.Body)
	case directive.CmdRepeat:
		return e.execRepeat(d, b.Body)
	case directive.CmdGet:
		return e.execGet(d, b.Body)
	case directive.CmdHas:
		return e.execHas(d, b.Body)
	case directive.CmdReduce:
		return e.execReduce(d, b.Body)
	}
	return "", errors.Wrapf(gojaff.ErrMalformedBlock, "command %v", d.Cmd)
}

// execSub binds each named scalar and substitutes the body once.
func (e *Engine) execSub(d *directive.Directive, body string) (string, error) {
	binds := make(map[string]gojaff.Scalar, len(d.Vars))
	for _, name := range d.Vars {
		val, err := e.src.Scalar(name)
		if err != nil {
			return "", err
		}
		binds[name] = val
	}
	return substituteScalars(body, binds)
}

// execHas substitutes "1" or "0" for the category marker. A missing
// entity is the normal false outcome, never an error.
func (e *Engine) execHas(d *directive.Directive, body string) (string, error) {
	kind, err := gojaff.ParseEntityKind(d.Vars[0])
	if err != nil {
		return "", err
	}
	val := gojaff.IntScalar(0)
	if e.src.Contains(kind, d.Target) {
		val = gojaff.IntScalar(1)
	}
	return substituteScalars(body, map[string]gojaff.Scalar{d.Vars[0]: val})
}

// getProps maps a GET property name to the entity namespace it queries
// and the attribute key within the entity's attributes.
var getProps = map[string]struct {
	kind gojaff.EntityKind
	attr string
}{
	"specie_idx":        {gojaff.EntitySpecie, "idx"},
	"specie_mass":       {gojaff.EntitySpecie, "mass"},
	"specie_charge":     {gojaff.EntitySpecie, "charge"},
	"specie_latex":      {gojaff.EntitySpecie, "latex"},
	"element_idx":       {gojaff.EntityElement, "idx"},
	"reaction_idx":      {gojaff.EntityReaction, "idx"},
	"reaction_tmin":     {gojaff.EntityReaction, "tmin"},
	"reaction_tmax":     {gojaff.EntityReaction, "tmax"},
	"reaction_verbatim": {gojaff.EntityReaction, "verbatim"},
}

// execGet resolves each requested per-entity property for the FOR target
// and substitutes the body once.
func (e *Engine) execGet(d *directive.Directive, body string) (string, error) {
	binds := make(map[string]gojaff.Scalar, len(d.Vars))
	for _, prop := range d.Vars {
		spec, ok := getProps[prop]
		if !ok {
			return "", errors.Wrapf(gojaff.ErrUnknownProperty, "GET property %q", prop)
		}
		attrs, err := e.src.Lookup(spec.kind, d.Target)
		if err != nil {
			return "", err
		}
		val, ok := attrs[spec.attr]
		if !ok {
			return "", errors.Wrapf(gojaff.ErrUnknownProperty, "%s has no %q attribute", spec.kind, spec.attr)
		}
		binds[prop] = val
	}
	return substituteScalars(body, binds)
}
