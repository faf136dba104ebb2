package engine

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/jaff-systems/gojaff/gojaff"
	"github.com/jaff-systems/gojaff/libjaff/directive"
)

// reduceSpanRx delimits the single formula span of a REDUCE body:
// everything between "$(" and ")$".
var reduceSpanRx = regexp.MustCompile(`(?s)\$\((.*?)\)\$`)

// execReduce folds N parallel collections through the formula span. The
// span holds the fold unit written once (separator defaults to " + ") or
// twice with the separator literally between the two copies.
func (e *Engine) execReduce(d *directive.Directive, body string) (string, error) {
	cols := make([][]string, len(d.Vars))
	length := -1
	for i, prop := range d.Sources {
		info, err := e.src.PropInfo(prop)
		if err != nil {
			return "", err
		}
		if info.Kind != gojaff.PropList {
			return "", errors.Wrapf(gojaff.ErrShapeMismatch,
				"REDUCE source %q is an expression property, not a list", prop)
		}
		list, err := e.src.ListProperty(prop)
		if err != nil {
			return "", err
		}
		if list.Shape() != gojaff.Flat {
			return "", errors.Wrapf(gojaff.ErrShapeMismatch, "REDUCE source %q is %s", prop, list.Shape())
		}
		if length >= 0 && list.Len() != length {
			return "", errors.Wrapf(gojaff.ErrLengthMismatch,
				"REDUCE source %q has %d elements, expected %d", prop, list.Len(), length)
		}
		length = list.Len()
		cols[i] = list.Values()
	}

	matches := reduceSpanRx.FindAllStringSubmatchIndex(body, -1)
	if len(matches) != 1 {
		return "", errors.Wrapf(gojaff.ErrMalformedBlock,
			"REDUCE body must contain exactly one $(...)$ span, found %d", len(matches))
	}
	m := matches[0]
	span := body[m[2]:m[3]]

	varRx, err := varNameRx(d.Vars)
	if err != nil {
		return "", err
	}
	unit, sep, err := inferUnit(span, d.Vars, varRx)
	if err != nil {
		return "", err
	}

	byName := make(map[string][]string, len(d.Vars))
	for i, v := range d.Vars {
		byName[v] = cols[i]
	}
	copies := make([]string, length)
	for i := 0; i < length; i++ {
		copies[i] = varRx.ReplaceAllStringFunc(unit, func(name string) string {
			return byName[name][i]
		})
	}

	return body[:m[0]] + strings.Join(copies, sep) + body[m[1]:], nil
}

func varNameRx(vars []string) (*regexp.Regexp, error) {
	names := make([]string, len(vars))
	copy(names, vars)
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })
	for i, n := range names {
		names[i] = regexp.QuoteMeta(n)
	}
	return regexp.Compile(`\b(?:` + strings.Join(names, "|") + `)\b`)
}

// inferUnit recovers the fold unit and separator from the span. With each
// variable referenced once the whole span is the unit and the fold is a
// sum; with each referenced twice the span must read unit+sep+unit.
func inferUnit(span string, vars []string, varRx *regexp.Regexp) (unit, sep string, err error) {
	occ := varRx.FindAllStringIndex(span, -1)
	k := len(vars)

	switch len(occ) {
	case k:
		return span, " + ", nil

	case 2 * k:
		for i := 0; i < k; i++ {
			if span[occ[i][0]:occ[i][1]] != span[occ[k+i][0]:occ[k+i][1]] {
				return "", "", errors.Wrapf(gojaff.ErrMalformedBlock,
					"second half of REDUCE span does not mirror the first: %q", span)
			}
		}
		lead := span[:occ[0][0]]
		tail := span[occ[2*k-1][1]:]
		unit = span[:occ[k-1][1]] + tail
		sepBegin := occ[k-1][1] + len(tail)
		sepEnd := occ[k][0] - len(lead)
		if sepBegin > sepEnd {
			return "", "", errors.Wrapf(gojaff.ErrMalformedBlock, "cannot infer REDUCE separator in %q", span)
		}
		sep = span[sepBegin:sepEnd]
		if unit+sep+unit != span {
			return "", "", errors.Wrapf(gojaff.ErrMalformedBlock,
				"REDUCE span %q is not two copies of %q", span, unit)
		}
		return unit, sep, nil
	}

	return "", "", errors.Wrapf(gojaff.ErrMalformedBlock,
		"REDUCE span references %d variable occurrence(s), expected %d or %d", len(occ), k, 2*k)
}
