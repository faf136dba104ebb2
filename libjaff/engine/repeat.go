package engine

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/jaff-systems/gojaff/gojaff"
	"github.com/jaff-systems/gojaff/libjaff/directive"
)

// cseMarker is the marker carried by a temporary-declaration body line.
const cseMarker = "$cse$"

// cseRefRx matches the canonical temporary names the expression builder
// emits; consuming lines rename them to the declared variable name.
var cseRefRx = regexp.MustCompile(`\bcse(\d+)\b`)

func (e *Engine) execRepeat(d *directive.Directive, body string) (string, error) {
	prop := d.Sources[0]
	info, err := e.src.PropInfo(prop)
	if err != nil {
		return "", err
	}

	valueVar, err := repeatValueVar(d)
	if err != nil {
		return "", err
	}
	vertical := d.HasVar("idx")
	useCSE := d.HasVar("cse")

	if useCSE && !info.SupportsCSE {
		return "", errors.Wrapf(gojaff.ErrMalformedBlock, "property %q does not support cse", prop)
	}

	if info.Kind == gojaff.PropExpr {
		if d.Sort {
			return "", errors.Wrapf(gojaff.ErrMalformedBlock, "SORT on expression property %q", prop)
		}
		if !vertical {
			return "", errors.Wrapf(gojaff.ErrMalformedBlock, "expression property %q requires an idx binding", prop)
		}
		exprs, temps, err := e.src.ExpressionProperty(prop, gojaff.ExprOpts{CSE: useCSE, DEDT: d.DEDT})
		if err != nil {
			return "", err
		}
		return e.expandExpr(body, valueVar, prop, exprs, temps, useCSE)
	}

	list, err := e.src.ListProperty(prop)
	if err != nil {
		return "", err
	}
	if d.Sort {
		if list, err = list.SortedByText(); err != nil {
			return "", err
		}
	}

	if vertical {
		return expandListVertical(body, valueVar, list)
	}
	return expandListHorizontal(body, valueVar, list)
}

// repeatValueVar extracts the single bound value variable, ignoring the
// reserved idx and cse bindings.
func repeatValueVar(d *directive.Directive) (string, error) {
	var value []string
	for _, v := range d.Vars {
		if v != "idx" && v != "cse" {
			value = append(value, v)
		}
	}
	if len(value) != 1 {
		return "", errors.Wrapf(gojaff.ErrMalformedBlock,
			"REPEAT needs exactly one value variable, got %v", value)
	}
	return value[0], nil
}

// expandListVertical duplicates each marker-bearing body line once per
// element, pairing idx markers with element coordinates.
func expandListVertical(body, valueVar string, list gojaff.IndexedList) (string, error) {
	marker := markerOf(valueVar)
	var out strings.Builder

	for _, line := range splitLines(body) {
		if !strings.Contains(line.text, marker) || !strings.Contains(line.text, "$idx") {
			out.WriteString(line.raw())
			continue
		}
		spans := findIdxSpans(line.text)

		switch {
		case list.Shape() == gojaff.Flat:
			if len(spans) != 1 {
				return "", arityErr(line.text, len(spans), 1)
			}
			for i := 0; i < list.Len(); i++ {
				el := list.At(i)
				ln := substituteIdx(line.text, spans, el.Coords())
				ln = strings.ReplaceAll(ln, marker, el.Leaf())
				out.WriteString(ln + line.eol)
			}

		case list.Shape() == gojaff.Nested && len(spans) == 1:
			// One idx over a nested list: the row expands through a
			// horizontal array pattern on the same line.
			for i := 0; i < list.Len(); i++ {
				el := list.At(i)
				row, _ := el.Row()
				ln := substituteIdx(line.text, spans, el.Coords())
				ln, ok := expandHorizontal(ln, marker, row.Values())
				if !ok {
					return "", errors.Wrapf(gojaff.ErrShapeMismatch,
						"nested property needs an array pattern around %s: %q", marker, line.text)
				}
				out.WriteString(ln + line.eol)
			}

		default:
			flat := list.Flatten()
			if len(spans) != flat.Arity() {
				return "", arityErr(line.text, len(spans), flat.Arity())
			}
			for i := 0; i < flat.Len(); i++ {
				el := flat.At(i)
				ln := substituteIdx(line.text, spans, el.Coords())
				ln = strings.ReplaceAll(ln, marker, el.Leaf())
				out.WriteString(ln + line.eol)
			}
		}
	}
	return out.String(), nil
}

// expandListHorizontal rewrites the bracketed single-item pattern around
// the marker into an inline array literal. Flat sources only.
func expandListHorizontal(body, valueVar string, list gojaff.IndexedList) (string, error) {
	if list.Shape() != gojaff.Flat {
		return "", errors.Wrapf(gojaff.ErrShapeMismatch,
			"horizontal expansion requires a flat list, got %s", list.Shape())
	}
	marker := markerOf(valueVar)
	var out strings.Builder
	for _, line := range splitLines(body) {
		if strings.Contains(line.text, marker) {
			if ln, ok := expandHorizontal(line.text, marker, list.Values()); ok {
				out.WriteString(ln + line.eol)
				continue
			}
		}
		out.WriteString(line.raw())
	}
	return out.String(), nil
}

// expandExpr handles expression properties: an optional temporary
// declaration line (carrying $cse$) followed by the value line.
// Declarations are recorded per property, so consuming one property
// never satisfies another property's declaration requirement.
func (e *Engine) expandExpr(body, valueVar, prop string, exprs, temps gojaff.IndexedList, useCSE bool) (string, error) {
	marker := markerOf(valueVar)
	var out strings.Builder

	for _, line := range splitLines(body) {
		switch {
		case useCSE && strings.Contains(line.text, cseMarker):
			if e.cse[prop] != nil {
				// This property's temporaries were already declared by
				// an earlier block.
				continue
			}
			spans := findIdxSpans(line.text)
			if len(spans) != 1 {
				return "", arityErr(line.text, len(spans), 1)
			}
			st, err := declareCSE(line.text, spans[0])
			if err != nil {
				return "", err
			}
			e.cse[prop] = st
			for i := 0; i < temps.Len(); i++ {
				el := temps.At(i)
				ln := substituteIdx(line.text, spans, el.Coords())
				ln = strings.ReplaceAll(ln, cseMarker, st.renameTemps(el.Leaf()))
				out.WriteString(ln + line.eol)
			}

		case strings.Contains(line.text, marker) && strings.Contains(line.text, "$idx"):
			st := e.cse[prop]
			if useCSE && temps.Len() > 0 && st == nil {
				return "", errors.Wrapf(gojaff.ErrNoDeclaration,
					"no temporary declaration for %q before: %q", prop, line.text)
			}
			flat := exprs.Flatten()
			spans := findIdxSpans(line.text)
			if len(spans) != flat.Arity() {
				return "", arityErr(line.text, len(spans), flat.Arity())
			}
			for i := 0; i < flat.Len(); i++ {
				el := flat.At(i)
				ln := substituteIdx(line.text, spans, el.Coords())
				ln = strings.ReplaceAll(ln, marker, st.renameTemps(el.Leaf()))
				out.WriteString(ln + line.eol)
			}

		default:
			out.WriteString(line.raw())
		}
	}
	return out.String(), nil
}

// declareCSE reads the temporary variable name off the declaration line:
// the last word before the idx marker.
func declareCSE(line string, span idxSpan) (*cseState, error) {
	before := line[:span.begin]
	fields := strings.Fields(before)
	if len(fields) == 0 {
		return nil, errors.Wrapf(gojaff.ErrMalformedBlock, "no variable name before $idx$ in %q", line)
	}
	return &cseState{varName: fields[len(fields)-1]}, nil
}

// renameTemps rewrites canonical cseN references to the declared name.
func (st *cseState) renameTemps(expr string) string {
	if st == nil || st.varName == "cse" {
		return expr
	}
	return cseRefRx.ReplaceAllString(expr, st.varName+"${1}")
}

func arityErr(line string, got, want int) error {
	return errors.Wrapf(gojaff.ErrArityMismatch, "%q uses %d idx marker(s), property has %d coordinate(s)", line, got, want)
}

// horizRx matches "<open bracket> <quote?> MARKER <quote?> <separator?> <close bracket>".
// The open and close quote are captured separately and compared by hand
// since the regexp package has no back-references.
func horizRx(marker string) *regexp.Regexp {
	return regexp.MustCompile(`([\(\{<\[])\s*(["']?)` + regexp.QuoteMeta(marker) + `(["']?)([,\;\:\s]*)\s*([\)\}>\]])`)
}

// expandHorizontal rewrites the first bracket pattern around the marker
// into an inline literal over values, keeping the written quote style and
// separator (", " when the author wrote none).
func expandHorizontal(line, marker string, values []string) (string, bool) {
	m := horizRx(marker).FindStringSubmatchIndex(line)
	if m == nil {
		return line, false
	}
	group := func(i int) string {
		if m[2*i] < 0 {
			return ""
		}
		return line[m[2*i]:m[2*i+1]]
	}
	lb, q1, q2, sep, rb := group(1), group(2), group(3), group(4), group(5)
	if q1 != q2 {
		return line, false
	}
	if sep == "" {
		sep = ", "
	}

	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = q1 + v + q1
	}
	items := lb + strings.Join(quoted, sep) + rb
	return line[:m[0]] + items + line[m[1]:], true
}

// bodyLine is one body line split from its terminator so duplicated
// copies each keep the original line ending.
type bodyLine struct {
	text string
	eol  string
}

func (l bodyLine) raw() string { return l.text + l.eol }

func splitLines(body string) []bodyLine {
	var lines []bodyLine
	for len(body) > 0 {
		i := strings.IndexByte(body, '\n')
		if i < 0 {
			lines = append(lines, bodyLine{text: body})
			break
		}
		lines = append(lines, bodyLine{text: body[:i], eol: "\n"})
		body = body[i+1:]
	}
	return lines
}
