package codegen

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// The engine renames these canonical temporary names to whatever the
// template's declaration line binds, so the builders always emit cse0..N.

var callRx = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*\(`)

type callTerm struct {
	text  string
	first int
	count int
}

// factorCalls is the syntactic common-subexpression pass over rate
// expressions: every function-call subterm (nested ones included) that
// occurs more than once across the collection becomes a temporary.
// Entries flagged in skip neither contribute nor receive temporaries.
// Temporaries are ordered so a term contained in another is declared
// before its container.
func factorCalls(exprs []string, skip []bool) (out []string, temps []string) {
	seen := map[string]*callTerm{}
	for i, expr := range exprs {
		if skip[i] {
			continue
		}
		for _, loc := range callRx.FindAllStringIndex(expr, -1) {
			end := matchingClose(expr, loc[1]-1)
			text := expr[loc[0] : end+1]
			if f, ok := seen[text]; ok {
				f.count++
			} else {
				seen[text] = &callTerm{text: text, first: i<<20 | loc[0], count: 1}
			}
		}
	}

	var cands []*callTerm
	for _, f := range seen {
		if f.count >= 2 {
			cands = append(cands, f)
		}
	}
	if len(cands) == 0 {
		return exprs, nil
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].first < cands[j].first })

	// Dependency order: a candidate contained in another comes first so
	// its temporary exists when the container's body references it.
	var ordered []*callTerm
	for len(cands) > 0 {
		picked := 0
		for i, c := range cands {
			contains := false
			for j, other := range cands {
				if i != j && strings.Contains(c.text, other.text) {
					contains = true
					break
				}
			}
			if !contains {
				picked = i
				break
			}
		}
		ordered = append(ordered, cands[picked])
		cands = append(cands[:picked], cands[picked+1:]...)
	}

	names := make(map[string]string, len(ordered))
	for i, c := range ordered {
		names[c.text] = "cse" + strconv.Itoa(i)
	}

	// Longest first, so an outer term is swapped wholesale before its
	// inner pieces can be touched.
	substitute := func(s string, among []*callTerm) string {
		byLength := make([]*callTerm, len(among))
		copy(byLength, among)
		sort.Slice(byLength, func(i, j int) bool { return len(byLength[i].text) > len(byLength[j].text) })
		for _, c := range byLength {
			s = strings.ReplaceAll(s, c.text, names[c.text])
		}
		return s
	}

	temps = make([]string, len(ordered))
	for i, c := range ordered {
		temps[i] = substitute(c.text, ordered[:i])
	}

	out = make([]string, len(exprs))
	for i, expr := range exprs {
		if skip[i] {
			out[i] = expr
			continue
		}
		out[i] = substitute(expr, ordered)
	}
	return out, temps
}

// term is one signed product in an ODE or Jacobian entry.
type term struct {
	neg  bool
	coef int
	prod string
}

// renderTerms renders each entry's terms as a signed sum. With useCSE,
// products referenced by more than one term across the whole collection
// are factored into temporaries named in first-use order; entries with
// no terms render "0.0".
func renderTerms(entries [][]term, useCSE bool) (exprs []string, temps []string) {
	names := map[string]string{}
	if useCSE {
		count := map[string]int{}
		var order []string
		for _, ts := range entries {
			for _, t := range ts {
				if count[t.prod] == 0 {
					order = append(order, t.prod)
				}
				count[t.prod]++
			}
		}
		for _, prod := range order {
			if count[prod] >= 2 {
				names[prod] = "cse" + strconv.Itoa(len(temps))
				temps = append(temps, prod)
			}
		}
	}

	exprs = make([]string, len(entries))
	for i, ts := range entries {
		if len(ts) == 0 {
			exprs[i] = "0.0"
			continue
		}
		var b strings.Builder
		for j, t := range ts {
			if j > 0 {
				b.WriteByte(' ')
			}
			if t.neg {
				b.WriteString("- ")
			} else {
				b.WriteString("+ ")
			}
			if t.coef != 1 {
				b.WriteString(strconv.Itoa(t.coef))
				b.WriteString(" * ")
			}
			if name, ok := names[t.prod]; ok {
				b.WriteString(name)
			} else {
				b.WriteString(t.prod)
			}
		}
		exprs[i] = b.String()
	}
	return exprs, temps
}
