package codegen

import (
	"sort"
	"strconv"
	"strings"

	"github.com/jaff-systems/gojaff/gojaff"
	"github.com/jaff-systems/gojaff/libjaff/network"
)

// exprProps maps expression property names to their builders. The cse
// flag marks the properties a template may bind a cse variable against.
var exprProps = map[string]struct {
	cse bool
	fn  func(*Generator, gojaff.ExprOpts) (gojaff.IndexedList, gojaff.IndexedList, error)
}{
	"rates":            {cse: true, fn: (*Generator).rates},
	"flux_expressions": {fn: (*Generator).fluxExpressions},
	"ode_expressions":  {fn: (*Generator).odeExpressions},
	"odes":             {cse: true, fn: (*Generator).rhses},
	"rhses":            {cse: true, fn: (*Generator).rhses},
	"jacobian":         {cse: true, fn: (*Generator).jacobian},
}

// rates is the per-reaction rate coefficient collection. Rate text stays
// opaque except for two language adjustments: the #IDX# placeholder of
// photo rates is bound to the reaction index, and for C-family targets
// the ** power spelling becomes pow(). Photo rates never take part in
// common-subexpression factoring.
func (g *Generator) rates(opts gojaff.ExprOpts) (gojaff.IndexedList, gojaff.IndexedList, error) {
	exprs := make([]string, len(g.net.Reactions))
	skip := make([]bool, len(g.net.Reactions))
	for i, rea := range g.net.Reactions {
		rate := strings.ReplaceAll(rea.Rate, "#IDX#", strconv.Itoa(i+g.prof.IndexOffset))
		if g.prof.Name == "c" || g.prof.Name == "cxx" {
			rate = fixPow(rate)
		}
		exprs[i] = rate
		skip[i] = rea.IsPhoto()
	}

	if !opts.CSE {
		return gojaff.FlatList(exprs...), gojaff.IndexedList{}, nil
	}
	exprs, temps := factorCalls(exprs, skip)
	return gojaff.FlatList(exprs...), gojaff.FlatList(temps...), nil
}

// fluxExpressions is the per-reaction flux product k[i] * y[idx_A] * ...
func (g *Generator) fluxExpressions(gojaff.ExprOpts) (gojaff.IndexedList, gojaff.IndexedList, error) {
	exprs := make([]string, len(g.net.Reactions))
	for i, rea := range g.net.Reactions {
		exprs[i] = g.fluxProduct(rea)
	}
	return gojaff.FlatList(exprs...), gojaff.IndexedList{}, nil
}

// odeExpressions is the per-species signed sum over the flux array.
func (g *Generator) odeExpressions(gojaff.ExprOpts) (gojaff.IndexedList, gojaff.IndexedList, error) {
	entries := make([][]term, len(g.net.Species))
	for i, rea := range g.net.Reactions {
		ref := g.prof.Index("flux", i)
		for _, rr := range rea.Reactants {
			entries[rr.Index] = append(entries[rr.Index], term{neg: true, coef: 1, prod: ref})
		}
		for _, pp := range rea.Products {
			entries[pp.Index] = append(entries[pp.Index], term{coef: 1, prod: ref})
		}
	}
	exprs, _ := renderTerms(entries, false)
	return gojaff.FlatList(exprs...), gojaff.IndexedList{}, nil
}

// rhses is the per-species right-hand side with the fluxes written out as
// k-times-concentration products. With CSE the shared products become the
// temporaries, one per multiply-referenced reaction.
func (g *Generator) rhses(opts gojaff.ExprOpts) (gojaff.IndexedList, gojaff.IndexedList, error) {
	entries := make([][]term, len(g.net.Species))
	for _, rea := range g.net.Reactions {
		prod := g.fluxProduct(rea)
		for _, rr := range rea.Reactants {
			entries[rr.Index] = append(entries[rr.Index], term{neg: true, coef: 1, prod: prod})
		}
		for _, pp := range rea.Products {
			entries[pp.Index] = append(entries[pp.Index], term{coef: 1, prod: prod})
		}
	}
	exprs, temps := renderTerms(entries, opts.CSE)
	return gojaff.FlatList(exprs...), gojaff.FlatList(temps...), nil
}

// jacobian builds the nonzero entries of d(ode_s)/d(y_t) from the flux
// products: each reaction with t among its reactants contributes the
// partial product with one occurrence of t removed, weighted by the net
// stoichiometry of s. With DEDT an energy-balance row and column are
// appended at coordinate nspec; their entries reference the caller's
// per-reaction enthalpy (dh) and rate-derivative (dkdt) arrays.
func (g *Generator) jacobian(opts gojaff.ExprOpts) (gojaff.IndexedList, gojaff.IndexedList, error) {
	nspec := len(g.net.Species)
	type cell struct{ s, t int }
	entries := map[cell][]term{}

	for _, rea := range g.net.Reactions {
		net := stoichiometry(rea)
		reacted := counts(rea.Reactants)
		for _, tm := range sortedPairs(reacted) {
			t, m := tm[0], tm[1]
			partial := g.partialProduct(rea, t)
			for _, sn := range sortedPairs(net) {
				s, n := sn[0], sn[1]
				c := n * m
				entries[cell{s, t}] = append(entries[cell{s, t}], term{neg: c < 0, coef: abs(c), prod: partial})
			}
		}
	}

	if opts.DEDT {
		for _, rea := range g.net.Reactions {
			net := stoichiometry(rea)
			reacted := counts(rea.Reactants)
			dk := g.rateDerivativeProduct(rea)
			dh := g.prof.Index("dh", rea.Index)

			// d(ode_s)/d(tgas), scaled by the caller's dkdt table.
			for _, sn := range sortedPairs(net) {
				s, n := sn[0], sn[1]
				entries[cell{s, nspec}] = append(entries[cell{s, nspec}],
					term{neg: n < 0, coef: abs(n), prod: dk})
			}
			// d(dE/dt)/d(y_t).
			for _, tm := range sortedPairs(reacted) {
				t, m := tm[0], tm[1]
				entries[cell{nspec, t}] = append(entries[cell{nspec, t}],
					term{coef: m, prod: dh + " * " + g.partialProduct(rea, t)})
			}
			// d(dE/dt)/d(tgas).
			entries[cell{nspec, nspec}] = append(entries[cell{nspec, nspec}],
				term{coef: 1, prod: dh + " * " + dk})
		}
	}

	dim := nspec
	if opts.DEDT {
		dim++
	}

	// Render row-major so the emitted order is stable, collecting only
	// the nonzero cells.
	var ordered [][]term
	var coords []cell
	for s := 0; s < dim; s++ {
		for t := 0; t < dim; t++ {
			if ts, ok := entries[cell{s, t}]; ok {
				ordered = append(ordered, ts)
				coords = append(coords, cell{s, t})
			}
		}
	}
	exprs, temps := renderTerms(ordered, opts.CSE)

	var out gojaff.IndexedList
	for i, c := range coords {
		if err := out.Append(gojaff.Leaf(exprs[i], c.s, c.t)); err != nil {
			return gojaff.IndexedList{}, gojaff.IndexedList{}, err
		}
	}
	return out, gojaff.FlatList(temps...), nil
}

// fluxProduct renders the flux of one reaction: the rate coefficient
// times each reactant concentration, indexed by its fidx constant.
func (g *Generator) fluxProduct(rea *network.Reaction) string {
	s := g.prof.Index("k", rea.Index)
	for _, rr := range rea.Reactants {
		s += " * y" + g.prof.Open() + rr.FIdx + g.prof.Close()
	}
	return s
}

// partialProduct is the flux product with one occurrence of the species
// at index t removed: d(flux)/d(y_t) up to multiplicity.
func (g *Generator) partialProduct(rea *network.Reaction, t int) string {
	s := g.prof.Index("k", rea.Index)
	removed := false
	for _, rr := range rea.Reactants {
		if rr.Index == t && !removed {
			removed = true
			continue
		}
		s += " * y" + g.prof.Open() + rr.FIdx + g.prof.Close()
	}
	return s
}

// rateDerivativeProduct is the flux product with the rate coefficient
// replaced by the caller's dkdt table entry.
func (g *Generator) rateDerivativeProduct(rea *network.Reaction) string {
	s := g.prof.Index("dkdt", rea.Index)
	for _, rr := range rea.Reactants {
		s += " * y" + g.prof.Open() + rr.FIdx + g.prof.Close()
	}
	return s
}

// stoichiometry is the net coefficient per species index: products count
// positive, reactants negative.
func stoichiometry(rea *network.Reaction) map[int]int {
	net := map[int]int{}
	for _, rr := range rea.Reactants {
		net[rr.Index]--
	}
	for _, pp := range rea.Products {
		net[pp.Index]++
	}
	for i, n := range net {
		if n == 0 {
			delete(net, i)
		}
	}
	return net
}

func counts(sp []*network.Species) map[int]int {
	c := map[int]int{}
	for _, s := range sp {
		c[s.Index]++
	}
	return c
}

// sortedPairs flattens a species-index map into (index, count) pairs in
// ascending index order, so term order is stable run to run.
func sortedPairs(m map[int]int) [][2]int {
	out := make([][2]int, 0, len(m))
	for k, v := range m {
		out = append(out, [2]int{k, v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// fixPow rewrites the ** power spelling into pow(base, exp) for C-family
// targets. Operands are either parenthesized groups or bare
// identifier/number tokens.
func fixPow(expr string) string {
	for {
		i := strings.Index(expr, "**")
		if i < 0 {
			return expr
		}

		lend := i
		for lend > 0 && expr[lend-1] == ' ' {
			lend--
		}
		lbeg := lend
		if lend > 0 && expr[lend-1] == ')' {
			lbeg = matchingOpen(expr, lend-1)
		} else {
			for lbeg > 0 && isOperandByte(expr[lbeg-1]) {
				lbeg--
			}
		}

		rbeg := i + 2
		for rbeg < len(expr) && expr[rbeg] == ' ' {
			rbeg++
		}
		rend := rbeg
		if rend < len(expr) && expr[rend] == '(' {
			rend = matchingClose(expr, rend) + 1
		} else {
			for rend < len(expr) && isOperandByte(expr[rend]) {
				rend++
			}
		}

		expr = expr[:lbeg] + "pow(" + expr[lbeg:lend] + ", " + expr[rbeg:rend] + ")" + expr[rend:]
	}
}

func matchingOpen(s string, close int) int {
	depth := 0
	for i := close; i >= 0; i-- {
		switch s[i] {
		case ')':
			depth++
		case '(':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return 0
}

func matchingClose(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(s) - 1
}

func isOperandByte(c byte) bool {
	return c == '_' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
