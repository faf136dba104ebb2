package codegen

import (
	"os"
	"path"
	"strings"
	"testing"

	"github.com/jaff-systems/gojaff/gojaff"
	"github.com/jaff-systems/gojaff/libjaff/lang"
	"github.com/jaff-systems/gojaff/libjaff/network"
)

const testNetwork = `# tiny test network
H + CO -> HCO [,] 1.00e-10
H+ + e- -> H [,] 2.5e-12
H2 + CO+ -> HCO+ + H [,] 7.5e-10
`

// Species order: H CO HCO H+ e- H2 CO+ HCO+

func newTestGen(t *testing.T) *Generator {
	t.Helper()
	dir, err := os.MkdirTemp("", "jaffgen*")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	fname := path.Join(dir, "react_test.dat")
	if err := os.WriteFile(fname, []byte(testNetwork), 0644); err != nil {
		t.Fatal(err)
	}
	net, err := network.LoadNetwork(fname, "")
	if err != nil {
		t.Fatal(err)
	}
	prof, err := lang.ForName("cxx")
	if err != nil {
		t.Fatal(err)
	}
	return New(net, prof, "commons.cpp")
}

func scalar(t *testing.T, g *Generator, name string) gojaff.Scalar {
	t.Helper()
	v, err := g.Scalar(name)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestScalars(t *testing.T) {
	g := newTestGen(t)

	if v := scalar(t, g, "nspec"); !v.IsInt || v.Int != 8 {
		t.Fatalf("nspec %+v", v)
	}
	if v := scalar(t, g, "nreact"); v.Int != 3 {
		t.Fatalf("nreact %+v", v)
	}
	if v := scalar(t, g, "nelem"); v.Int != 4 {
		t.Fatalf("nelem %+v", v)
	}
	if v := scalar(t, g, "label"); v.Text != "react_test" {
		t.Fatal(v.Text)
	}
	if v := scalar(t, g, "filename"); v.Text != "commons.cpp" {
		t.Fatal(v.Text)
	}
	if v := scalar(t, g, "e_idx"); v.Int != 4 {
		t.Fatalf("e_idx %+v", v)
	}
	if v := scalar(t, g, "dedt"); !strings.HasPrefix(v.Text, "flux[0] * dh[0] + ") {
		t.Fatal(v.Text)
	}
	if _, err := g.Scalar("nope"); err == nil {
		t.Fatal("unknown scalar accepted")
	}
}

func TestListProperties(t *testing.T) {
	g := newTestGen(t)

	sp, err := g.ListProperty("species")
	if err != nil {
		t.Fatal(err)
	}
	if sp.Len() != 8 || sp.At(0).Leaf() != "H" || sp.At(4).Leaf() != "e-" {
		t.Fatal(sp.String())
	}

	norm, _ := g.ListProperty("species_with_normalized_sign")
	if norm.At(3).Leaf() != "Hp" || norm.At(4).Leaf() != "en" {
		t.Fatal(norm.String())
	}

	ch, _ := g.ListProperty("charges")
	if ch.At(3).Leaf() != "1" || ch.At(4).Leaf() != "-1" || ch.At(0).Leaf() != "0" {
		t.Fatal(ch.String())
	}

	rr, _ := g.ListProperty("reactants")
	if rr.Shape() != gojaff.Nested {
		t.Fatal(rr.Shape())
	}
	row, _ := rr.At(1).Row()
	if len(row.Values()) != 2 || row.Values()[1] != "e-" {
		t.Fatal(rr.String())
	}

	dm, _ := g.ListProperty("element_density_matrix")
	if dm.Shape() != gojaff.Nested || dm.Len() != 4 {
		t.Fatal(dm.String())
	}

	idx, _ := g.ListProperty("non_zero_charge_indices")
	if strings.Join(idx.Values(), " ") != "3 4 6 7" {
		t.Fatal(idx.String())
	}
}

func TestFluxExpressions(t *testing.T) {
	g := newTestGen(t)
	exprs, _, err := g.ExpressionProperty("flux_expressions", gojaff.ExprOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if exprs.At(0).Leaf() != "k[0] * y[idx_H] * y[idx_CO]" {
		t.Fatal(exprs.At(0).Leaf())
	}
	if exprs.At(1).Leaf() != "k[1] * y[idx_Hj] * y[idx_ek]" {
		t.Fatal(exprs.At(1).Leaf())
	}
}

func TestOdeExpressions(t *testing.T) {
	g := newTestGen(t)
	exprs, _, err := g.ExpressionProperty("ode_expressions", gojaff.ExprOpts{})
	if err != nil {
		t.Fatal(err)
	}
	// H is consumed by reaction 0 and produced by 1 and 2.
	if exprs.At(0).Leaf() != "- flux[0] + flux[1] + flux[2]" {
		t.Fatal(exprs.At(0).Leaf())
	}
	if exprs.At(2).Leaf() != "+ flux[0]" {
		t.Fatal(exprs.At(2).Leaf())
	}
	if exprs.At(4).Leaf() != "- flux[1]" {
		t.Fatal(exprs.At(4).Leaf())
	}
}

func TestRhsesCSE(t *testing.T) {
	g := newTestGen(t)

	exprs, temps, err := g.ExpressionProperty("rhses", gojaff.ExprOpts{CSE: true})
	if err != nil {
		t.Fatal(err)
	}
	if temps.Len() != 3 {
		t.Fatal(temps.String())
	}
	if temps.At(0).Leaf() != "k[0] * y[idx_H] * y[idx_CO]" {
		t.Fatal(temps.At(0).Leaf())
	}
	if exprs.At(0).Leaf() != "- cse0 + cse1 + cse2" {
		t.Fatal(exprs.At(0).Leaf())
	}

	// Without CSE the products stay inline.
	exprs, temps, err = g.ExpressionProperty("rhses", gojaff.ExprOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if temps.Len() != 0 {
		t.Fatal(temps.String())
	}
	if exprs.At(2).Leaf() != "+ k[0] * y[idx_H] * y[idx_CO]" {
		t.Fatal(exprs.At(2).Leaf())
	}
}

func jacEntry(t *testing.T, l gojaff.IndexedList, s, tt int) string {
	t.Helper()
	for i := 0; i < l.Len(); i++ {
		el := l.At(i)
		if el.Coord(0) == s && el.Coord(1) == tt {
			return el.Leaf()
		}
	}
	t.Fatalf("no jacobian entry (%d, %d)", s, tt)
	return ""
}

func TestJacobian(t *testing.T) {
	g := newTestGen(t)
	exprs, _, err := g.ExpressionProperty("jacobian", gojaff.ExprOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if exprs.Shape() != gojaff.MultiIndex || exprs.Arity() != 2 {
		t.Fatal(exprs.String())
	}

	// d(H)/d(H): only reaction 0 has H among its reactants.
	if got := jacEntry(t, exprs, 0, 0); got != "- k[0] * y[idx_CO]" {
		t.Fatal(got)
	}
	// d(H)/d(e-): reaction 1 produces H from H+ and e-.
	if got := jacEntry(t, exprs, 0, 4); got != "+ k[1] * y[idx_Hj]" {
		t.Fatal(got)
	}
	// d(HCO)/d(CO).
	if got := jacEntry(t, exprs, 2, 1); got != "+ k[0] * y[idx_H]" {
		t.Fatal(got)
	}
}

func TestJacobianCSE(t *testing.T) {
	g := newTestGen(t)
	exprs, temps, err := g.ExpressionProperty("jacobian", gojaff.ExprOpts{CSE: true})
	if err != nil {
		t.Fatal(err)
	}
	// k[0] * y[idx_H] feeds d(CO)/d(CO), d(H)/d(CO) and d(HCO)/d(CO).
	found := false
	for i := 0; i < temps.Len(); i++ {
		if temps.At(i).Leaf() == "k[0] * y[idx_H]" {
			found = true
		}
	}
	if !found {
		t.Fatal(temps.String())
	}
	if got := jacEntry(t, exprs, 2, 1); !strings.HasPrefix(got, "+ cse") {
		t.Fatal(got)
	}
}

func TestJacobianDEDT(t *testing.T) {
	g := newTestGen(t)
	exprs, _, err := g.ExpressionProperty("jacobian", gojaff.ExprOpts{DEDT: true})
	if err != nil {
		t.Fatal(err)
	}
	// The energy column for H references the rate-derivative table.
	if got := jacEntry(t, exprs, 0, 8); !strings.HasPrefix(got, "- dkdt[0] * y[idx_H] * y[idx_CO]") {
		t.Fatal(got)
	}
	// The corner couples enthalpies to rate derivatives.
	if got := jacEntry(t, exprs, 8, 8); !strings.Contains(got, "dh[0] * dkdt[0] * y[idx_H] * y[idx_CO]") {
		t.Fatal(got)
	}
	// The energy row for CO.
	if got := jacEntry(t, exprs, 8, 1); !strings.Contains(got, "dh[0] * k[0] * y[idx_H]") {
		t.Fatal(got)
	}
}

func TestLookupAndContains(t *testing.T) {
	g := newTestGen(t)

	attrs, err := g.Lookup(gojaff.EntitySpecie, "CO")
	if err != nil {
		t.Fatal(err)
	}
	if attrs["idx"].Int != 1 || attrs["charge"].Int != 0 {
		t.Fatalf("%+v", attrs)
	}

	attrs, err = g.Lookup(gojaff.EntityReaction, "H+ + e- -> H")
	if err != nil {
		t.Fatal(err)
	}
	if attrs["idx"].Int != 1 || attrs["tmin"].Text != "nan" {
		t.Fatalf("%+v", attrs)
	}

	if _, err := g.Lookup(gojaff.EntitySpecie, "Xe"); err == nil {
		t.Fatal("missing species accepted")
	}
	if !g.Contains(gojaff.EntityElement, "C") || g.Contains(gojaff.EntitySpecie, "Xe") {
		t.Fatal("Contains")
	}
}

func TestFixPow(t *testing.T) {
	if got := fixPow("(tgas / 3e2)**(0.50)"); got != "pow((tgas / 3e2), (0.50))" {
		t.Fatal(got)
	}
	if got := fixPow("a + tgas**0.5 * b"); got != "a + pow(tgas, 0.5) * b" {
		t.Fatal(got)
	}
	if got := fixPow("no powers here"); got != "no powers here" {
		t.Fatal(got)
	}
}

func TestFactorCalls(t *testing.T) {
	exprs := []string{
		"1e-10*sqrt(max(min(tgas, 10000), 10))",
		"2e-10*sqrt(max(min(tgas, 10000), 10))",
	}
	out, temps := factorCalls(exprs, []bool{false, false})
	want := []string{"min(tgas, 10000)", "max(cse0, 10)", "sqrt(cse1)"}
	if len(temps) != len(want) {
		t.Fatalf("%v", temps)
	}
	for i := range want {
		if temps[i] != want[i] {
			t.Fatalf("%v", temps)
		}
	}
	if out[0] != "1e-10*cse2" || out[1] != "2e-10*cse2" {
		t.Fatalf("%v", out)
	}
}

func TestFactorCallsSkipsFlagged(t *testing.T) {
	exprs := []string{"exp(av) * photo", "exp(av) * 2.0", "exp(av) * 3.0"}
	out, temps := factorCalls(exprs, []bool{true, false, false})
	if len(temps) != 1 || temps[0] != "exp(av)" {
		t.Fatalf("%v", temps)
	}
	if out[0] != "exp(av) * photo" {
		t.Fatal(out[0])
	}
	if out[1] != "cse0 * 2.0" {
		t.Fatal(out[1])
	}
}
