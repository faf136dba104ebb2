package network

import (
	"math"
	"os"
	"path"
	"strings"
	"testing"
)

func TestSpeciesExplosion(t *testing.T) {
	masses := AtomMasses()

	sp, err := NewSpecies("H2O+", masses, 0)
	if err != nil {
		t.Fatal(err)
	}
	if sp.Serialized != "+/H/H/O" {
		t.Fatal(sp.Serialized)
	}
	if sp.Charge != 1 {
		t.Fatal("charge")
	}
	if sp.FIdx != "idx_H2Oj" {
		t.Fatal(sp.FIdx)
	}

	oh2, err := NewSpecies("OH2+", masses, 1)
	if err != nil {
		t.Fatal(err)
	}
	if oh2.Serialized != sp.Serialized {
		t.Fatal("isomers must serialize the same")
	}

	if _, err := NewSpecies("Xq", masses, 0); err == nil {
		t.Fatal("unknown atom accepted")
	}
	if _, err := NewSpecies("E", masses, 0); err == nil {
		t.Fatal("bad electron spelling accepted")
	}
}

func TestElectronAndChargeMasses(t *testing.T) {
	masses := AtomMasses()

	e, err := NewSpecies("e-", masses, 0)
	if err != nil {
		t.Fatal(err)
	}
	if e.Charge != -1 || math.Abs(e.Mass-electronMass) > 1e-35 {
		t.Fatalf("charge %d mass %g", e.Charge, e.Mass)
	}

	h, _ := NewSpecies("H", masses, 1)
	hp, _ := NewSpecies("H+", masses, 2)
	if !(hp.Mass < h.Mass) {
		t.Fatal("cation must be lighter than the neutral")
	}
	if math.Abs((h.Mass-hp.Mass)-electronMass) > 1e-35 {
		t.Fatal("mass difference is not one electron")
	}
}

func TestSpeciesLatex(t *testing.T) {
	masses := AtomMasses()
	sp, _ := NewSpecies("H2O+", masses, 0)
	if sp.Latex != "{\\rm H_{2}O^{+}}" {
		t.Fatal(sp.Latex)
	}
}

func TestParsePrizmo(t *testing.T) {
	p, err := parsePrizmo("H + CO -> HCO [10, 1d4] 1.2e-10 * sqrt(tgas)")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Reactants) != 2 || p.Reactants[1] != "CO" || len(p.Products) != 1 || p.Products[0] != "HCO" {
		t.Fatalf("%+v", p)
	}
	if p.Tmin != 10 || p.Tmax != 1e4 {
		t.Fatalf("bounds %v %v", p.Tmin, p.Tmax)
	}

	p, err = parsePrizmo("H+ + E -> H [,] 1e-12")
	if err != nil {
		t.Fatal(err)
	}
	if p.Reactants[1] != "e-" {
		t.Fatalf("electron spelling: %+v", p.Reactants)
	}
	if !math.IsNaN(p.Tmin) || !math.IsNaN(p.Tmax) {
		t.Fatal("empty bounds must be unbounded")
	}
}

func TestParseUDFA(t *testing.T) {
	p, err := parseUDFA("1:NN:H2:O:OH:H:::x:1.0e-10:0.5:200:20:300")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Reactants) != 2 || len(p.Products) != 2 {
		t.Fatalf("%+v", p)
	}
	if p.Tmin != 20 || p.Tmax != 300 {
		t.Fatalf("bounds %v %v", p.Tmin, p.Tmax)
	}
	for _, frag := range []string{"1.00e-10", "(tgas / 3e2)**(0.50)", "exp(-200.00 / tgas)"} {
		if !strings.Contains(p.Rate, frag) {
			t.Fatalf("rate %q missing %q", p.Rate, frag)
		}
	}

	p, err = parseUDFA("2:CR:H2:CRP:H:H:::x:0:0:1.3e-17:5:41000")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Reactants) != 1 || p.Reactants[0] != "H2" {
		t.Fatalf("CRP not skipped: %+v", p.Reactants)
	}
	if p.Rate != "1.30e-17 * crate" {
		t.Fatal(p.Rate)
	}
}

func writeNetwork(t *testing.T, text string) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "jaffnet*")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	fname := path.Join(dir, "react_test.dat")
	if err := os.WriteFile(fname, []byte(text), 0644); err != nil {
		t.Fatal(err)
	}
	return fname
}

const testNetwork = `# tiny test network
H + CO -> HCO [10, 1d4] 1.2e-10 * sqrt(tgas)
H+ + e- -> H [,] 2.5e-12
H2 + CO+ -> HCO+ + H [,] 7.5e-10
`

func TestLoadNetwork(t *testing.T) {
	fname := writeNetwork(t, testNetwork)
	net, err := LoadNetwork(fname, "")
	if err != nil {
		t.Fatal(err)
	}

	if net.Label != "react_test" {
		t.Fatal(net.Label)
	}
	if len(net.Reactions) != 3 {
		t.Fatalf("%d reactions", len(net.Reactions))
	}
	want := []string{"H", "CO", "HCO", "H+", "e-", "H2", "CO+", "HCO+"}
	if len(net.Species) != len(want) {
		t.Fatalf("%d species", len(net.Species))
	}
	for i, name := range want {
		if net.Species[i].Name != name {
			t.Fatalf("species %d = %s, want %s", i, net.Species[i].Name, name)
		}
	}

	if i, ok := net.ReactionIndex("H+ + e- -> H"); !ok || i != 1 {
		t.Fatal("reaction index")
	}
	if i, ok := net.ElectronIndex(); !ok || i != 4 {
		t.Fatal("electron index")
	}

	// The bounded rate gets its temperature clamped.
	if !strings.Contains(net.Reactions[0].Rate, "max(") || !strings.Contains(net.Reactions[0].Rate, "min(") {
		t.Fatal(net.Reactions[0].Rate)
	}
	if strings.Contains(net.Reactions[1].Rate, "max(") {
		t.Fatal(net.Reactions[1].Rate)
	}
}

func TestPrizmoVariables(t *testing.T) {
	fname := writeNetwork(t, "VARIABLES{\n  T32 = tgas / 3e2\n}\nH + H -> H2 [,] 1e-10 * t32\n")
	net, err := LoadNetwork(fname, "")
	if err != nil {
		t.Fatal(err)
	}
	if net.Reactions[0].Rate != "1e-10 * (tgas/3e2)" {
		t.Fatal(net.Reactions[0].Rate)
	}
}

func TestElements(t *testing.T) {
	fname := writeNetwork(t, testNetwork)
	net, err := LoadNetwork(fname, "")
	if err != nil {
		t.Fatal(err)
	}

	elems := NewElements(net)
	if len(elems.Names) != 4 {
		t.Fatalf("%v", elems.Names)
	}
	// Sorted: C, H, O, e.
	if elems.Names[0] != "C" || elems.Names[1] != "H" || elems.Names[2] != "O" || elems.Names[3] != "e" {
		t.Fatalf("%v", elems.Names)
	}

	density := elems.DensityMatrix()
	hRow := density[1]
	// H2 has two hydrogens.
	if i, _ := net.SpeciesIndex("H2"); hRow[i] != 2 {
		t.Fatalf("%v", hRow)
	}
	truth := elems.TruthMatrix()
	if i, _ := net.SpeciesIndex("CO"); truth[1][i] != 0 || truth[0][i] != 1 {
		t.Fatal("truth matrix")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	fname := writeNetwork(t, testNetwork)
	net, err := LoadNetwork(fname, "")
	if err != nil {
		t.Fatal(err)
	}

	data, err := net.MarshalSnapshot()
	if err != nil {
		t.Fatal(err)
	}
	back, err := FromSnapshot(data)
	if err != nil {
		t.Fatal(err)
	}

	if back.Label != net.Label || len(back.Species) != len(net.Species) || len(back.Reactions) != len(net.Reactions) {
		t.Fatal("snapshot lost shape")
	}
	for i := range net.Reactions {
		if back.Reactions[i].Verbatim() != net.Reactions[i].Verbatim() {
			t.Fatal("reaction order changed")
		}
		if back.Reactions[i].Rate != net.Reactions[i].Rate {
			t.Fatal("rate changed")
		}
	}
	if !math.IsNaN(back.Reactions[1].Tmin) {
		t.Fatal("unbounded tmin must stay NaN")
	}
}
