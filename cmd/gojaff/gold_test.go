package main

import (
	"fmt"
	"os"
	"path"
	"testing"

	"github.com/go-python/gpython/py"
)

const goldNetwork = `# gold test network
H + CO -> HCO [,] 1.00e-10
H+ + e- -> H [,] 2.5e-12
H2 + CO+ -> HCO+ + H [,] 7.5e-10
`

const cxxTemplate = `// $JAFF SUB nspec, nreact
#define NSPEC $nspec$
#define NREACT $nreact$
// $JAFF END
// $JAFF HAS specie H2
#define HAS_H2 $specie$
// $JAFF END
// $JAFF GET specie_idx FOR e-
#define IDX_E $specie_idx$
// $JAFF END
// $JAFF REPEAT idx, specie IN species
y[$idx$] = 0.0; // $specie$
// $JAFF END
// $JAFF REPEAT idx, rate IN rates
k[$idx$] = $rate$;
// $JAFF END
`

const cxxGold = `// $JAFF SUB nspec, nreact
#define NSPEC 8
#define NREACT 3
// $JAFF END
// $JAFF HAS specie H2
#define HAS_H2 1
// $JAFF END
// $JAFF GET specie_idx FOR e-
#define IDX_E 4
// $JAFF END
// $JAFF REPEAT idx, specie IN species
y[0] = 0.0; // H
y[1] = 0.0; // CO
y[2] = 0.0; // HCO
y[3] = 0.0; // H+
y[4] = 0.0; // e-
y[5] = 0.0; // H2
y[6] = 0.0; // CO+
y[7] = 0.0; // HCO+
// $JAFF END
// $JAFF REPEAT idx, rate IN rates
k[0] = 1.00e-10;
k[1] = 2.5e-12;
k[2] = 7.5e-10;
// $JAFF END
`

const f90Template = `!! $JAFF REPEAT idx, specie IN species
n($idx+1$) = 0d0 !! $specie$
!! $JAFF END
`

const f90Gold = `!! $JAFF REPEAT idx, specie IN species
n(1) = 0d0 !! H
n(2) = 0d0 !! CO
n(3) = 0d0 !! HCO
n(4) = 0d0 !! H+
n(5) = 0d0 !! e-
n(6) = 0d0 !! H2
n(7) = 0d0 !! CO+
n(8) = 0d0 !! HCO+
!! $JAFF END
`

func writeGoldInputs(t *testing.T) (dir string) {
	t.Helper()
	dir, err := os.MkdirTemp("", "gold*")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	for name, text := range map[string]string{
		"react_test.dat": goldNetwork,
		"commons.cpp":    cxxTemplate,
		"ode.f90":        f90Template,
	} {
		if err := os.WriteFile(path.Join(dir, name), []byte(text), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func readOut(t *testing.T, dir, name string) string {
	t.Helper()
	buf, err := os.ReadFile(path.Join(dir, "out", name))
	if err != nil {
		t.Fatal(err)
	}
	return string(buf)
}

func TestGold(t *testing.T) {
	dir := writeGoldInputs(t)

	cfg := config{
		networkPath: path.Join(dir, "react_test.dat"),
		outDir:      path.Join(dir, "out"),
		files: []string{
			path.Join(dir, "commons.cpp"),
			path.Join(dir, "ode.f90"),
		},
		cache: path.Join(dir, "catalog"),
	}
	if err := generateAll(cfg); err != nil {
		t.Fatal(err)
	}

	if got := readOut(t, dir, "commons.cpp"); got != cxxGold {
		t.Fatalf("commons.cpp:\n%s", got)
	}
	if got := readOut(t, dir, "ode.f90"); got != f90Gold {
		t.Fatalf("ode.f90:\n%s", got)
	}

	// Second run hits the network catalog and must produce identical output.
	if err := generateAll(cfg); err != nil {
		t.Fatal(err)
	}
	if got := readOut(t, dir, "commons.cpp"); got != cxxGold {
		t.Fatalf("commons.cpp after catalog hit:\n%s", got)
	}
}

func TestPyScript(t *testing.T) {
	dir := writeGoldInputs(t)
	outfile := path.Join(dir, "out", "commons.cpp")

	script := fmt.Sprintf(`import _jaff

net = _jaff.LoadNetwork(%q)
if net.NumSpecies() != 8 or net.NumReactions() != 3:
    raise RuntimeError("bad network")
if not net.HasSpecie("HCO+"):
    raise RuntimeError("missing species")
net.Generate(%q, %q)
`, path.Join(dir, "react_test.dat"), path.Join(dir, "commons.cpp"), outfile)

	pyFile := path.Join(dir, "gen.py")
	if err := os.WriteFile(pyFile, []byte(script), 0644); err != nil {
		t.Fatal(err)
	}

	ctx := py.NewContext(py.DefaultContextOpts())
	_, err := py.RunFile(ctx, pyFile, py.CompileOpts{}, nil)
	ctx.Close()
	<-ctx.Done()
	if err != nil {
		py.TracebackDump(err)
		t.Fatal(err)
	}

	if got := readOut(t, dir, "commons.cpp"); got != cxxGold {
		t.Fatalf("generated via gpython:\n%s", got)
	}
}
