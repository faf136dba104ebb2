package directive

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/jaff-systems/gojaff/gojaff"
)

func TestParseLine(t *testing.T) {
	d, err := ParseLine("SUB nspec, label")
	if err != nil {
		t.Fatal(err)
	}
	if d.Cmd != CmdSub || len(d.Vars) != 2 || d.Vars[0] != "nspec" || d.Vars[1] != "label" {
		t.Fatalf("%+v", d)
	}

	d, err = ParseLine("REPEAT idx, specie IN species [SORT]")
	if err != nil {
		t.Fatal(err)
	}
	if d.Cmd != CmdRepeat || !d.Sort || d.Sources[0] != "species" {
		t.Fatalf("%+v", d)
	}
	if !d.HasVar("idx") || !d.HasVar("specie") || d.HasVar("rate") {
		t.Fatal("vars")
	}

	d, err = ParseLine("REPEAT idx, rate, cse IN rates")
	if err != nil {
		t.Fatal(err)
	}
	if !d.HasVar("cse") || d.Sort {
		t.Fatalf("%+v", d)
	}

	d, err = ParseLine("GET specie_idx, specie_mass FOR CO")
	if err != nil {
		t.Fatal(err)
	}
	if d.Cmd != CmdGet || d.Target != "CO" || len(d.Vars) != 2 {
		t.Fatalf("%+v", d)
	}

	d, err = ParseLine("GET reaction_idx FOR H + OH -> H2O")
	if err != nil {
		t.Fatal(err)
	}
	if d.Target != "H + OH -> H2O" {
		t.Fatalf("target %q", d.Target)
	}

	d, err = ParseLine("HAS specie e-")
	if err != nil {
		t.Fatal(err)
	}
	if d.Cmd != CmdHas || d.Vars[0] != "specie" || d.Target != "e-" {
		t.Fatalf("%+v", d)
	}

	d, err = ParseLine("REDUCE a, b IN tmins, tmaxes")
	if err != nil {
		t.Fatal(err)
	}
	if d.Cmd != CmdReduce || len(d.Vars) != 2 || len(d.Sources) != 2 {
		t.Fatalf("%+v", d)
	}
}

func TestParseLineErrors(t *testing.T) {
	for _, bad := range []string{
		"",
		"FROB x",
		"SUB",
		"REPEAT idx, specie",           // missing IN
		"GET specie_idx CO",            // missing FOR
		"HAS specie",                   // missing name
		"REDUCE a, b IN tmins",         // var/source count mismatch
		"REPEAT idx, x IN species [X]", // unknown modifier
	} {
		if _, err := ParseLine(bad); err == nil {
			t.Fatalf("accepted %q", bad)
		}
	}

	_, err := ParseLine(`REPEAT idx, specie IN species [REPLACE \+]`)
	if !errors.Is(err, gojaff.ErrInvalidReplace) {
		t.Fatalf("odd replace tokens: %v", err)
	}
	_, err = ParseLine(`REPEAT idx, specie IN species [REPLACE (+ x]`)
	if !errors.Is(err, gojaff.ErrInvalidReplace) {
		t.Fatalf("bad pattern: %v", err)
	}
}

func TestReplaceChain(t *testing.T) {
	d, err := ParseLine(`REPEAT idx, specie IN species [REPLACE \+ _plus REPLACE - _minus]`)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Replace) != 2 {
		t.Fatalf("%d rules", len(d.Replace))
	}
	if got := ApplyChain(d.Replace, "H+"); got != "H_plus" {
		t.Fatal(got)
	}
	if got := ApplyChain(d.Replace, "e-"); got != "e_minus" {
		t.Fatal(got)
	}
}

func TestReplaceBackrefs(t *testing.T) {
	rule, err := CompileReplace(`y\[(\d+)\]`, `n\1`)
	if err != nil {
		t.Fatal(err)
	}
	if got := rule.Apply("f = y[12] * y[3]"); got != "f = n12 * n3" {
		t.Fatal(got)
	}
}

func TestScan(t *testing.T) {
	text := "int n;\n" +
		"// $JAFF SUB nspec\n" +
		"n = $nspec$;\n" +
		"// $JAFF END\n" +
		"done\n"

	segs, err := Scan(text, "// ")
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 3 {
		t.Fatalf("%d segments", len(segs))
	}
	if segs[0].Literal != "int n;\n" {
		t.Fatalf("%q", segs[0].Literal)
	}
	b := segs[1].Block
	if b == nil || b.Directive.Cmd != CmdSub || b.Line != 2 {
		t.Fatalf("%+v", b)
	}
	if b.Body != "n = $nspec$;\n" || b.HeaderLine != "// $JAFF SUB nspec\n" || b.EndLine != "// $JAFF END\n" {
		t.Fatalf("%+v", b)
	}
	if segs[2].Literal != "done\n" {
		t.Fatalf("%q", segs[2].Literal)
	}
}

func TestScanErrors(t *testing.T) {
	_, err := Scan("// $JAFF SUB nspec\nbody\n", "// ")
	if !errors.Is(err, gojaff.ErrUnterminated) {
		t.Fatalf("unterminated: %v", err)
	}

	_, err = Scan("// $JAFF END\n", "// ")
	if !errors.Is(err, gojaff.ErrMalformedBlock) {
		t.Fatalf("stray END: %v", err)
	}

	nested := "// $JAFF SUB nspec\n// $JAFF SUB nreact\n// $JAFF END\n"
	_, err = Scan(nested, "// ")
	if !errors.Is(err, gojaff.ErrMalformedBlock) {
		t.Fatalf("nested: %v", err)
	}
}

func TestScanFortranComment(t *testing.T) {
	text := "!! $JAFF HAS element C\n  flag = $element$\n!! $JAFF END\n"
	segs, err := Scan(text, "!! ")
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 1 || segs[0].Block.Directive.Cmd != CmdHas {
		t.Fatal("fortran marker not recognized")
	}
}
