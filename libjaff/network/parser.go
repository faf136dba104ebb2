package network

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/jaff-systems/gojaff/gojaff"
)

// parsedLine is one reaction line before species resolution.
type parsedLine struct {
	Reactants []string
	Products  []string
	Tmin      float64 // NaN when unbounded
	Tmax      float64
	Rate      string
}

// parsePrizmo reads "R1 + R2 -> P1 + P2 [tmin, tmax] rate". An empty or
// out-of-range bound means unbounded.
func parsePrizmo(line string) (parsedLine, error) {
	parts := strings.Split(strings.ReplaceAll(strings.TrimSpace(line), "[", "]"), "]")
	if len(parts) != 3 {
		return parsedLine{}, errors.Wrapf(gojaff.ErrBadNetworkFormat, "prizmo line %q", line)
	}
	reaction := strings.TrimSpace(parts[0])
	tlims := strings.TrimSpace(parts[1])
	rate := strings.TrimSpace(parts[2])

	p := parsedLine{Tmin: math.NaN(), Tmax: math.NaN()}
	if i := strings.IndexByte(tlims, ','); i >= 0 {
		if v, ok := parseFortranFloat(tlims[:i]); ok && v > 0 {
			p.Tmin = v
		}
		if v, ok := parseFortranFloat(tlims[i+1:]); ok && v < 1e8 {
			p.Tmax = v
		}
	}

	// HE must be rewritten before the bare-electron spellings.
	for _, rep := range [][2]string{
		{"HE", "He"}, {" E", " e-"}, {"E ", "e- "}, {"GRAIN0", "GRAIN"},
	} {
		reaction = strings.ReplaceAll(reaction, rep[0], rep[1])
	}
	rate = strings.ReplaceAll(rate, "user_crflux", "crate")
	rate = strings.ReplaceAll(rate, "user_av", "av")

	sides := strings.Split(reaction, "->")
	if len(sides) != 2 {
		return parsedLine{}, errors.Wrapf(gojaff.ErrBadNetworkFormat, "no -> in %q", line)
	}
	p.Reactants = splitSpecies(sides[0])
	p.Products = splitSpecies(sides[1])
	p.Rate = rate
	return p, nil
}

// udfaSkip lists the pseudo-species the colon format carries.
var udfaSkip = map[string]bool{
	"CR": true, "CRP": true, "PHOTON": true, "CRPHOT": true, "": true,
}

// parseUDFA reads the colon-separated UDFA record format: type at field
// 1, reactants at 2-3, products at 4-7, the Arrhenius triple at 9-11 and
// the temperature range at 12-13.
func parseUDFA(line string) (parsedLine, error) {
	f := strings.Split(line, ":")
	if len(f) < 14 {
		return parsedLine{}, errors.Wrapf(gojaff.ErrBadNetworkFormat, "udfa line %q", line)
	}
	rtype := f[1]

	ka, err1 := strconv.ParseFloat(strings.TrimSpace(f[9]), 64)
	kb, err2 := strconv.ParseFloat(strings.TrimSpace(f[10]), 64)
	kc, err3 := strconv.ParseFloat(strings.TrimSpace(f[11]), 64)
	tmin, err4 := strconv.ParseFloat(strings.TrimSpace(f[12]), 64)
	tmax, err5 := strconv.ParseFloat(strings.TrimSpace(f[13]), 64)
	for _, err := range []error{err1, err2, err3, err4, err5} {
		if err != nil {
			return parsedLine{}, errors.Wrapf(gojaff.ErrBadNetworkFormat, "udfa numbers in %q: %v", line, err)
		}
	}

	p := parsedLine{Tmin: math.NaN(), Tmax: math.NaN()}
	if tmin > 1e1 {
		p.Tmin = tmin
	}
	if tmax < 41000 {
		p.Tmax = tmax
	}

	switch rtype {
	case "CR":
		p.Rate = fmt.Sprintf("%.2e * crate", kc)
	case "PH":
		p.Rate = fmt.Sprintf("%.2e * exp(-%.2f * av)", ka, kc)
	default:
		p.Rate = fmt.Sprintf("%.2e", ka)
		if kb != 0 {
			p.Rate += fmt.Sprintf(" * (tgas / 3e2)**(%.2f)", kb)
		}
		if kc != 0 {
			p.Rate += fmt.Sprintf(" * exp(-%.2f / tgas)", kc)
		}
	}

	for _, s := range f[2:4] {
		if s = strings.TrimSpace(s); !udfaSkip[s] {
			p.Reactants = append(p.Reactants, s)
		}
	}
	for _, s := range f[4:8] {
		if s = strings.TrimSpace(s); !udfaSkip[s] {
			p.Products = append(p.Products, s)
		}
	}
	return p, nil
}

func splitSpecies(side string) []string {
	var out []string
	for _, s := range strings.Split(side, " + ") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// parseFortranFloat accepts the d-exponent spelling ("1d4").
func parseFortranFloat(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "d", "e"))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}
