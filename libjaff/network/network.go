package network

import (
	"bufio"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/plan-systems/klog"

	"github.com/jaff-systems/gojaff/gojaff"
)

// Network is a loaded reaction network. It is immutable after loading
// and safe to share between concurrently running engines.
type Network struct {
	FileName string
	Label    string

	Species   []*Species
	Reactions []*Reaction

	speciesIdx  map[string]int
	reactionIdx map[string]int // keyed by verbatim form
	masses      map[string]float64
}

// LoadNetwork reads a network file, detecting the dialect line by line:
// "->" marks the prizmo form, ":" the UDFA colon form. The label defaults
// to the file's base name without extension.
func LoadNetwork(path, label string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening network %q", path)
	}
	defer f.Close()

	if label == "" {
		base := filepath.Base(path)
		label = strings.SplitN(base, ".", 2)[0]
	}

	net := &Network{
		FileName:    path,
		Label:       label,
		speciesIdx:  make(map[string]int),
		reactionIdx: make(map[string]int),
		masses:      AtomMasses(),
	}
	klog.V(2).Infof("loading network from %s (label %s)", path, label)

	var vars [][2]string // ordered prizmo variable definitions
	inVars := false

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1<<16), 1<<20)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		srow := strings.TrimSpace(scanner.Text())
		if srow == "" || strings.HasPrefix(srow, "#") || strings.HasPrefix(srow, "!") {
			continue
		}

		// Prizmo variable section.
		if strings.HasPrefix(srow, "VARIABLES{") {
			inVars = true
			continue
		}
		if inVars {
			if strings.HasPrefix(srow, "}") {
				inVars = false
				continue
			}
			def := strings.ToLower(strings.ReplaceAll(srow, " ", ""))
			if i := strings.IndexByte(def, '='); i > 0 {
				vars = append(vars, [2]string{def[:i], def[i+1:]})
				klog.V(2).Infof("network variable %s", def[:i])
			}
			continue
		}
		if strings.HasPrefix(srow, "@") {
			// Other formats' pragma lines.
			continue
		}

		var p parsedLine
		switch {
		case strings.Contains(srow, "->"):
			p, err = parsePrizmo(srow)
		case strings.Contains(srow, ":"):
			p, err = parseUDFA(srow)
		default:
			return nil, errors.Wrapf(gojaff.ErrBadNetworkFormat, "%s:%d: %q", path, lineNo, srow)
		}
		if err != nil {
			return nil, errors.WithMessagef(err, "%s:%d", path, lineNo)
		}

		if err := net.addReaction(p, vars, srow); err != nil {
			return nil, errors.WithMessagef(err, "%s:%d", path, lineNo)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading %q", path)
	}

	net.warnDuplicates()
	net.warnIsomers()
	klog.V(2).Infof("loaded %d species, %d reactions", len(net.Species), len(net.Reactions))
	return net, nil
}

func (n *Network) addReaction(p parsedLine, vars [][2]string, original string) error {
	rr, err := n.internSpecies(p.Reactants)
	if err != nil {
		return err
	}
	pp, err := n.internSpecies(p.Products)
	if err != nil {
		return err
	}

	rate := strings.TrimSpace(strings.ToLower(p.Rate))
	rate = expandVariables(rate, vars)
	rate = clampTemperature(rate, p.Tmin, p.Tmax)

	rea := &Reaction{
		Index:     len(n.Reactions),
		Reactants: rr,
		Products:  pp,
		Rate:      rate,
		Tmin:      p.Tmin,
		Tmax:      p.Tmax,
		Original:  original,
	}
	rea.Check()

	n.Reactions = append(n.Reactions, rea)
	if _, dup := n.reactionIdx[rea.Verbatim()]; !dup {
		n.reactionIdx[rea.Verbatim()] = rea.Index
	}
	return nil
}

func (n *Network) internSpecies(names []string) ([]*Species, error) {
	out := make([]*Species, 0, len(names))
	for _, name := range names {
		if i, ok := n.speciesIdx[name]; ok {
			out = append(out, n.Species[i])
			continue
		}
		sp, err := NewSpecies(name, n.masses, len(n.Species))
		if err != nil {
			return nil, err
		}
		n.speciesIdx[name] = sp.Index
		n.Species = append(n.Species, sp)
		out = append(out, sp)
	}
	return out, nil
}

var tgasRx = regexp.MustCompile(`\btgas\b`)

// clampTemperature pins tgas inside the reaction's validity range, the
// way rate tables expect out-of-range evaluation to behave.
func clampTemperature(rate string, tmin, tmax float64) string {
	if !math.IsNaN(tmin) && tmin > 0 {
		rate = tgasRx.ReplaceAllString(rate, "max(tgas, "+trimFloat(tmin)+")")
	}
	if !math.IsNaN(tmax) && tmax > 0 {
		rate = tgasRx.ReplaceAllString(rate, "min(tgas, "+trimFloat(tmax)+")")
	}
	return rate
}

// expandVariables substitutes network-file variable definitions into a
// rate, later definitions first so nested references resolve.
func expandVariables(rate string, vars [][2]string) string {
	for i := len(vars) - 1; i >= 0; i-- {
		name, val := vars[i][0], vars[i][1]
		rx, err := regexp.Compile(`\b` + regexp.QuoteMeta(name) + `\b`)
		if err != nil {
			continue
		}
		rate = rx.ReplaceAllString(rate, "("+val+")")
	}
	return rate
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (n *Network) warnDuplicates() {
	seen := map[string]*Reaction{}
	for _, rea := range n.Reactions {
		key := rea.Serialized()
		prev, ok := seen[key]
		if !ok {
			seen[key] = rea
			continue
		}
		if prev.Tmin != rea.Tmin || prev.Tmax != rea.Tmax {
			continue
		}
		if prev.GuessType() != rea.GuessType() {
			continue
		}
		klog.Warningf("duplicate reaction: %s", rea.Verbatim())
	}
}

func (n *Network) warnIsomers() {
	seen := map[string]*Species{}
	for _, sp := range n.Species {
		if prev, ok := seen[sp.Serialized]; ok {
			klog.Warningf("isomer detected: %s %s", prev.Name, sp.Name)
			continue
		}
		seen[sp.Serialized] = sp
	}
}

// SpeciesIndex resolves a species name to its index.
func (n *Network) SpeciesIndex(name string) (int, bool) {
	i, ok := n.speciesIdx[name]
	return i, ok
}

// ReactionIndex resolves a reaction's verbatim form to its index.
func (n *Network) ReactionIndex(verbatim string) (int, bool) {
	i, ok := n.reactionIdx[verbatim]
	return i, ok
}

// ElectronIndex returns the index of e-.
func (n *Network) ElectronIndex() (int, bool) {
	return n.SpeciesIndex("e-")
}
