package codegen

import (
	"strconv"
	"strings"

	"github.com/jaff-systems/gojaff/gojaff"
	"github.com/jaff-systems/gojaff/libjaff/network"
)

// listProps maps every REPEAT/REDUCE list property to its builder.
var listProps = map[string]func(*Generator) gojaff.IndexedList{
	"species": func(g *Generator) gojaff.IndexedList {
		return gojaff.FlatList(speciesNames(g.net.Species)...)
	},
	"species_with_normalized_sign": func(g *Generator) gojaff.IndexedList {
		names := speciesNames(g.net.Species)
		for i, n := range names {
			names[i] = strings.ReplaceAll(strings.ReplaceAll(n, "+", "p"), "-", "n")
		}
		return gojaff.FlatList(names...)
	},
	"elements": func(g *Generator) gojaff.IndexedList {
		return gojaff.FlatList(g.elems.Names...)
	},
	"masses": func(g *Generator) gojaff.IndexedList {
		vals := make([]string, len(g.net.Species))
		for i, sp := range g.net.Species {
			vals[i] = formatFloat(sp.Mass)
		}
		return gojaff.FlatList(vals...)
	},
	"charges": func(g *Generator) gojaff.IndexedList {
		vals := make([]string, len(g.net.Species))
		for i, sp := range g.net.Species {
			vals[i] = strconv.Itoa(sp.Charge)
		}
		return gojaff.FlatList(vals...)
	},
	"reactions": func(g *Generator) gojaff.IndexedList {
		vals := make([]string, len(g.net.Reactions))
		for i, rea := range g.net.Reactions {
			vals[i] = rea.Verbatim()
		}
		return gojaff.FlatList(vals...)
	},
	"reactants": func(g *Generator) gojaff.IndexedList {
		rows := make([][]string, len(g.net.Reactions))
		for i, rea := range g.net.Reactions {
			rows[i] = speciesNames(rea.Reactants)
		}
		return gojaff.NestedList(rows...)
	},
	"products": func(g *Generator) gojaff.IndexedList {
		rows := make([][]string, len(g.net.Reactions))
		for i, rea := range g.net.Reactions {
			rows[i] = speciesNames(rea.Products)
		}
		return gojaff.NestedList(rows...)
	},
	"photo_reactions": func(g *Generator) gojaff.IndexedList {
		var vals []string
		for _, rea := range g.net.Reactions {
			if rea.IsPhoto() {
				vals = append(vals, rea.Verbatim())
			}
		}
		return gojaff.FlatList(vals...)
	},
	"photo_reaction_indices": func(g *Generator) gojaff.IndexedList {
		var vals []string
		for i, rea := range g.net.Reactions {
			if rea.IsPhoto() {
				vals = append(vals, strconv.Itoa(i))
			}
		}
		return gojaff.FlatList(vals...)
	},
	"photo_reaction_truth_values": func(g *Generator) gojaff.IndexedList {
		vals := make([]string, len(g.net.Reactions))
		for i, rea := range g.net.Reactions {
			vals[i] = truth(rea.IsPhoto())
		}
		return gojaff.FlatList(vals...)
	},
	"charged_species": func(g *Generator) gojaff.IndexedList {
		var vals []string
		for _, sp := range g.net.Species {
			if sp.Charge != 0 {
				vals = append(vals, sp.Name)
			}
		}
		return gojaff.FlatList(vals...)
	},
	"uncharged_species": func(g *Generator) gojaff.IndexedList {
		var vals []string
		for _, sp := range g.net.Species {
			if sp.Charge == 0 {
				vals = append(vals, sp.Name)
			}
		}
		return gojaff.FlatList(vals...)
	},
	"non_zero_charge_indices": func(g *Generator) gojaff.IndexedList {
		var vals []string
		for i, sp := range g.net.Species {
			if sp.Charge != 0 {
				vals = append(vals, strconv.Itoa(i))
			}
		}
		return gojaff.FlatList(vals...)
	},
	"zero_charge_indices": func(g *Generator) gojaff.IndexedList {
		var vals []string
		for i, sp := range g.net.Species {
			if sp.Charge == 0 {
				vals = append(vals, strconv.Itoa(i))
			}
		}
		return gojaff.FlatList(vals...)
	},
	"charge_truth_values": func(g *Generator) gojaff.IndexedList {
		vals := make([]string, len(g.net.Species))
		for i, sp := range g.net.Species {
			vals[i] = truth(sp.Charge != 0)
		}
		return gojaff.FlatList(vals...)
	},
	"tmins": func(g *Generator) gojaff.IndexedList {
		vals := make([]string, len(g.net.Reactions))
		for i, rea := range g.net.Reactions {
			vals[i] = formatFloat(rea.Tmin)
		}
		return gojaff.FlatList(vals...)
	},
	"tmaxes": func(g *Generator) gojaff.IndexedList {
		vals := make([]string, len(g.net.Reactions))
		for i, rea := range g.net.Reactions {
			vals[i] = formatFloat(rea.Tmax)
		}
		return gojaff.FlatList(vals...)
	},
	"element_density_matrix": func(g *Generator) gojaff.IndexedList {
		return intMatrix(g.elems.DensityMatrix())
	},
	"element_truth_matrix": func(g *Generator) gojaff.IndexedList {
		return intMatrix(g.elems.TruthMatrix())
	},
}

func speciesNames(sp []*network.Species) []string {
	out := make([]string, len(sp))
	for i, s := range sp {
		out[i] = s.Name
	}
	return out
}

func truth(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func intMatrix(m [][]int) gojaff.IndexedList {
	rows := make([][]string, len(m))
	for i, row := range m {
		rows[i] = make([]string, len(row))
		for j, v := range row {
			rows[i][j] = strconv.Itoa(v)
		}
	}
	return gojaff.NestedList(rows...)
}
