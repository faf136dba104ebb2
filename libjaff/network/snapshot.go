package network

import (
	"encoding/json"
	"math"

	"github.com/pkg/errors"
)

// Snapshot is the serialized form of a loaded network, small enough to
// cache and enough to rebuild the Network without re-parsing the source.
type Snapshot struct {
	FileName  string             `json:"file_name"`
	Label     string             `json:"label"`
	Species   []string           `json:"species"`
	Reactions []reactionSnapshot `json:"reactions"`
}

type reactionSnapshot struct {
	Reactants []string `json:"reactants"`
	Products  []string `json:"products"`
	Rate      string   `json:"rate"`

	// Bounds are omitted when the reaction is unbounded (NaN in memory,
	// which JSON cannot carry).
	Tmin *float64 `json:"tmin,omitempty"`
	Tmax *float64 `json:"tmax,omitempty"`

	Original string `json:"original,omitempty"`
}

func optBound(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func boundOf(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

// MarshalSnapshot serializes the network as JSON.
func (n *Network) MarshalSnapshot() ([]byte, error) {
	snap := Snapshot{
		FileName: n.FileName,
		Label:    n.Label,
	}
	for _, sp := range n.Species {
		snap.Species = append(snap.Species, sp.Name)
	}
	for _, rea := range n.Reactions {
		snap.Reactions = append(snap.Reactions, reactionSnapshot{
			Reactants: names(rea.Reactants),
			Products:  names(rea.Products),
			Rate:      rea.Rate,
			Tmin:      optBound(rea.Tmin),
			Tmax:      optBound(rea.Tmax),
			Original:  rea.Original,
		})
	}
	return json.Marshal(&snap)
}

// FromSnapshot rebuilds a Network from its JSON form. Species are
// re-derived from their names so the snapshot stays format-stable.
func FromSnapshot(data []byte) (*Network, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrap(err, "decoding network snapshot")
	}

	net := &Network{
		FileName:    snap.FileName,
		Label:       snap.Label,
		speciesIdx:  make(map[string]int),
		reactionIdx: make(map[string]int),
		masses:      AtomMasses(),
	}
	if _, err := net.internSpecies(snap.Species); err != nil {
		return nil, err
	}
	for _, rs := range snap.Reactions {
		rr, err := net.internSpecies(rs.Reactants)
		if err != nil {
			return nil, err
		}
		pp, err := net.internSpecies(rs.Products)
		if err != nil {
			return nil, err
		}
		rea := &Reaction{
			Index:     len(net.Reactions),
			Reactants: rr,
			Products:  pp,
			Rate:      rs.Rate,
			Tmin:      boundOf(rs.Tmin),
			Tmax:      boundOf(rs.Tmax),
			Original:  rs.Original,
		}
		net.Reactions = append(net.Reactions, rea)
		if _, dup := net.reactionIdx[rea.Verbatim()]; !dup {
			net.reactionIdx[rea.Verbatim()] = rea.Index
		}
	}
	return net, nil
}
