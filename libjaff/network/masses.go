package network

// Atomic masses in atomic mass units. Only the atoms that occur in
// astrochemical networks are listed; GRAIN is a massless pseudo-atom.
var atomAMU = map[string]float64{
	"H":  1.008,
	"D":  2.014,
	"He": 4.0026,
	"Li": 6.94,
	"C":  12.011,
	"N":  14.007,
	"O":  15.999,
	"F":  18.998,
	"Ne": 20.180,
	"Na": 22.990,
	"Mg": 24.305,
	"Al": 26.982,
	"Si": 28.085,
	"P":  30.974,
	"S":  32.06,
	"Cl": 35.45,
	"Ar": 39.948,
	"Ca": 40.078,
	"Ti": 47.867,
	"Cr": 51.996,
	"Fe": 55.845,
	"Ni": 58.693,

	"GRAIN": 0,
}

const (
	amuGrams     = 1.66053906660e-24
	electronMass = 9.1093837015e-28
)

// AtomMasses builds the atom mass table in grams. The charge symbols are
// part of the table so exploding a name accounts for gained or lost
// electrons, and "e" carries the bare electron.
func AtomMasses() map[string]float64 {
	m := make(map[string]float64, len(atomAMU)+3)
	for a, amu := range atomAMU {
		m[a] = amu * amuGrams
	}
	m["e"] = 0
	m["+"] = -electronMass
	m["-"] = electronMass
	return m
}
