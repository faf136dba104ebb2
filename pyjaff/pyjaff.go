package pyjaff

import (
	"os"
	"path/filepath"

	"github.com/go-python/gpython/py"

	"github.com/jaff-systems/gojaff/libjaff/codegen"
	"github.com/jaff-systems/gojaff/libjaff/engine"
	"github.com/jaff-systems/gojaff/libjaff/lang"
	"github.com/jaff-systems/gojaff/libjaff/network"
)

var (
	LIB_VERSION = "v1.2026.1"
)

var (
	PyNetworkType = py.NewType("Network", "a loaded chemical reaction network")
)

// pyNetwork wraps a loaded network for gpython scripts.
type pyNetwork struct {
	net *network.Network
}

func (n *pyNetwork) Type() *py.Type {
	return PyNetworkType
}

func (n *pyNetwork) M__str__() (py.Object, error) {
	return py.String(n.net.Label), nil
}

func (n *pyNetwork) M__repr__() (py.Object, error) {
	return n.M__str__()
}

// Arg 1 (str): network file pathname
// Arg 2 (str, optional): label override
func ph_LoadNetwork(module py.Object, args py.Tuple) (py.Object, error) {
	var pathname, label string
	var err error
	if len(args) > 1 {
		err = py.LoadTuple(args, []interface{}{&pathname, &label})
	} else {
		err = py.LoadTuple(args, []interface{}{&pathname})
	}
	if err != nil {
		return nil, err
	}

	net, err := network.LoadNetwork(pathname, label)
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}
	return py.Object(&pyNetwork{net: net}), nil
}

func ph_Network_Label(self py.Object, args py.Tuple) (py.Object, error) {
	n := self.(*pyNetwork)
	return py.String(n.net.Label), nil
}

func ph_Network_NumSpecies(self py.Object, args py.Tuple) (py.Object, error) {
	n := self.(*pyNetwork)
	return py.Int(len(n.net.Species)), nil
}

func ph_Network_NumReactions(self py.Object, args py.Tuple) (py.Object, error) {
	n := self.(*pyNetwork)
	return py.Int(len(n.net.Reactions)), nil
}

func ph_Network_Species(self py.Object, args py.Tuple) (py.Object, error) {
	n := self.(*pyNetwork)
	names := make(py.Tuple, len(n.net.Species))
	for i, sp := range n.net.Species {
		names[i] = py.String(sp.Name)
	}
	return py.Object(names), nil
}

func ph_Network_HasSpecie(self py.Object, args py.Tuple) (py.Object, error) {
	n := self.(*pyNetwork)
	var name string
	if err := py.LoadTuple(args, []interface{}{&name}); err != nil {
		return nil, err
	}
	if _, ok := n.net.SpeciesIndex(name); ok {
		return py.True, nil
	}
	return py.False, nil
}

// Arg 1 (str): template file pathname
// Arg 2 (str): output file pathname
//
// The target language is detected from the template file's extension.
func ph_Network_Generate(self py.Object, args py.Tuple) (py.Object, error) {
	n := self.(*pyNetwork)
	var template, outfile string
	if err := py.LoadTuple(args, []interface{}{&template, &outfile}); err != nil {
		return nil, err
	}

	prof, err := lang.ForFile(template)
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}
	src, err := os.ReadFile(template)
	if err != nil {
		return nil, py.ExceptionNewf(py.FileNotFoundError, "%v", err)
	}

	gen := codegen.New(n.net, prof, filepath.Base(template))
	out, err := engine.New(gen, prof, template).Process(string(src))
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}

	os.MkdirAll(filepath.Dir(outfile), 0700)
	if err := os.WriteFile(outfile, []byte(out), 0644); err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}
	return py.None, nil
}

func init() {

	/////////////////////////////////
	// Network
	{
		PyNetworkType.Dict["Label"] = py.MustNewMethod("Label", ph_Network_Label, 0, "")
		PyNetworkType.Dict["NumSpecies"] = py.MustNewMethod("NumSpecies", ph_Network_NumSpecies, 0, "")
		PyNetworkType.Dict["NumReactions"] = py.MustNewMethod("NumReactions", ph_Network_NumReactions, 0, "")
		PyNetworkType.Dict["Species"] = py.MustNewMethod("Species", ph_Network_Species, 0, "exports the species names as a tuple")
		PyNetworkType.Dict["HasSpecie"] = py.MustNewMethod("HasSpecie", ph_Network_HasSpecie, 0, "")
		PyNetworkType.Dict["Generate"] = py.MustNewMethod("Generate", ph_Network_Generate, 0, "runs a template file through the directive engine")
	}

	{
		methods := []*py.Method{
			py.MustNewMethod("LoadNetwork", ph_LoadNetwork, 0, "loads a reaction network file"),
		}

		langs := make(py.Tuple, 0, 4)
		for _, name := range lang.Names() {
			langs = append(langs, py.String(name))
		}

		globals := py.StringDict{
			"LIB_VERSION": py.String(LIB_VERSION),
			"LANGS":       langs,
		}

		py.RegisterModule(&py.ModuleImpl{
			Info: py.ModuleInfo{
				Name: "_jaff",
				Doc:  "reaction network code generation gpython module",
			},
			Methods: methods,
			Globals: globals,
		})
	}
}
