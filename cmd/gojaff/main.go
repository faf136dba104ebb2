package main

import (
	"flag"
	"os"
	"strings"

	"github.com/plan-systems/klog"
)

var (
	networkPath = flag.String("network", "", "reaction network file to load")
	inDir       = flag.String("indir", "", "directory of template files to process")
	outDir      = flag.String("outdir", "out", "directory generated files are written to")
	fileList    = flag.String("files", "", "comma-separated template files to process")
	langName    = flag.String("lang", "", "target language override (default: by template extension)")
	cacheDir    = flag.String("cache", "", "network catalog directory (empty disables caching)")
)

func main() {

	flag.Set("logtostderr", "true")
	flag.Set("v", "2")

	fset := flag.NewFlagSet("", flag.ContinueOnError)
	klog.InitFlags(fset)
	fset.Set("logtostderr", "true")
	fset.Set("v", "2")
	klog.SetFormatter(&klog.FmtConstWidth{
		FileNameCharWidth: 16,
		UseColor:          true,
	})

	flag.Parse()

	// A .py argument (or no arguments at all) drops into gpython.
	pathname := flag.Arg(0)
	if strings.HasSuffix(pathname, ".py") || (pathname == "" && *networkPath == "") {
		go_gpython(pathname)
		klog.Flush()
		return
	}

	cfg := config{
		networkPath: *networkPath,
		inDir:       *inDir,
		outDir:      *outDir,
		lang:        *langName,
		cache:       *cacheDir,
	}
	for _, f := range strings.Split(*fileList, ",") {
		if f = strings.TrimSpace(f); f != "" {
			cfg.files = append(cfg.files, f)
		}
	}

	err := generateAll(cfg)
	klog.Flush()
	if err != nil {
		klog.Errorf("%v", err)
		klog.Flush()
		os.Exit(1)
	}
}
