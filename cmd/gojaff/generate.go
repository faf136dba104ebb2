package main

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/plan-systems/klog"

	"github.com/jaff-systems/gojaff/libjaff/catalog"
	"github.com/jaff-systems/gojaff/libjaff/codegen"
	"github.com/jaff-systems/gojaff/libjaff/engine"
	"github.com/jaff-systems/gojaff/libjaff/lang"
	"github.com/jaff-systems/gojaff/libjaff/network"
)

type config struct {
	networkPath string
	inDir       string
	outDir      string
	files       []string
	lang        string
	cache       string
}

// generateAll loads the network once and runs every template file through
// its own engine, concurrently. One failing file does not stop the rest.
func generateAll(cfg config) error {
	if cfg.networkPath == "" {
		return errors.New("--network is required")
	}

	var (
		net *network.Network
		err error
	)
	if cfg.cache != "" {
		var cat *catalog.Catalog
		cat, err = catalog.Open(catalog.Opts{DbPath: cfg.cache})
		if err != nil {
			return err
		}
		defer cat.Close()
		net, err = cat.LoadNetwork(cfg.networkPath, "")
	} else {
		net, err = network.LoadNetwork(cfg.networkPath, "")
	}
	if err != nil {
		return err
	}
	klog.V(2).Infof("network %s: %d species, %d reactions",
		net.Label, len(net.Species), len(net.Reactions))

	files := append([]string(nil), cfg.files...)
	if cfg.inDir != "" {
		entries, err := os.ReadDir(cfg.inDir)
		if err != nil {
			return errors.Wrapf(err, "reading template dir %q", cfg.inDir)
		}
		for _, e := range entries {
			if !e.IsDir() {
				files = append(files, filepath.Join(cfg.inDir, e.Name()))
			}
		}
	}
	if len(files) == 0 {
		return errors.New("no template files to process")
	}

	if err := os.MkdirAll(cfg.outDir, 0700); err != nil {
		return err
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := 0
	for _, file := range files {
		file := file
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := processFile(net, cfg, file); err != nil {
				klog.Errorf("%s: %v", file, err)
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if failed > 0 {
		return errors.Errorf("%d of %d template files failed", failed, len(files))
	}
	return nil
}

func processFile(net *network.Network, cfg config, file string) error {
	var (
		prof *lang.Profile
		err  error
	)
	if cfg.lang != "" {
		prof, err = lang.ForName(cfg.lang)
	} else {
		prof, err = lang.ForFile(file)
	}
	if err != nil {
		return err
	}

	src, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	gen := codegen.New(net, prof, filepath.Base(file))
	out, err := engine.New(gen, prof, file).Process(string(src))
	if err != nil {
		return err
	}

	dst := filepath.Join(cfg.outDir, filepath.Base(file))
	klog.V(2).Infof("%s -> %s", file, dst)
	return os.WriteFile(dst, []byte(out), 0644)
}
