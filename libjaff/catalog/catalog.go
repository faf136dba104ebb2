// Package catalog is a badger-backed cache of parsed reaction networks.
// Networks are stored as snapshots keyed by the source file's content
// digest, so a generation run over an unchanged network file skips the
// parse entirely.
package catalog

import (
	"encoding/binary"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"

	"github.com/jaff-systems/gojaff/gojaff"
	"github.com/jaff-systems/gojaff/libjaff/network"
)

// Opts selects where the catalog lives. An empty DbPath opens an
// in-memory catalog, which caches within a single run only.
type Opts struct {
	DbPath   string
	ReadOnly bool
}

// Catalog wraps the snapshot db. It is safe for concurrent use.
type Catalog struct {
	db       *badger.DB
	readOnly bool
}

// Open opens or creates a catalog at opts.DbPath.
func Open(opts Opts) (*Catalog, error) {
	if opts.DbPath == "" && opts.ReadOnly {
		return nil, errors.Wrap(gojaff.ErrBadCatalogParam, "DbPath must be set for a read-only catalog")
	}

	dbOpts := badger.DefaultOptions(opts.DbPath)
	dbOpts.ReadOnly = opts.ReadOnly
	dbOpts.DetectConflicts = false // single-writer usage
	dbOpts.Logger = nil
	if opts.DbPath == "" {
		dbOpts.InMemory = true
	}

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, errors.Wrapf(err, "opening catalog %q", opts.DbPath)
	}
	return &Catalog{db: db, readOnly: opts.ReadOnly}, nil
}

func (cat *Catalog) Close() error {
	if cat.db == nil {
		return nil
	}
	err := cat.db.Close()
	cat.db = nil
	return err
}

func (cat *Catalog) IsReadOnly() bool { return cat.readOnly }

// LoadNetwork returns the network parsed from path, preferring the cached
// snapshot when the file's content digest matches a stored entry. Fresh
// parses are stored back unless the catalog is read-only.
func (cat *Catalog) LoadNetwork(path, label string) (*network.Network, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading network %q", path)
	}
	key := snapshotKey(src)

	var snap []byte
	err = cat.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			snap = append(snap, val...)
			return nil
		})
	})
	switch err {
	case nil:
		klog.V(2).Infof("catalog hit for %s", path)
		return network.FromSnapshot(snap)
	case badger.ErrKeyNotFound:
		// fall through to a fresh parse
	default:
		return nil, errors.Wrapf(err, "reading catalog entry for %q", path)
	}

	net, err := network.LoadNetwork(path, label)
	if err != nil {
		return nil, err
	}
	if !cat.readOnly {
		if err := cat.store(key, net); err != nil {
			return nil, err
		}
	}
	return net, nil
}

func (cat *Catalog) store(key []byte, net *network.Network) error {
	buf, err := net.MarshalSnapshot()
	if err != nil {
		return err
	}
	err = cat.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, buf)
	})
	return errors.Wrapf(err, "storing catalog entry for %q", net.FileName)
}

// snapshotKey is the db key for one source file body: a fixed prefix plus
// the 64-bit content digest.
func snapshotKey(src []byte) []byte {
	key := make([]byte, 4+8)
	copy(key, "net:")
	binary.BigEndian.PutUint64(key[4:], xxhash.Sum64(src))
	return key
}
