package main

import (
	"os"
	"path/filepath"

	"github.com/csindex/csindexd/store"
	"github.com/csindex/csindexd/x"
)

// defaultStoreDir returns ~/.csindexd, the store directory used when
// --store is unset.
func defaultStoreDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".csindexd"
	}
	return filepath.Join(home, ".csindexd")
}

// openStore builds the store.Context a subcommand's --store/--indexer/
// --searcher flags describe.
func openStore(sc x.SubCommand) (*store.Context, error) {
	dir := sc.GetStringP("store", "s", defaultStoreDir())
	indexer := sc.GetStringP("indexer", "", "cindex")
	searcher := sc.GetStringP("searcher", "", "csearch")
	return store.New(dir, indexer, searcher, nil)
}
