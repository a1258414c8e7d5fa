package main

import (
	"context"
	"fmt"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/csindex/csindexd/x"
)

// Index is the "csindexd index <path>..." subcommand: indexes one or more
// paths, grouping by resolved index file.
var Index x.SubCommand

func init() {
	Index.Cmd = &cobra.Command{
		Use:   "index <path>...",
		Short: "Index one or more paths",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runIndex(args)
		},
	}
	Index.EnvPrefix = "CSINDEXD"
}

func runIndex(paths []string) {
	store, err := openStore(Index)
	x.Check(err)

	results, err := store.IndexAll(context.Background(), paths)
	x.Check(err)

	for i, ok := range results {
		if !ok {
			glog.Warningf("csindexd: indexing group %d reported failure", i)
		}
	}
	fmt.Printf("indexed %d path(s) in %d group(s)\n", len(paths), len(results))
}
