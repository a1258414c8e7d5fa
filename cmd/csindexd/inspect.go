package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/csindex/csindexd/store"
	"github.com/csindex/csindexd/x"
)

// Inspect is the "csindexd inspect <index-file>" subcommand: prints a
// summary of one on-disk index file.
var Inspect x.SubCommand

func init() {
	Inspect.Cmd = &cobra.Command{
		Use:   "inspect <index-file>",
		Short: "Summarize a single index file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runInspect(args[0])
		},
	}
	Inspect.EnvPrefix = "CSINDEXD"
}

func runInspect(indexFile string) {
	st, err := store.Stat(indexFile)
	x.Check(err)
	fmt.Println(store.FormatStat(indexFile, st))
}
