package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/csindex/csindexd/x"
)

// Prune is the "csindexd prune" subcommand: removes paths or names from
// every index file in the store.
var Prune x.SubCommand

func init() {
	Prune.Cmd = &cobra.Command{
		Use:   "prune",
		Short: "Remove paths or file names from the store's index files",
		Run: func(cmd *cobra.Command, args []string) {
			runPrune()
		},
	}
	Prune.EnvPrefix = "CSINDEXD"

	flag := Prune.Cmd.Flags()
	flag.StringSlice("path", nil, "A path prefix to prune. Repeatable.")
	flag.StringSlice("name", nil, "An exact file name to prune. Repeatable.")
	flag.Bool("dry_run", false, "Report what --path pruning would remove without writing anything; --name values are not counted.")
}

func runPrune() {
	store, err := openStore(Prune)
	x.Check(err)

	paths := pflagStringSlice(Prune.Cmd.Flags(), "path")
	names := pflagStringSlice(Prune.Cmd.Flags(), "name")
	dryRun, _ := Prune.Cmd.Flags().GetBool("dry_run")

	if len(paths) == 0 && len(names) == 0 {
		x.Fatalf("prune requires at least one --path or --name")
	}

	if dryRun {
		namesRemoved, postingsRemoved, err := store.PruneDryRun(paths)
		x.Check(err)
		fmt.Printf("would remove %d name(s), %d posting(s)\n", namesRemoved, postingsRemoved)
		return
	}

	if len(paths) > 0 {
		x.Check(store.PrunePaths(paths))
	}
	if len(names) > 0 {
		x.Check(store.PruneFiles(names))
	}
	fmt.Println("prune complete")
}

func pflagStringSlice(flags *pflag.FlagSet, name string) []string {
	v, _ := flags.GetStringSlice(name)
	return v
}
