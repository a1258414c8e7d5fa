package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/csindex/csindexd/store"
	"github.com/csindex/csindexd/x"
)

// Search is the "csindexd search <pattern>" subcommand.
var Search x.SubCommand

func init() {
	Search.Cmd = &cobra.Command{
		Use:   "search <pattern>",
		Short: "Search the store for a regular expression",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runSearch(args[0])
		},
	}
	Search.EnvPrefix = "CSINDEXD"

	flag := Search.Cmd.Flags()
	flag.BoolP("ignore_case", "i", false, "Ignore case when matching.")
	flag.StringP("path_filter", "f", "", "Restrict matches to paths matching this regular expression.")
}

func runSearch(pattern string) {
	ctx, err := openStore(Search)
	x.Check(err)

	opts := store.SearchOptions{
		IgnoreCase: Search.GetBoolP("ignore_case", "i", false),
		PathFilter: Search.GetStringP("path_filter", "f", ""),
		MaxResults: Search.GetIntP("max_results", "", 100),
	}

	results, err := ctx.Search(context.Background(), pattern, opts)
	x.Check(err)

	for _, r := range results {
		fmt.Printf("%s:%d:%s\n", r.File, r.Line, r.Text)
	}
}
