package main

import (
	"net/http"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/csindex/csindexd/httpapi"
	"github.com/csindex/csindexd/x"
)

// Serve is the "csindexd serve" subcommand: runs the HTTP server exposing
// index/search/prune/stat over the store described by the common flags.
var Serve x.SubCommand

func init() {
	Serve.Cmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
	Serve.EnvPrefix = "CSINDEXD"

	flag := Serve.Cmd.Flags()
	flag.String("bind", "0.0.0.0:5555", "Address to bind the HTTP server to.")
}

func runServe() {
	ctx, err := openStore(Serve)
	x.Check(err)

	maxResults := Serve.GetIntP("max_results", "", 100)
	bind := Serve.GetStringP("bind", "", "0.0.0.0:5555")

	srv := httpapi.New(ctx, maxResults)
	glog.Infof("csindexd: serving on %s, store %s", bind, ctx.Dir)
	x.Check(http.ListenAndServe(bind, srv.Handler()))
}
