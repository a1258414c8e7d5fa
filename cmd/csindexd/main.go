package main

import (
	"os"

	"github.com/golang/glog"

	"github.com/csindex/csindexd/x"
)

func main() {
	defer glog.Flush()
	if !x.IsTTY(os.Stdout) {
		// glog's colorization only kicks in for a terminal anyway, but
		// disabling stderrthreshold color cues explicitly keeps redirected
		// logs free of escape codes regardless of glog's own detection.
		os.Setenv("TERM", "dumb")
	}
	execute()
}
