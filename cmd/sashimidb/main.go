// Command sashimidb runs the multi-project, multi-dataset search and
// mutation service described by SPEC_FULL.md, or bootstraps a project
// directory on disk.
package main

import (
	"os"

	"github.com/sapcc/go-bits/logg"

	"github.com/yaroslaff/sashimidb/cmd/sashimidb/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logg.Error(err.Error())
		os.Exit(1)
	}
}
