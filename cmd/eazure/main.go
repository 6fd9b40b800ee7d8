// eazure - convenience CLI for Azure blob and table storage.
package main

import (
	"os"

	"github.com/eazure-dev/eazure/internal/cli"
)

// Version is overridden at release time via -ldflags.
var Version = "v0.1.0-dev"

func main() {
	cli.Version = Version
	rootCmd := cli.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
