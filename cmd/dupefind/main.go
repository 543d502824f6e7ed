package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/mosaicfoundry/dupefind/internal/pipeline"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	os.Exit(run())
}

func run() int {
	root := &cobra.Command{
		Use:     "dupefind",
		Short:   "Find duplicate files and folders by content",
		Version: version + " (" + commit + ")",
	}

	root.AddCommand(newScanCmd())

	if err := root.Execute(); err != nil {
		if errors.Is(err, pipeline.ErrCancelled) {
			return 130
		}
		return 1
	}
	return 0
}
