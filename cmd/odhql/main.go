// Command odhql runs OdhQL queries over Parquet, CSV and SQLite files.
package main

import (
	"fmt"
	"os"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
