// Command minorm generates record codecs and manages tables for minorm
// records.
package main

import (
	"os"

	"github.com/syssam/minorm/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
