// Command magickcache is the CLI front end over pkg/magickcache (spec
// §6.3): create, delete, expire, identify, get, and put subcommands
// against a single repository.
package main

import (
	"fmt"
	"os"

	"github.com/oakmere/magickcache/cmd/magickcache/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
