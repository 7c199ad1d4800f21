package main

import (
	"fmt"
	"os"

	"github.com/petal-labs/ppal/cli"
)

// Set via ldflags at build time.
var version = "dev"

func main() {
	if err := cli.Execute(cli.NewRootCmd(version)); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}
