// Package main provides the entry point for inkroom-cli.
//
// inkroom-cli is the operator tool for inkroom-server: health checks,
// room listings, forced snapshots and live room watching.
package main

import (
	"fmt"
	"os"

	"github.com/inkroom-io/inkroom-go/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
