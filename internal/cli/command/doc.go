// Package command provides the CLI command definitions for inkroom-cli.
package command
