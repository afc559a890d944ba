package command

import (
	"github.com/urfave/cli/v2"

	"github.com/inkroom-io/inkroom-go/internal/cli/connection"
	"github.com/inkroom-io/inkroom-go/internal/infra/buildinfo"
)

// DefaultServer is the server address used when --server is not given.
const DefaultServer = "http://127.0.0.1:8044"

// App builds the inkroom-cli application.
func App() *cli.App {
	return &cli.App{
		Name:    "inkroom-cli",
		Usage:   "Operator tool for inkroom-server",
		Version: buildinfo.Get().Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "Server address",
				Value:   DefaultServer,
				EnvVars: []string{"INKROOM_CLI_SERVER"},
			},
		},
		Commands: []*cli.Command{
			HealthCommand(),
			RoomsCommand(),
			SaveCommand(),
			WatchCommand(),
		},
	}
}

// clientFor builds an HTTP client from the global flags.
func clientFor(c *cli.Context) *connection.HTTPClient {
	return connection.NewHTTPClient(c.String("server"))
}
