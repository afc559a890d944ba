package command

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"
)

// HealthCommand returns the health command.
func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:   "health",
		Usage:  "Check server health",
		Action: health,
	}
}

func health(c *cli.Context) error {
	client := clientFor(c)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := client.Get(ctx, "/health")
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64))
	if resp.StatusCode != 200 || string(body) != "ok" {
		return fmt.Errorf("server unhealthy: status %d, body %q", resp.StatusCode, body)
	}

	fmt.Fprintf(c.App.Writer, "%s: ok\n", client.BaseURL())
	return nil
}
