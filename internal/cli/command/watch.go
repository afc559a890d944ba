package command

import (
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/urfave/cli/v2"
)

// WatchCommand returns the watch command.
func WatchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Attach to a room and print its event stream",
		ArgsUsage: "[room]",
		Action:    watch,
	}
}

// watch joins a room as a read-only peer and prints every frame as a
// JSON line, the replay first. Useful for tailing a room during an
// incident.
func watch(c *cli.Context) error {
	roomID := c.Args().First()
	if roomID == "" {
		roomID = "main"
	}

	wsURL, err := websocketURL(c.String("server"), roomID)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", wsURL, err)
	}
	defer conn.Close()

	fmt.Fprintf(os.Stderr, "watching room %q on %s (Ctrl+C to stop)\n", roomID, wsURL)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)

	frames := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			frames <- data
		}
	}()

	for {
		select {
		case data := <-frames:
			fmt.Fprintln(c.App.Writer, string(data))
		case err := <-readErr:
			return fmt.Errorf("connection lost: %w", err)
		case <-interrupt:
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil
		}
	}
}

// websocketURL converts the --server address into the ws endpoint URL.
func websocketURL(server, roomID string) (string, error) {
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("bad server address %q: %w", server, err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	u.RawQuery = url.Values{"room": {roomID}}.Encode()
	return u.String(), nil
}
