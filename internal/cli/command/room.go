package command

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/inkroom-io/inkroom-go/internal/cli/connection"
)

// roomInfo mirrors the admin API's room summary.
type roomInfo struct {
	Room      string `json:"room"`
	PageCount int    `json:"pageCount"`
	Events    int    `json:"events"`
	Peers     int    `json:"peers"`
	SavedAt   int64  `json:"savedAt"`
}

// RoomsCommand returns the rooms command.
func RoomsCommand() *cli.Command {
	return &cli.Command{
		Name:   "rooms",
		Usage:  "List resident rooms",
		Action: listRooms,
	}
}

// SaveCommand returns the save command.
func SaveCommand() *cli.Command {
	return &cli.Command{
		Name:      "save",
		Usage:     "Snapshot a room to disk immediately",
		ArgsUsage: "<room>",
		Action:    saveRoom,
	}
}

func listRooms(c *cli.Context) error {
	client := clientFor(c)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := client.Get(ctx, "/admin/v1/rooms")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result struct {
		Data struct {
			Rooms []roomInfo `json:"rooms"`
			Total int        `json:"total"`
		} `json:"data"`
	}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	if result.Data.Total == 0 {
		fmt.Fprintln(c.App.Writer, "no resident rooms")
		return nil
	}

	fmt.Fprintf(c.App.Writer, "%-24s %6s %8s %6s %s\n", "ROOM", "PAGES", "EVENTS", "PEERS", "SAVED")
	for _, room := range result.Data.Rooms {
		saved := "never"
		if room.SavedAt > 0 {
			saved = time.UnixMilli(room.SavedAt).Format(time.RFC3339)
		}
		fmt.Fprintf(c.App.Writer, "%-24s %6d %8d %6d %s\n",
			room.Room, room.PageCount, room.Events, room.Peers, saved)
	}
	return nil
}

func saveRoom(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: save <room>")
	}
	roomID := c.Args().First()
	client := clientFor(c)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := client.Post(ctx, "/admin/v1/rooms/"+roomID+"/save", nil)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if err := connection.ParseResponse(resp, nil); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "room %q saved\n", roomID)
	return nil
}
