package config

import (
	"flag"
	"os"
	"path/filepath"
)

// parses CLI flags for the terminal client
func ParseTUIFlags(args []string) (Flags, error) {
	defaults := DefaultTUIFlags()

	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	server := fs.String("server", defaults.Server, "websocket endpoint of the presence server")
	path := fs.String("path", defaults.Path, "page path that selects the room")
	stateFile := fs.String("state", defaults.StateFile, "file holding the local identity and cursor state")
	offline := fs.Bool("offline", false, "use an in-process room instead of the server")
	touch := fs.Bool("touch", false, "behave like a touch device (no cursor sharing)")
	color := fs.String("color", defaults.Color, "base color of the ambient grid")

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}

	return Flags{
		Server:    *server,
		Path:      *path,
		StateFile: *stateFile,
		Offline:   *offline,
		Touch:     *touch,
		Color:     *color,
	}, nil
}

// returns default flags for the terminal client
func DefaultTUIFlags() Flags {
	endpoint := os.Getenv("PRESENCE_WS_ENDPOINT")
	if endpoint == "" {
		endpoint = "ws://localhost:8080/api/v1/ws"
	}

	stateFile := "presence-state.json"
	if dir, err := os.UserConfigDir(); err == nil {
		stateFile = filepath.Join(dir, "portfolio-presence", "state.json")
	}

	return Flags{
		Server:    endpoint,
		Path:      "/",
		StateFile: stateFile,
		Color:     "#6b7280",
	}
}
