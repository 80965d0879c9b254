package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"

	"codeberg.org/portfolio/presence/internal/channel"
	"codeberg.org/portfolio/presence/internal/config"
	"codeberg.org/portfolio/presence/internal/localstate"
	"codeberg.org/portfolio/presence/internal/logger"
	"codeberg.org/portfolio/presence/internal/presence"
	"codeberg.org/portfolio/presence/internal/tui"
	"codeberg.org/portfolio/presence/internal/wsclient"
)

func main() {
	flags, err := config.ParseTUIFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	if !term.IsTerminal(os.Stdout.Fd()) {
		fmt.Fprintln(os.Stderr, "presence tui needs an interactive terminal")
		os.Exit(1)
	}

	// keep logs off the alt screen
	if err := os.MkdirAll(filepath.Dir(flags.StateFile), 0o700); err == nil {
		logPath := filepath.Join(filepath.Dir(flags.StateFile), "tui.log")

		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // path from flags
		if err == nil {
			defer logFile.Close() //nolint:errcheck
			logger.SetOutput(logFile)
		}
	}

	store := localstate.NewFileStore(flags.StateFile)
	session := localstate.NewSessionStore(store, localstate.DefaultSessionMaxAge).
		GetOrCreateSession(localstate.DefaultNames, len(presence.Palette))

	mode := "online"
	var connector channel.Connector

	if flags.Offline {
		mode = "offline"
		connector = channel.NewMemory()
	} else {
		connector = wsclient.New(flags.Server, identityToken(flags.Server, session))
	}

	app := tui.NewApp(tui.Options{
		Mode:      mode,
		Connector: connector,
		Session:   session,
		Cursors:   localstate.NewCursorStore(store),
		Sound:     localstate.NewSoundPreference(store),
		Path:      flags.Path,
		Touch:     flags.Touch,
		GridColor: flags.Color,
	})

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithReportFocus())

	_, err = p.Run()
	app.Close()

	if err != nil {
		fmt.Printf("error running presence tui: %v\n", err)
		os.Exit(1)
	}
}

// best-effort; without a token the server accepts any name
func identityToken(endpoint string, session localstate.SessionData) string {
	client, err := tui.NewIdentityClient(endpoint)
	if err != nil {
		logger.Warn("cannot derive identity endpoint", "endpoint", endpoint, "error", err)
		return ""
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	token, err := client.Token(ctx, session)
	if err != nil {
		logger.Warn("continuing without identity token", "error", err)
		return ""
	}

	return token
}
