package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"codeberg.org/portfolio/presence/internal/logger"
	"codeberg.org/portfolio/presence/internal/rooms"
)

// returns a new welcome screen
func NewWelcome(mode, path string) *Welcome {
	commands := []Command{
		{Name: "join <path>", Description: "join the room for a page path"},
		{Name: "join", Description: fmt.Sprintf("join %s", path)},
		{Name: "quit", Description: "exit"},
	}

	w := &Welcome{
		mode:     mode,
		path:     path,
		commands: commands,
	}

	w.resize(80)
	return w
}

func (m *Welcome) resize(width int) {
	if width <= 0 || width == m.width {
		return
	}

	m.width = width

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(min(width-4, 80)),
	)
	if err != nil {
		logger.Warn("failed to create markdown renderer", "error", err)
		m.intro = intro
		return
	}

	m.renderer = renderer

	out, err := renderer.Render(intro)
	if err != nil {
		logger.Warn("failed to render intro", "error", err)
		m.intro = intro
		return
	}

	m.intro = out
}

func (m *Welcome) Update(msg tea.Msg) (*Welcome, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width)

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter:
			return m, m.executeCommand()
		case tea.KeyBackspace:
			if len(m.input) > 0 {
				m.input = m.input[:len(m.input)-1]
			}
		case tea.KeySpace:
			m.input += " "
		case tea.KeyRunes:
			m.input += string(msg.Runes)
		}

	case EnterRoomMsg:
		m.input = ""
	}

	return m, nil
}

func (m *Welcome) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(logo))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render("shared cursors for " + rooms.Prefix + "*"))
	b.WriteString("\n")

	b.WriteString(infoStyle.Render("mode: " + strings.ToUpper(m.mode)))
	b.WriteString("\n")

	b.WriteString(m.intro)

	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(colorWhite).Render("commands:"))
	b.WriteString("\n\n")

	for _, cmd := range m.commands {
		line := fmt.Sprintf("  %s %s",
			commandStyle.Render(cmd.Name),
			commandDescStyle.Render("- "+cmd.Description),
		)
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(promptStyle.Render("> ") + inputStyle.Render(m.input+"_"))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("type a command and press enter. press ctrl+c to quit."))

	return b.String()
}

func (m *Welcome) executeCommand() tea.Cmd {
	fields := strings.Fields(m.input)
	m.input = ""

	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "quit", "exit":
		return tea.Quit

	case "join":
		path := m.path
		if len(fields) > 1 {
			path = fields[1]
		}

		return func() tea.Msg {
			return EnterRoomMsg{Path: path}
		}

	default:
		return func() tea.Msg {
			return ErrorMsg{err: fmt.Errorf("unknown command: %s", fields[0])}
		}
	}
}
