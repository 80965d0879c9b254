package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	colorWhite     = lipgloss.Color("#FFFFFF")
	colorLightGray = lipgloss.Color("#CCCCCC")
	colorGray      = lipgloss.Color("#888888")
	colorDarkGray  = lipgloss.Color("#444444")
	colorGreen     = lipgloss.Color("#81C784")
	colorYellow    = lipgloss.Color("#FFF176")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite).
			Align(lipgloss.Center).
			MarginTop(1).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(colorLightGray).
			Align(lipgloss.Center).
			MarginBottom(1)

	commandStyle = lipgloss.NewStyle().
			Foreground(colorWhite).
			Bold(true)

	commandDescStyle = lipgloss.NewStyle().
				Foreground(colorGray).
				PaddingLeft(1)

	inputStyle = lipgloss.NewStyle().
			Foreground(colorWhite).
			Bold(true)

	promptStyle = lipgloss.NewStyle().
			Foreground(colorLightGray)

	infoStyle = lipgloss.NewStyle().
			Foreground(colorGray).
			Italic(true)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	connectedStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	offlineStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	burstStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorLightGray).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorDarkGray).
			Italic(true).
			MarginTop(1)
)

const logo = `
  ┏━┓┏━┓┏━╸┏━┓┏━╸┏┓╻┏━╸┏━╸
  ┣━┛┣┳┛┣╸ ┗━┓┣╸ ┃┗┫┃  ┣╸
  ╹  ╹┗╸┗━╸┗━┛┗━╸╹ ╹┗━╸┗━╸
`

const intro = `
Move the mouse to share your cursor with everyone on the same page.
Clicks send **ripples** through the grid; hold **ctrl** or **alt** while
clicking (or press **c**) to throw confetti.

Rooms are keyed by page path, so ` + "`/blog/hello`" + ` and ` + "`/blog/hello/`" + `
land in the same room.
`
