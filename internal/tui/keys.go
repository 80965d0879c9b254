package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Confetti key.Binding
	NextRoom key.Binding
	Mute     key.Binding
	Leave    key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Confetti: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "confetti"),
		),
		NextRoom: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next page"),
		),
		Mute: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mute"),
		),
		Leave: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "leave room"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Confetti, k.NextRoom, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Confetti, k.Mute},
		{k.NextRoom, k.Leave},
		{k.Help, k.Quit},
	}
}
