package tui

import "github.com/charmbracelet/bubbles/key"

// sessionKeyMap satisfies help.KeyMap
type sessionKeyMap struct {
	Break key.Binding
	Out   key.Binding
	Help  key.Binding
	Quit  key.Binding
}

func (k sessionKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Break, k.Out, k.Help, k.Quit}
}

func (k sessionKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Break, k.Out}, {k.Help, k.Quit}}
}

var sessionKeys = sessionKeyMap{
	Break: key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "start/end break")),
	Out:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "clock out")),
	Help:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
	Quit:  key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q/esc", "exit (keep running)")),
}

type teamKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

func (k teamKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Refresh, k.Quit}
}

func (k teamKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var teamKeys = teamKeyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q/esc", "quit")),
}
