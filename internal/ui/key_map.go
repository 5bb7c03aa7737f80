package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	skip   key.Binding
	like   key.Binding
	toggle key.Binding
	reload key.Binding
	liked  key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		skip:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "skip")),
		like:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "like")),
		toggle: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		liked:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "liked")),
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.skip, k.like, k.toggle, k.liked, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.skip, k.like, k.toggle},
		{k.reload, k.liked, k.quit},
	}
}
