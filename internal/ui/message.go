package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/swipe/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgQueueLoaded MsgKind = iota
	MsgDecided
	MsgPlayback
	MsgProgressUpdate
)

// queueLoadedMsg is the constructor for [MsgQueueLoaded]
func queueLoadedMsg(err error) Msg {
	return Msg{kind: MsgQueueLoaded, data: err}
}

// decidedMsg is the constructor for [MsgDecided]
func decidedMsg(d tasks.Decision, err error) Msg {
	return Msg{
		kind: MsgDecided,
		data: struct {
			decision tasks.Decision
			err      error
		}{d, err},
	}
}

// playbackMsg is the constructor for [MsgPlayback]
func playbackMsg(url string, err error) Msg {
	return Msg{
		kind: MsgPlayback,
		data: struct {
			url string
			err error
		}{url, err},
	}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}
