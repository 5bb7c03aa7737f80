package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/swipe/internal/models"
	"github.com/desertthunder/swipe/internal/shared"
	"github.com/desertthunder/swipe/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	SwipeView
	LikedView
)

// Queue is the swipe deck driven by the UI.
type Queue interface {
	Load(ctx context.Context) error
	Current() (models.PlayableTrack, error)
	Position() (cursor, total int)
	Decide(ctx context.Context, dir models.Direction) (tasks.Decision, error)
}

// Player plays the preview of the card on screen.
type Player interface {
	Play(ctx context.Context, url string) error
	Toggle() bool
	Stop()
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	queue    Queue
	player   Player
	progress <-chan tasks.ProgressUpdate
	width    int
	height   int
	busy     bool
	playing  bool
	current  models.PlayableTrack
	status   string
	update   tasks.ProgressUpdate
	liked    []likedItem
	likedLst list.Model
	err      error
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model. progress may be nil.
func NewModel(ctx context.Context, queue Queue, player Player, progress <-chan tasks.ProgressUpdate) *Model {
	return &Model{
		ctx:      ctx,
		view:     LoadingView,
		queue:    queue,
		player:   player,
		progress: progress,
		busy:     true,
		likedLst: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init loads the first queue and starts listening for progress.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.waitForProgress())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.likedLst.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	if m.view == LikedView {
		var cmd tea.Cmd
		m.likedLst, cmd = m.likedLst.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgQueueLoaded:
		m.busy = false
		if err, _ := msg.data.(error); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.view = SwipeView
		m.status = ""
		return m, m.showCurrent()

	case MsgDecided:
		data := msg.data.(struct {
			decision tasks.Decision
			err      error
		})
		m.busy = false
		m.applyDecision(data.decision)
		if data.err != nil {
			m.err = data.err
			m.player.Stop()
			m.playing = false
			return m, nil
		}
		return m, m.showCurrent()

	case MsgPlayback:
		data := msg.data.(struct {
			url string
			err error
		})
		if data.url != m.current.PreviewURL {
			return m, nil
		}
		m.playing = data.err == nil
		if data.err != nil {
			m.status = styles.warn.Render(fmt.Sprintf("Preview unavailable: %v", data.err))
		}
		return m, nil

	case MsgProgressUpdate:
		m.update = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		m.player.Stop()
		return m, tea.Quit
	}

	if m.view == LikedView {
		if key.Matches(msg, m.keys.liked) {
			m.view = SwipeView
			return m, nil
		}
		var cmd tea.Cmd
		m.likedLst, cmd = m.likedLst.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.reload):
		if m.busy {
			return m, nil
		}
		m.busy = true
		m.err = nil
		m.view = LoadingView
		m.player.Stop()
		m.playing = false
		return m, m.load()

	case key.Matches(msg, m.keys.liked):
		m.view = LikedView
		return m, nil
	}

	if m.view != SwipeView || m.busy || m.err != nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.skip):
		return m, m.decide(models.Skip)
	case key.Matches(msg, m.keys.like):
		return m, m.decide(models.Like)
	case key.Matches(msg, m.keys.toggle):
		m.playing = m.player.Toggle()
	}
	return m, nil
}

func (m *Model) applyDecision(d tasks.Decision) {
	if d.Track.ID == "" {
		return
	}
	switch {
	case d.Direction == models.Skip:
		m.status = fmt.Sprintf("Skipped %s", d.Track.Title)
	case d.SaveErr != nil:
		m.status = styles.warn.Render(fmt.Sprintf("Liked %s but could not save it: %v", d.Track.Title, d.SaveErr))
	default:
		m.status = styles.ok.Render(fmt.Sprintf("♥ Saved %s", d.Track.Title))
	}

	if d.Direction == models.Like {
		m.liked = append(m.liked, likedItem{track: d.Track, saved: d.Saved})
		m.likedLst.InsertItem(len(m.liked)-1, m.liked[len(m.liked)-1])
	}
	if d.Refilled {
		m.status += " • new batch loaded"
	}
}

// showCurrent moves the card to the queue's current track and starts its preview.
func (m *Model) showCurrent() tea.Cmd {
	t, err := m.queue.Current()
	if err != nil {
		m.err = err
		m.player.Stop()
		m.playing = false
		return nil
	}
	m.current = t
	m.playing = false
	return m.play(t.PreviewURL)
}

func (m *Model) load() tea.Cmd {
	return func() tea.Msg {
		return queueLoadedMsg(m.queue.Load(m.ctx))
	}
}

func (m *Model) decide(dir models.Direction) tea.Cmd {
	m.busy = true
	return func() tea.Msg {
		d, err := m.queue.Decide(m.ctx, dir)
		return decidedMsg(d, err)
	}
}

func (m *Model) play(url string) tea.Cmd {
	return func() tea.Msg {
		return playbackMsg(url, m.player.Play(m.ctx, url))
	}
}

func (m *Model) waitForProgress() tea.Cmd {
	if m.progress == nil {
		return nil
	}
	return func() tea.Msg {
		update, ok := <-m.progress
		if !ok {
			return nil
		}
		return progressUpdateMsg(update)
	}
}

// Liked returns the tracks liked during this session.
func (m *Model) Liked() []models.PlayableTrack {
	out := make([]models.PlayableTrack, len(m.liked))
	for i, l := range m.liked {
		out[i] = l.track
	}
	return out
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return m.renderError()
	}

	switch m.view {
	case LoadingView:
		return m.renderLoading()
	case SwipeView:
		return m.renderCard()
	case LikedView:
		return m.renderLiked()
	default:
		return ""
	}
}

func (m *Model) renderLoading() string {
	title := styles.title.Render("Finding tracks you might like")
	msg := m.update.Message
	if msg == "" {
		msg = "Loading..."
	}
	return fmt.Sprintf("%s\n%s\n\n%s", title, msg, m.help.ShortHelpView([]key.Binding{m.keys.quit}))
}

func (m *Model) renderCard() string {
	cursor, total := m.queue.Position()
	t := m.current

	state := "▶ playing"
	if !m.playing {
		state = "⏸ paused"
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(t.Title))
	b.WriteString("\n")
	b.WriteString(styles.artist.Render(t.Artist))
	if t.Album != "" {
		b.WriteString("\n" + t.Album)
	}
	b.WriteString("\n\n" + styles.help.Render(t.ArtworkURL))
	b.WriteString("\n\n" + state)
	if m.busy {
		b.WriteString("  …")
	}

	header := styles.help.Render(fmt.Sprintf("Track %d of %d", cursor+1, total))
	out := fmt.Sprintf("%s\n%s\n", header, styles.card.Render(b.String()))
	if m.status != "" {
		out += "\n" + m.status + "\n"
	}
	return out + "\n" + m.help.View(m.keys)
}

func (m *Model) renderLiked() string {
	m.likedLst.Title = fmt.Sprintf("Liked this session (%d)", len(m.liked))
	back := key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "back"))
	return fmt.Sprintf("%s\n\n%s", m.likedLst.View(), m.help.ShortHelpView([]key.Binding{back, m.keys.quit}))
}

func (m *Model) renderError() string {
	var hint string
	switch {
	case errors.Is(m.err, shared.ErrNoSeedData):
		hint = "Save a few tracks to your library first."
	case errors.Is(m.err, shared.ErrRefillExhausted), errors.Is(m.err, shared.ErrEmptyQueue):
		hint = "No playable recommendations right now."
	case errors.Is(m.err, shared.ErrNotAuthenticated):
		hint = "Run 'swipe auth login' and try again."
	}

	out := styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	if hint != "" {
		out += "\n" + hint
	}
	return out + "\n\n" + m.help.ShortHelpView([]key.Binding{m.keys.reload, m.keys.quit})
}
