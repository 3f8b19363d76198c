package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/visheshvs/nexportify/internal/models"
	"github.com/visheshvs/nexportify/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PickView ViewState = iota
	ConfirmView
	ExportView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       *tasks.Engine
	opts         tasks.BulkExportOpts
	width        int
	height       int
	playlistList list.Model
	playlists    []models.Playlist
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	result       *tasks.BulkExportResult
	err          error
	help         help.Model
	keys         keyMap
}

type playlistsFetchedMsg struct {
	playlists []models.Playlist
	err       error
}

type progressUpdateMsg tasks.ProgressUpdate

type exportCompleteMsg struct {
	result *tasks.BulkExportResult
	err    error
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, engine *tasks.Engine, opts tasks.BulkExportOpts) *Model {
	return &Model{
		ctx:    ctx,
		view:   PickView,
		engine: engine,
		opts:   opts,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init initializes the TUI by enumerating the user's playlists.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.playlistList.Width() == 0 {
			m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PickView:
			return m.handlePickKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case playlistsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.playlists = msg.playlists
		items := make([]list.Item, len(msg.playlists))
		for i, pl := range msg.playlists {
			items[i] = playlistItem{playlist: pl}
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = "Pick playlists to export"
		m.playlistList.SetSize(m.width-4, m.height-8)
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case exportCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		return m, nil
	}

	if m.view == PickView {
		var cmd tea.Cmd
		m.playlistList, cmd = m.playlistList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PickView:
		return m.renderPick()
	case ConfirmView:
		return m.renderConfirm()
	case ExportView:
		return m.renderExport()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

// Err returns the terminal failure, if any, once the program has exited.
func (m *Model) Err() error {
	return m.err
}

// Result returns the bulk export outcome, if the export ran.
func (m *Model) Result() *tasks.BulkExportResult {
	return m.result
}

func (m *Model) handlePickKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		index := m.playlistList.Index()
		if item, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			item.selected = !item.selected
			return m, m.playlistList.SetItem(index, item)
		}
	case "enter":
		if len(m.selectedPlaylists()) > 0 {
			m.view = ConfirmView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = PickView
		return m, nil
	case "y":
		m.view = ExportView
		return m, m.startExport()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "enter":
		return m, tea.Quit
	case "r":
		m.view = PickView
		m.result = nil
		m.err = nil
		return m, nil
	}
	return m, nil
}

// selectedPlaylists returns the marked playlists in list order.
func (m *Model) selectedPlaylists() []models.Playlist {
	var picked []models.Playlist
	for _, item := range m.playlistList.Items() {
		if pi, ok := item.(playlistItem); ok && pi.selected {
			picked = append(picked, pi.playlist)
		}
	}
	return picked
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.engine.EnumeratePlaylists(m.ctx)
		return playlistsFetchedMsg{playlists: playlists, err: err}
	}
}

func (m *Model) startExport() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	picked := m.selectedPlaylists()

	done := m.progressChan
	go func() {
		result, err := m.engine.BulkExport(m.ctx, done, picked, m.opts)
		m.result = result
		m.err = err
		close(done)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return exportCompleteMsg{result: m.result, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			m.progressChan = nil
			return exportCompleteMsg{result: m.result, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderPick() string {
	count := len(m.selectedPlaylists())
	helpKeys := []key.Binding{m.keys.toggle, m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n%d selected\n\n%s", m.playlistList.View(), count, helpView)
}

func (m *Model) renderConfirm() string {
	picked := m.selectedPlaylists()
	title := styles.title.Render(fmt.Sprintf("Export %d playlists?", len(picked)))

	info := ""
	for _, pl := range picked {
		info += fmt.Sprintf("  • %s (%d tracks)\n", pl.Name, pl.TrackCount)
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderExport() string {
	title := styles.title.Render("Exporting Playlists")

	var phase string
	switch m.progress.Phase {
	case tasks.TrackWave:
		phase = "Fetching tracks..."
	case tasks.GenreWave:
		phase = "Resolving artist genres..."
	case tasks.LabelWave:
		phase = "Resolving record labels..."
	case tasks.FeatureWave:
		phase = "Fetching audio features..."
	case tasks.Assemble:
		phase = "Assembling rows..."
	case tasks.ExportPlaylist:
		phase = fmt.Sprintf("Exporting (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Working..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Export failed: %v\n\nPress r to retry, q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to retry, q to quit")
	}

	title := styles.ok.Render("✓ Export Complete!")
	info := fmt.Sprintf(
		"\nPlaylists: %d\nSucceeded: %d\nFailed: %d\nOutput: %s",
		m.result.TotalPlaylists,
		m.result.SuccessfulExports,
		m.result.FailedExports,
		m.result.OutputDirectory,
	)

	var failed string
	if m.result.FailedExports > 0 {
		failed = fmt.Sprintf("\n\n%s", styles.warn.Render("Failed exports:"))
		for _, r := range m.result.Results {
			if !r.Success {
				failed += fmt.Sprintf("\n  • %s: %s", r.PlaylistName, r.Error)
			}
		}
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}
