// Package app ties fetching, viewing and commands together into a bubbletea program.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/vidyasagar/gsurf/internal/browser"
	"github.com/vidyasagar/gsurf/internal/gemini"
	"github.com/vidyasagar/gsurf/internal/theme"
	"github.com/vidyasagar/gsurf/internal/ui"
)

// Fetcher retrieves Gemini pages.
type Fetcher interface {
	Fetch(ctx context.Context, u *url.URL) (*browser.Page, error)
}

// Model is the top-level bubbletea model for gsurf.
type Model struct {
	// UI components
	canvas     *ui.Canvas
	viewport   *ui.Viewport
	statusBar  ui.StatusBar
	commandBar ui.CommandBar
	spinner    spinner.Model

	fetcher  Fetcher
	prompter *Prompter
	keys     KeyMap

	// current is the URL of the page on screen; nil until the first page loads.
	current  *url.URL
	startURL *url.URL

	// loading is the URL being fetched, or nil when idle.
	loading *url.URL
	cancel  context.CancelFunc
	// pending is the server prompt the command bar is answering.
	pending *promptRequest

	width, height int
	ready         bool
}

// pageLoadedMsg is sent when a fetch finishes.
type pageLoadedMsg struct {
	url  *url.URL
	page *browser.Page
	err  error
}

// New creates a Model that loads startURL once the program starts. prompter must be
// the Prompter the fetcher asks for input.
func New(fetcher Fetcher, prompter *Prompter, startURL *url.URL) Model {
	canvas := ui.NewCanvas(0, 0)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Current.Accent)

	return Model{
		canvas:     canvas,
		viewport:   ui.NewViewport(canvas, nil, 0, 0),
		statusBar:  ui.NewStatusBar(),
		commandBar: ui.NewCommandBar(),
		spinner:    sp,
		fetcher:    fetcher,
		prompter:   prompter,
		keys:       DefaultKeyMap(),
		startURL:   startURL,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.prompter.wait(), m.startLoad())
}

// startLoad routes the first load through Update, since Init cannot change the model.
func (m Model) startLoad() tea.Cmd {
	if m.startURL == nil {
		return nil
	}
	return func() tea.Msg { return loadMsg{url: m.startURL} }
}

// loadMsg asks the model to fetch url.
type loadMsg struct {
	url *url.URL
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.canvas.Resize(msg.Width, msg.Height-1)
		m.statusBar.SetWidth(msg.Width)
		m.commandBar.SetWidth(msg.Width)
		m.viewport.Update(msg)

	case loadMsg:
		m, cmd = m.load(msg.url)

	case pageLoadedMsg:
		m = m.handlePageLoaded(msg)

	case promptRequestMsg:
		req := promptRequest(msg)
		m.pending = &req
		cmd = tea.Batch(m.commandBar.OpenPrompt(req.prompt, req.sensitive), m.prompter.wait())

	case spinner.TickMsg:
		if m.loading == nil {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		m.statusBar.SetLoading(m.spinner.View())

	case tea.KeyMsg:
		if m.commandBar.IsActive() {
			m, cmd = m.handleCommandMode(msg)
		} else {
			m, cmd = m.handleOutcome(m.viewport.Update(msg))
		}

	case tea.MouseMsg:
		if !m.commandBar.IsActive() {
			m.viewport.Update(msg)
		}
	}

	m.statusBar.SetPosition(m.viewport.Position())
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return ""
	}

	bottom := m.statusBar.View()
	if m.commandBar.IsActive() {
		bottom = m.commandBar.View()
	}

	return m.canvas.String() + "\n" + bottom
}

func (m Model) handleOutcome(out ui.Outcome) (Model, tea.Cmd) {
	if out.Notice != "" {
		m.statusBar.SetMessage(out.Notice)
	}
	if out.ReadCommand {
		return m, m.commandBar.Open()
	}
	if out.Command != nil {
		return m.handleCommand(*out.Command)
	}
	return m, nil
}

func (m Model) handleCommandMode(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		if m.commandBar.Type() == ui.CommandPrompt {
			m = m.answer(promptReply{})
		}
		m.commandBar.Close()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		result := m.commandBar.Submit()
		if result.Type == ui.CommandPrompt {
			return m.answer(promptReply{value: result.Value, ok: true}), nil
		}

		cmd, err := ui.ParseCommand(result.Value)
		if err != nil {
			m.viewport.SetCommandError(err.Error())
			return m, nil
		}
		return m.handleCommand(cmd)
	}

	cb, cmd := m.commandBar.Update(msg)
	m.commandBar = *cb
	return m, cmd
}

// answer replies to the pending server prompt.
func (m Model) answer(reply promptReply) Model {
	if m.pending != nil {
		m.pending.reply <- reply
		m.pending = nil
	}
	return m
}

func (m Model) handleCommand(cmd ui.Command) (Model, tea.Cmd) {
	switch cmd.Kind {
	case ui.CommandExit:
		if m.cancel != nil {
			m.cancel()
		}
		m = m.answer(promptReply{})
		return m, tea.Quit

	case ui.CommandLoad:
		return m.load(cmd.URL)

	case ui.CommandTryLoad:
		u, err := m.resolve(cmd.Target)
		if err != nil {
			m.viewport.SetCommandError(err.Error())
			return m, nil
		}
		return m.load(u)
	}

	return m, nil
}

// resolve parses a link target, resolving relative references against the current page.
func (m Model) resolve(target string) (*url.URL, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", gemini.ErrURLParse, err)
	}
	if u.IsAbs() {
		return u, nil
	}
	if m.current == nil {
		return nil, fmt.Errorf("%w: relative link %q without a current page", gemini.ErrURLParse, target)
	}
	return m.current.ResolveReference(u), nil
}

// load starts fetching u unless a fetch is already running.
func (m Model) load(u *url.URL) (Model, tea.Cmd) {
	if m.loading != nil {
		slog.Debug("Ignoring load while another is running", "url", u.String(), "loading", m.loading.String())
		return m, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.loading = u
	m.cancel = cancel
	m.statusBar.SetURL(u.String())
	m.statusBar.SetMessage("")
	m.statusBar.SetLoading(m.spinner.View())

	fetcher := m.fetcher
	fetch := func() tea.Msg {
		page, err := fetcher.Fetch(ctx, u)
		return pageLoadedMsg{url: u, page: page, err: err}
	}

	return m, tea.Batch(fetch, m.spinner.Tick)
}

func (m Model) handlePageLoaded(msg pageLoadedMsg) Model {
	if m.cancel != nil {
		m.cancel()
	}
	m.loading = nil
	m.cancel = nil
	m.statusBar.SetLoading("")
	if m.current != nil {
		m.statusBar.SetURL(m.current.String())
	} else {
		m.statusBar.SetURL("")
	}

	if msg.err != nil {
		if errors.Is(msg.err, gemini.ErrInputCancelled) {
			return m
		}
		slog.Warn("Failed to load page", "url", msg.url.String(), "error", msg.err)
		m.viewport.SetCommandError(msg.err.Error())
		return m
	}

	page := msg.page
	slog.Info("Loaded page", "url", page.URL.String(), "status", int(page.Response.Status))

	if page.Document == nil {
		m.statusBar.SetMessage(page.Response.Header())
		return m
	}

	m.current = page.URL
	m.canvas.MoveTo(0, 0)
	m.canvas.Clear(ui.ClearAll)
	m.viewport = ui.NewViewport(m.canvas, page.Document, m.width, m.height)
	m.statusBar.SetURL(page.URL.String())
	m.statusBar.SetTitle(page.Document.Title())
	m.statusBar.SetMessage("")

	return m
}
