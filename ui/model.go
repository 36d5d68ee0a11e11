package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	// chromeHeight covers the title, compose box, status and help lines.
	chromeHeight = 8
)

// ModelOptions tunes presentation only.
type ModelOptions struct {
	// SelfSender picks the "sent" row treatment.
	SelfSender string
	// RenderMarkdown renders bodies through glamour.
	RenderMarkdown bool
}

// actionMsg carries an Action back into the event loop.
type actionMsg struct {
	action Action
}

// Model is the bubbletea program. It owns State and is the only place State
// changes while the TUI runs.
type Model struct {
	ctx    context.Context
	runner *Runner
	opts   ModelOptions

	state    State
	selected int

	compose  textinput.Model
	edit     textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	styles   styles

	width  int
	height int
}

// NewModel builds the TUI model around runner.
func NewModel(ctx context.Context, runner *Runner, opts ModelOptions) Model {
	compose := textinput.New()
	compose.Placeholder = "Type a message... (Enter to send, Esc to quit)"
	compose.Prompt = "> "
	compose.Focus()

	edit := textinput.New()
	edit.Placeholder = "Edit message... (Enter to save)"
	edit.Prompt = "✎ "

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = defaultStyles().sending

	m := Model{
		ctx:      ctx,
		runner:   runner,
		opts:     opts,
		selected: -1,
		compose:  compose,
		edit:     edit,
		viewport: viewport.New(defaultWidth, defaultHeight-chromeHeight),
		spinner:  sp,
		styles:   defaultStyles(),
		width:    defaultWidth,
		height:   defaultHeight,
	}
	m.renderer = m.newRenderer()
	m.refreshViewport()
	return m
}

// State returns the current state.
func (m Model) State() State {
	return m.state
}

// Init loads the message list.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.dispatchCmd(Mount{}))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chromeHeight, 1)
		m.compose.Width = max(msg.Width-8, 10)
		m.edit.Width = max(msg.Width-10, 10)
		if m.opts.RenderMarkdown {
			m.renderer = m.newRenderer()
		}
		m.refreshViewport()
		return m, nil

	case actionMsg:
		cmd := m.apply(msg.action)
		return m, cmd

	case spinner.TickMsg:
		if m.state.Sending {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit

	case tea.KeyEnter:
		if entry, ok := m.selectedEntry(); ok && entry.Editing {
			return m, m.apply(Save{ID: entry.ID})
		}
		return m, m.apply(Send{})

	case tea.KeyUp:
		if m.selected >= 0 {
			m.selected--
		}
		m.syncInputs()
		m.refreshViewport()
		return m, nil

	case tea.KeyDown:
		if m.selected < len(m.state.Messages)-1 {
			m.selected++
		}
		m.syncInputs()
		m.refreshViewport()
		return m, nil

	case tea.KeyCtrlE:
		if entry, ok := m.selectedEntry(); ok {
			return m, m.apply(ToggleEdit{ID: entry.ID})
		}
		return m, nil

	case tea.KeyCtrlD:
		if entry, ok := m.selectedEntry(); ok {
			return m, m.apply(Delete{ID: entry.ID})
		}
		return m, nil

	case tea.KeyCtrlR:
		return m, m.apply(Reload{})

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	if entry, ok := m.selectedEntry(); ok && entry.Editing {
		m.edit, cmd = m.edit.Update(msg)
		if m.edit.Value() != entry.UpdatedMessage {
			return m, tea.Batch(cmd, m.apply(EditChanged{ID: entry.ID, Value: m.edit.Value()}))
		}
		return m, cmd
	}

	m.compose, cmd = m.compose.Update(msg)
	if m.compose.Value() != m.state.ComposeText {
		return m, tea.Batch(cmd, m.apply(ComposeChanged{Text: m.compose.Value()}))
	}
	return m, cmd
}

// apply runs Reduce and turns every effect into a command that re-enters the
// loop as an actionMsg.
func (m *Model) apply(action Action) tea.Cmd {
	wasSending := m.state.Sending

	next, effects := Reduce(m.state, action)
	m.state = next

	if m.selected >= len(m.state.Messages) {
		m.selected = len(m.state.Messages) - 1
	}
	m.syncInputs()
	m.refreshViewport()

	cmds := make([]tea.Cmd, 0, len(effects)+1)
	for _, effect := range effects {
		cmds = append(cmds, m.effectCmd(effect))
	}
	if m.state.Sending && !wasSending {
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (m Model) dispatchCmd(action Action) tea.Cmd {
	return func() tea.Msg {
		return actionMsg{action: action}
	}
}

func (m Model) effectCmd(effect Effect) tea.Cmd {
	ctx, runner := m.ctx, m.runner
	return func() tea.Msg {
		result := runner.Run(ctx, effect)
		if result == nil {
			return nil
		}
		return actionMsg{action: result}
	}
}

func (m Model) selectedEntry() (Entry, bool) {
	if m.selected < 0 || m.selected >= len(m.state.Messages) {
		return Entry{}, false
	}
	return m.state.Messages[m.selected], true
}

// syncInputs mirrors State into the text inputs and moves focus to the edit
// input while the selected row is in edit mode.
func (m *Model) syncInputs() {
	if m.compose.Value() != m.state.ComposeText {
		m.compose.SetValue(m.state.ComposeText)
	}

	entry, ok := m.selectedEntry()
	if ok && entry.Editing {
		if m.edit.Value() != entry.UpdatedMessage {
			m.edit.SetValue(entry.UpdatedMessage)
		}
		m.compose.Blur()
		m.edit.Focus()
		return
	}
	m.edit.Blur()
	m.compose.Focus()
}

// refreshViewport re-renders the list and scrolls just enough to keep the
// selected row on screen. With nothing selected the newest rows are shown.
func (m *Model) refreshViewport() {
	content, offsets := m.renderMessages()
	m.viewport.SetContent(content)
	if m.selected < 0 || m.selected+1 >= len(offsets) {
		m.viewport.GotoBottom()
		return
	}

	top, bottom := offsets[m.selected], offsets[m.selected+1]
	switch {
	case top < m.viewport.YOffset:
		m.viewport.SetYOffset(top)
	case bottom > m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(max(bottom-m.viewport.Height, top))
	}
}

func (m Model) newRenderer() *glamour.TermRenderer {
	if !m.opts.RenderMarkdown {
		return nil
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(max(m.width-8, 20)),
	)
	if err != nil {
		return nil
	}
	return renderer
}

// Run starts the full-screen program and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, runner *Runner, opts ModelOptions) error {
	program := tea.NewProgram(
		NewModel(ctx, runner, opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
