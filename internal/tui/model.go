package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/deskwm/internal/ipc"
	"github.com/1broseidon/deskwm/internal/wm"
)

// eventMsg carries one store event from the subscription.
type eventMsg struct {
	event wm.Event
}

// streamClosedMsg is sent once the event stream ends.
type streamClosedMsg struct{}

// actionMsg is sent after a controller call completes.
type actionMsg struct {
	text string
	err  error
}

// appsMsg delivers the catalog for the open form.
type appsMsg struct {
	apps []ipc.AppInfo
	err  error
}

type clearStatusMsg struct{}

type model struct {
	ctl     Controller
	events  <-chan wm.Event
	snap    wm.Snapshot
	desktop wm.Size

	// rows is snap's windows, top-most first.
	rows     []wm.Window
	cursor   int
	selected string

	connected bool
	form      *openForm

	statusText string
	statusErr  bool

	keys keyMap
	help help.Model

	width  int
	height int
}

func newModel(ctl Controller, snap wm.Snapshot, events <-chan wm.Event, desktop wm.Size) model {
	m := model{
		ctl:       ctl,
		events:    events,
		desktop:   desktop,
		connected: true,
		keys:      defaultKeyMap(),
		help:      help.New(),
	}
	m.setSnapshot(snap)
	return m
}

func waitForEvent(events <-chan wm.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg{event: ev}
	}
}

// setSnapshot replaces the view state and keeps the cursor on the same
// window id when it is still open.
func (m *model) setSnapshot(snap wm.Snapshot) {
	m.snap = snap
	stack := snap.Stack()
	m.rows = make([]wm.Window, 0, len(stack))
	for i := len(stack) - 1; i >= 0; i-- {
		m.rows = append(m.rows, stack[i])
	}

	if m.selected != "" {
		for i, w := range m.rows {
			if w.ID == m.selected {
				m.cursor = i
				return
			}
		}
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.selected = ""
	if len(m.rows) > 0 {
		m.selected = m.rows[m.cursor].ID
	}
}

func (m *model) moveCursor(delta int) {
	if len(m.rows) == 0 {
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = len(m.rows) - 1
	} else if m.cursor >= len(m.rows) {
		m.cursor = 0
	}
	m.selected = m.rows[m.cursor].ID
}

func (m model) selectedWindow() (wm.Window, bool) {
	if len(m.rows) == 0 {
		return wm.Window{}, false
	}
	return m.rows[m.cursor], true
}

func (m model) windowOp(op wm.Op) tea.Cmd {
	w, ok := m.selectedWindow()
	if !ok {
		return nil
	}
	ctl := m.ctl
	return func() tea.Msg {
		res, err := ctl.Apply(wm.Intent{Op: op, ID: w.ID})
		if err != nil {
			return actionMsg{err: fmt.Errorf("%s %s: %w", op, w.ID, err)}
		}
		if !res.Applied {
			return actionMsg{text: fmt.Sprintf("%s: %s is no longer open", op, w.ID)}
		}
		return actionMsg{text: fmt.Sprintf("%s %s", op, w.Title)}
	}
}

func (m model) arrange(mode string) tea.Cmd {
	ctl := m.ctl
	return func() tea.Msg {
		data, err := ctl.Arrange(mode)
		if err != nil {
			return actionMsg{err: fmt.Errorf("arrange %s: %w", mode, err)}
		}
		return actionMsg{text: fmt.Sprintf("arranged %d windows (%s)", data.Arranged, data.Mode)}
	}
}

func (m model) fetchApps() tea.Cmd {
	ctl := m.ctl
	return func() tea.Msg {
		data, err := ctl.ListApps()
		if err != nil {
			return appsMsg{err: err}
		}
		return appsMsg{apps: data.Apps}
	}
}

func submitOpen(ctl Controller, f *openForm) tea.Cmd {
	return func() tea.Msg {
		res, err := f.submit(ctl)
		if err != nil {
			return actionMsg{err: fmt.Errorf("open %s: %w", f.app, err)}
		}
		title := f.app
		if res.Window != nil {
			title = res.Window.Title
		}
		return actionMsg{text: "opened " + title}
	}
}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Stream messages are handled even while the form is open so the view
	// never falls behind the store.
	switch msg := msg.(type) {
	case eventMsg:
		m.setSnapshot(msg.event.Snapshot())
		return m, waitForEvent(m.events)

	case streamClosedMsg:
		m.connected = false
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if m.form != nil {
			m.form.form = m.form.form.WithWidth(msg.Width - 4)
		}
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.statusText = msg.err.Error()
			m.statusErr = true
		} else {
			m.statusText = msg.text
			m.statusErr = false
		}
		return m, clearStatusAfter(3 * time.Second)

	case clearStatusMsg:
		m.statusText = ""
		m.statusErr = false
		return m, nil

	case appsMsg:
		if msg.err != nil {
			return m.Update(actionMsg{err: fmt.Errorf("list apps: %w", msg.err)})
		}
		if len(msg.apps) == 0 {
			return m.Update(actionMsg{text: "no apps configured"})
		}
		m.form = newOpenForm(msg.apps, m.width)
		return m, m.form.form.Init()
	}

	if m.form != nil {
		return m.updateForm(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(km, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(km, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(km, m.keys.Up):
		m.moveCursor(-1)
		return m, nil
	case key.Matches(km, m.keys.Down):
		m.moveCursor(1)
		return m, nil
	}

	if !m.connected {
		return m, nil
	}

	switch {
	case key.Matches(km, m.keys.Focus):
		return m, m.windowOp(wm.OpFocus)
	case key.Matches(km, m.keys.Minimize):
		return m, m.windowOp(wm.OpMinimize)
	case key.Matches(km, m.keys.Maximize):
		return m, m.windowOp(wm.OpMaximize)
	case key.Matches(km, m.keys.Restore):
		return m, m.windowOp(wm.OpRestore)
	case key.Matches(km, m.keys.Close):
		return m, m.windowOp(wm.OpClose)
	case key.Matches(km, m.keys.Grid):
		return m, m.arrange("grid")
	case key.Matches(km, m.keys.Cascade):
		return m, m.arrange("cascade")
	case key.Matches(km, m.keys.Open):
		return m, m.fetchApps()
	}
	return m, nil
}

func (m model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form.form = f
	}

	switch m.form.form.State {
	case huh.StateCompleted:
		f := m.form
		m.form = nil
		if !m.connected {
			return m, nil
		}
		return m, submitOpen(m.ctl, f)
	case huh.StateAborted:
		m.form = nil
		return m, nil
	}
	return m, cmd
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := renderStatusBar(m.connected, m.snap, m.width)
	helpBar := helpBarStyle.Width(m.width).Render(m.help.View(m.keys))

	message := ""
	if m.statusText != "" {
		if m.statusErr {
			message = errorStyle.Render(m.statusText)
		} else {
			message = messageStyle.Render(m.statusText)
		}
	}

	used := lipgloss.Height(statusBar) + lipgloss.Height(helpBar) + 1
	contentHeight := m.height - used
	if contentHeight < 3 {
		contentHeight = 3
	}

	listWidth := m.width * 35 / 100
	if listWidth < 20 {
		listWidth = 20
	}
	if listWidth > 40 {
		listWidth = 40
	}
	rightWidth := m.width - listWidth - 1
	if rightWidth < 5 {
		rightWidth = 5
	}

	list := m.renderList(listWidth, contentHeight)

	var right string
	if m.form != nil {
		right = lipgloss.NewStyle().Width(rightWidth).Height(contentHeight).Render(m.form.form.View())
	} else {
		lines := renderDesktopPreview(m.snap, m.desktop, rightWidth, contentHeight)
		right = previewStyle.Render(strings.Join(lines, "\n"))
	}

	content := lipgloss.JoinHorizontal(lipgloss.Top, list, " ", right)
	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		content,
		message,
		helpBar,
	)
}

func (m model) renderList(width, height int) string {
	lines := []string{panelTitleStyle.Render("Windows")}
	if len(m.rows) == 0 {
		lines = append(lines, minimizedRowStyle.Render("  no open windows"))
	}

	// Scroll so the cursor stays visible.
	visible := height - 1
	if visible < 1 {
		visible = 1
	}
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	for i := start; i < len(m.rows) && i < start+visible; i++ {
		lines = append(lines, renderWindowRow(m.rows[i], i == m.cursor, width))
	}

	return lipgloss.NewStyle().Width(width).Height(height).Render(strings.Join(lines, "\n"))
}
