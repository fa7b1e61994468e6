// ABOUTME: Bubbletea model for the output device dropdown
// ABOUTME: Renders selector options and turns key presses into selections
package ui

import (
	"fmt"
	"strings"

	"github.com/Resonate-Protocol/outputselect/pkg/audio"
	"github.com/Resonate-Protocol/outputselect/pkg/audio/selector"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SetDeviceFunc receives the device picked by the user
type SetDeviceFunc func(audio.Device)

// StateMsg replaces the props rendered by the dropdown
type StateMsg struct {
	Devices          []audio.Device
	SelectedDeviceID string
	Muted            bool
	Err              error
}

type keyMap struct {
	Toggle    key.Binding
	Up        key.Binding
	Down      key.Binding
	Close     key.Binding
	Refresh   key.Binding
	Mute      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

var keys = keyMap{
	Toggle:    key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "choose output")),
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Close:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
	Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Mute:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute preview")),
	Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	ForceQuit: key.NewBinding(key.WithKeys("ctrl+c")),
}

var selectBinding = key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "select"))

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	disabledStyle = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// Model represents the dropdown state
type Model struct {
	title string
	props selector.Props
	err   error
	muted bool

	open   bool
	cursor int

	ctrl *Controls
	help help.Model

	width  int
	height int
}

// NewModel creates a dropdown bound to setDevice
func NewModel(title string, setDevice SetDeviceFunc, ctrl *Controls) Model {
	return Model{
		title: title,
		props: selector.Props{SetDevice: setDevice},
		ctrl:  ctrl,
		help:  help.New(),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
	case StateMsg:
		m.applyState(msg)
	}

	return m, nil
}

// applyState swaps in new props, keeping the cursor on a valid option
func (m *Model) applyState(msg StateMsg) {
	m.props.Devices = msg.Devices
	m.props.SelectedDeviceID = msg.SelectedDeviceID
	m.err = msg.Err
	m.muted = msg.Muted

	if !m.open {
		return
	}
	if m.cursor > len(m.props.Devices) {
		m.cursor = len(m.props.Devices)
	}
	if m.cursor == 0 && len(m.props.Devices) > 0 {
		m.cursor = 1
	}
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.ForceQuit):
		m.ctrl.requestQuit()
		return m, tea.Quit
	case key.Matches(msg, keys.Quit):
		if !m.open {
			m.ctrl.requestQuit()
			return m, tea.Quit
		}
	case key.Matches(msg, keys.Close):
		m.open = false
	case key.Matches(msg, keys.Refresh):
		m.ctrl.requestRefresh()
	case key.Matches(msg, keys.Mute):
		m.ctrl.requestMute()
	case key.Matches(msg, keys.Toggle):
		if m.open {
			m.commit()
		} else {
			m.openList()
		}
	case key.Matches(msg, keys.Up):
		if m.open {
			m.move(-1)
		}
	case key.Matches(msg, keys.Down):
		if m.open {
			m.move(1)
		}
	}

	return m, nil
}

// openList opens the list with the cursor on the current value
func (m *Model) openList() {
	m.open = true
	m.cursor = m.optionIndex(m.props.Value())
	if m.cursor == 0 && len(m.props.Devices) > 0 {
		m.cursor = 1
	}
}

// move shifts the cursor over selectable options, never onto the placeholder
func (m *Model) move(delta int) {
	n := len(m.props.Devices)
	if n == 0 {
		return
	}
	next := m.cursor + delta
	if next < 1 {
		next = 1
	}
	if next > n {
		next = n
	}
	m.cursor = next
}

// commit reports the option under the cursor and closes the list
func (m *Model) commit() {
	m.open = false

	opts := m.props.Options()
	if m.cursor < 0 || m.cursor >= len(opts) {
		return
	}
	opt := opts[m.cursor]
	if opt.Disabled {
		return
	}
	m.props.Change(opt.Value)
}

// optionIndex returns the option position of value (0 = placeholder)
func (m Model) optionIndex(value string) int {
	for i, opt := range m.props.Options() {
		if opt.Value == value {
			return i
		}
	}
	return 0
}

// View renders the dropdown
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.renderControl())
	if m.muted {
		b.WriteString(" " + mutedStyle.Render("preview muted"))
	}
	b.WriteString("\n")

	if m.open {
		b.WriteString(m.renderOptions())
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Device list unavailable: %v", m.err)))
		b.WriteString("\n")
	}

	b.WriteString(m.renderHelp())
	return b.String()
}

// renderControl renders the closed control showing the current value
func (m Model) renderControl() string {
	value := m.props.Value()
	label := selector.PlaceholderLabel
	for _, opt := range m.props.Options() {
		if opt.Value == value {
			label = opt.Label
			break
		}
	}

	arrow := "▾"
	if m.open {
		arrow = "▴"
	}
	return boxStyle.Render(fmt.Sprintf("%s %s", label, arrow))
}

// renderOptions renders the open list
func (m Model) renderOptions() string {
	var b strings.Builder
	value := m.props.Value()

	for i, opt := range m.props.Options() {
		line := opt.Label
		if !opt.Disabled && opt.Value == value {
			line += " ✓"
		}

		switch {
		case opt.Disabled:
			b.WriteString("    " + disabledStyle.Render(line))
		case i == m.cursor:
			b.WriteString("  " + cursorStyle.Render("> "+line))
		default:
			b.WriteString("    " + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	if m.open {
		return m.help.ShortHelpView([]key.Binding{keys.Up, keys.Down, selectBinding, keys.Close})
	}
	return m.help.ShortHelpView([]key.Binding{keys.Toggle, keys.Refresh, keys.Mute, keys.Quit})
}
