// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program hosting the output selector
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Controls carries user requests out of the TUI
type Controls struct {
	Refresh chan struct{}
	Mute    chan struct{}
	Quit    chan struct{}
}

// NewControls creates a new control handler
func NewControls() *Controls {
	return &Controls{
		Refresh: make(chan struct{}, 1),
		Mute:    make(chan struct{}, 1),
		Quit:    make(chan struct{}, 1),
	}
}

// requestRefresh signals a refresh without blocking
func (c *Controls) requestRefresh() {
	if c == nil {
		return
	}
	select {
	case c.Refresh <- struct{}{}:
	default:
	}
}

// requestMute signals a mute toggle without blocking
func (c *Controls) requestMute() {
	if c == nil {
		return
	}
	select {
	case c.Mute <- struct{}{}:
	default:
	}
}

// requestQuit signals quit without blocking
func (c *Controls) requestQuit() {
	if c == nil {
		return
	}
	select {
	case c.Quit <- struct{}{}:
	default:
	}
}

// Run creates the TUI program. The caller runs it and feeds it StateMsg.
func Run(title string, setDevice SetDeviceFunc, ctrl *Controls) *tea.Program {
	return tea.NewProgram(NewModel(title, setDevice, ctrl), tea.WithAltScreen())
}
