package tui

import (
	"github.com/nadzzz/mira/internal/message"
	"github.com/nadzzz/mira/internal/presentation"
)

// UpdateMsg wraps a presentation update from the Board.
type UpdateMsg struct {
	Update presentation.Update
}

// UpdatesClosedMsg is sent when the Board subscription ends.
type UpdatesClosedMsg struct{}

// CommandDoneMsg carries the outcome of a typed command.
type CommandDoneMsg struct {
	Result *message.Result
	Err    error
}
