// Package message defines the core data types flowing through the mira pipeline.
package message

import (
	"time"

	"github.com/google/uuid"
)

// Source identifies where a command entered the daemon.
type Source string

const (
	// SourceVoice is a final transcript from the speech recognizer.
	SourceVoice Source = "voice"

	// SourceText is a typed command (TUI input line or HTTP POST /command).
	SourceText Source = "text"

	// SourceMCP is a command issued through the MCP run_command tool.
	SourceMCP Source = "mcp"
)

// Transcript is a single recognition result from the speech recognizer.
// Interim transcripts only update the live status; final ones are
// dispatched exactly once.
type Transcript struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
}

// Message represents an inbound command from any entry point.
type Message struct {
	// ID is a unique identifier for this message (UUID).
	ID string `json:"id"`

	// Source identifies the entry point (voice, text, mcp).
	Source Source `json:"source"`

	// Text is the raw command text as heard or typed.
	Text string `json:"text"`

	// Timestamp is when the command was received.
	Timestamp time.Time `json:"timestamp"`
}

// New builds a Message with a fresh ID and the current time.
func New(source Source, text string) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Source:    source,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// Result is the outcome of processing a message through the interpreter.
type Result struct {
	// MessageID is the original message ID.
	MessageID string `json:"message_id"`

	// Transcript is the normalized command text that was evaluated.
	Transcript string `json:"transcript,omitempty"`

	// Intents lists the names of the rules that fired, in order.
	Intents []string `json:"intents"`

	// Responses lists the texts handed to speech output, in order.
	Responses []string `json:"responses"`

	// URLs lists the addresses handed to the launcher, in order.
	URLs []string `json:"urls,omitempty"`

	// Error is set if evaluation failed and the apology was spoken.
	Error string `json:"error,omitempty"`
}
