// Package dispatch routes commands from every entry point through the
// interpreter.
//
// Voice transcripts arrive from the session Arbiter, typed commands from the
// TUI and the transports. Each command is added to the conversation history
// as a user line and evaluated exactly once.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nadzzz/mira/internal/message"
	"github.com/nadzzz/mira/internal/presentation"
)

// Greeting is spoken (or shown, in text-only mode) shortly after startup.
const Greeting = "আসসালামু আলাইকুম বস, আমি মিরা। আমি সবসময় আপনার কথা শুনছি। বলুন আমি কী করতে পারি?"

// SelfTest is the audio self-test phrase.
const SelfTest = "বস, আমি চেক করছি। সব সিস্টেম ঠিক আছে।"

// Notification texts.
const (
	NotifyTitle    = "🤖 Mira AI Active"
	NotifyVoice    = "আমি সবসময় আপনার কথা শুনছি"
	NotifyTextOnly = "টেক্সট মোডে চলছে"
)

// Interpreter evaluates one command.
type Interpreter interface {
	Handle(ctx context.Context, msg *message.Message) *message.Result
}

// Speaker queues text for speech. In text-only mode it only records the
// line in the history.
type Speaker interface {
	Speak(text string)
	Degraded() bool
}

// Board is the presentation state the dispatcher writes to.
type Board interface {
	AddMessage(sender presentation.Sender, text string)
	RequestNotifications() bool
	Notify(title, body string)
}

// Dispatcher is the central routing engine.
type Dispatcher struct {
	interp  Interpreter
	speaker Speaker
	board   Board
}

// New creates a new Dispatcher.
func New(interp Interpreter, speaker Speaker, board Board) *Dispatcher {
	return &Dispatcher{interp: interp, speaker: speaker, board: board}
}

// Handle records msg in the history and evaluates it. It is the
// transport.Handler for every entry point.
func (d *Dispatcher) Handle(ctx context.Context, msg *message.Message) (*message.Result, error) {
	start := time.Now()
	logger := slog.With("message_id", msg.ID, "source", msg.Source)

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return nil, fmt.Errorf("empty command")
	}

	d.board.AddMessage(presentation.SenderUser, text)
	res := d.interp.Handle(ctx, msg)
	if res == nil {
		res = &message.Result{MessageID: msg.ID}
	}
	logger.Info("dispatch complete", "intents", res.Intents, "duration", time.Since(start))
	return res, nil
}

// HandleTranscript dispatches a final voice transcript. It has the
// signature of session.Arbiter.OnTranscript.
func (d *Dispatcher) HandleTranscript(ctx context.Context, text string) {
	if _, err := d.Handle(ctx, message.New(message.SourceVoice, text)); err != nil {
		slog.Debug("transcript ignored", "error", err)
	}
}

// Greet waits delay, then greets the user and posts the "active"
// notification. Notification permission is asked for once, first.
func (d *Dispatcher) Greet(ctx context.Context, delay time.Duration) {
	granted := d.board.RequestNotifications()

	select {
	case <-ctx.Done():
		return
	case <-time.After(delay):
	}

	d.speaker.Speak(Greeting)
	if !granted {
		return
	}
	body := NotifyVoice
	if d.speaker.Degraded() {
		body = NotifyTextOnly
	}
	d.board.Notify(NotifyTitle, body)
}

// TestAudio speaks the self-test phrase.
func (d *Dispatcher) TestAudio() {
	d.speaker.Speak(SelfTest)
}
