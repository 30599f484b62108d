package voice

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/nadzzz/mira/internal/message"
	"github.com/nadzzz/mira/internal/stt"
)

// Input drives a Recognizer as a restartable listening session.
type Input struct {
	rec  stt.Recognizer
	opts stt.Options

	base      context.Context
	closeBase context.CancelFunc

	mu      sync.Mutex
	sink    Sink
	active  bool
	session uint64
	cancel  context.CancelFunc
	aborted bool
}

// NewInput wraps rec for continuous recognition in lang with interim
// results and one alternative. A nil rec means no recognition capability.
func NewInput(rec stt.Recognizer, lang string) *Input {
	base, cancel := context.WithCancel(context.Background())
	return &Input{
		rec: rec,
		opts: stt.Options{
			Language:        lang,
			Interim:         true,
			MaxAlternatives: 1,
			Continuous:      true,
		},
		base:      base,
		closeBase: cancel,
	}
}

// Available reports whether a recognizer is configured.
func (in *Input) Available() bool { return in.rec != nil }

// Bind sets the event sink. It must be called before Start.
func (in *Input) Bind(s Sink) {
	in.mu.Lock()
	in.sink = s
	in.mu.Unlock()
}

// Start begins a recognition session and returns its ID through the
// Started event. It returns stt.ErrAlreadyStarted while a session is active
// and stt.ErrUnavailable when there is no recognizer.
func (in *Input) Start() error {
	if in.rec == nil {
		return stt.ErrUnavailable
	}
	if err := in.base.Err(); err != nil {
		return err
	}

	in.mu.Lock()
	if in.active {
		in.mu.Unlock()
		return stt.ErrAlreadyStarted
	}
	in.session++
	id := in.session
	ctx, cancel := context.WithCancel(in.base)
	in.active = true
	in.aborted = false
	in.cancel = cancel
	sink := in.sink
	in.mu.Unlock()

	go in.run(ctx, id, sink)
	return nil
}

func (in *Input) run(ctx context.Context, id uint64, sink Sink) {
	emit := func(e message.Event) {
		e.ID = id
		if sink != nil {
			sink(e)
		}
	}

	emit(message.Event{Kind: message.InputStarted})
	err := in.rec.Recognize(ctx, in.opts, func(r stt.Result) {
		emit(message.Event{Kind: message.InputTranscript, Transcript: message.Transcript{Text: r.Text, Final: r.Final}})
	})

	in.mu.Lock()
	aborted := in.aborted
	if in.session == id {
		in.active = false
		in.cancel = nil
	}
	in.mu.Unlock()

	switch {
	case err != nil && !aborted:
		slog.Warn("recognition session failed", "session", id, "backend", in.rec.Name(), "error", err)
		emit(message.Event{Kind: message.InputError, Code: errorCode(err), Err: err})
	case aborted:
		emit(message.Event{Kind: message.InputError, Code: "aborted", Err: context.Canceled})
	}
	emit(message.Event{Kind: message.InputEnded})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, stt.ErrUnavailable):
		return "not-allowed"
	default:
		return "network"
	}
}

// Abort cancels the active session, if any. The session still reports
// its termination through the sink.
func (in *Input) Abort() {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.cancel == nil {
		return
	}
	in.aborted = true
	in.cancel()
	in.cancel = nil
}

// Active reports whether a session is running.
func (in *Input) Active() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.active
}

// Close aborts any session and refuses further starts.
func (in *Input) Close() error {
	in.Abort()
	in.closeBase()
	if in.rec != nil {
		return in.rec.Close()
	}
	return nil
}
