// Package session arbitrates the shared audio device between listening and
// speaking.
//
// The Arbiter keeps a continuous listening session alive across engine
// errors, natural ends and interruptions from speech output, and guarantees
// that listening and speaking are never active at the same time. All state
// lives in one goroutine (Run); engine callbacks and public calls only post
// events to it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nadzzz/mira/internal/message"
	"github.com/nadzzz/mira/internal/presentation"
	"github.com/nadzzz/mira/internal/stt"
)

// State is the arbitration state.
type State int

const (
	Idle State = iota
	Listening
	Speaking
	Restarting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Listening:
		return "listening"
	case Speaking:
		return "speaking"
	case Restarting:
		return "restarting"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Input is the listening side of the audio device.
type Input interface {
	Available() bool
	Start() error
	Abort()
}

// Output is the speaking side of the audio device.
type Output interface {
	Available() bool
	Speak(text string) uint64
	Cancel()
}

// Presenter receives the user-visible side effects of transitions.
type Presenter interface {
	AddMessage(sender presentation.Sender, text string)
	SetStatus(text string, percent int)
	SetPartial(text string)
	ShowBanner(kind presentation.BannerKind, text string) uint64
}

// Config holds the arbitration timings.
type Config struct {
	StartDelay   time.Duration // before the first listening attempt
	RestartDelay time.Duration // after any listening termination
	RetryDelay   time.Duration // after a failed start
}

// Snapshot is a consistent view of the Arbiter for observers.
type Snapshot struct {
	State     State     `json:"-"`
	StateName string    `json:"state"`
	Degraded  bool      `json:"degraded"`
	Session   uint64    `json:"session"`
	Utterance uint64    `json:"utterance"`
	Restarts  uint64    `json:"restarts"`
	Changed   time.Time `json:"changed"`
}

// Banner texts.
const (
	TextOnlyBanner = "⚠️ ভয়েস সাপোর্ট নেই। টেক্সট দিয়ে কমান্ড দিন।"
	MicHelpBanner  = "🎤 ভয়েস সাপোর্ট নেই। টেক্সট দিয়ে কমান্ড দিন নিচের বক্সে।"
)

type eventKind int

const (
	evDriver eventKind = iota
	evSpeak
	evResume
	evForceStart
	evTimer
)

type event struct {
	kind eventKind
	drv  message.Event
	text string
	gen  uint64
}

// Arbiter is the listening/speaking state machine.
type Arbiter struct {
	input     Input
	output    Output
	presenter Presenter
	cfg       Config

	events chan event
	done   chan struct{}

	// Loop-owned state.
	state     State
	degraded  bool
	session   uint64 // current input session, from its Started event
	utterance uint64 // current utterance; output events for others are stale
	restarts  uint64
	timer     *time.Timer
	timerGen  uint64

	transcripts *transcriptQueue
	onFinal     func(ctx context.Context, text string)

	mu        sync.RWMutex
	snap      Snapshot
	observers []func(Snapshot)
}

// New creates an Arbiter. Bind both drivers to the Arbiter's Sink before
// calling Run.
func New(input Input, output Output, presenter Presenter, cfg Config) *Arbiter {
	if cfg.RestartDelay <= 0 {
		cfg.RestartDelay = 500 * time.Millisecond
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 1000 * time.Millisecond
	}
	a := &Arbiter{
		input:       input,
		output:      output,
		presenter:   presenter,
		cfg:         cfg,
		events:      make(chan event, 64),
		done:        make(chan struct{}),
		transcripts: newTranscriptQueue(),
	}
	a.snap = Snapshot{State: Idle, StateName: Idle.String(), Changed: time.Now()}
	return a
}

// OnTranscript sets the handler for final transcripts. Transcripts are
// delivered in order on a dedicated goroutine so a slow handler never
// stalls arbitration. It must be called before Run.
func (a *Arbiter) OnTranscript(fn func(ctx context.Context, text string)) {
	a.onFinal = fn
}

// Observe registers fn to be called with a snapshot after every transition.
// fn runs on the arbitration goroutine and must not block.
func (a *Arbiter) Observe(fn func(Snapshot)) {
	a.mu.Lock()
	a.observers = append(a.observers, fn)
	a.mu.Unlock()
}

// Sink receives the events of both drivers.
func (a *Arbiter) Sink(e message.Event) {
	a.post(event{kind: evDriver, drv: e})
}

// Speak queues text for speech. Empty text is ignored.
func (a *Arbiter) Speak(text string) {
	if text == "" {
		return
	}
	a.post(event{kind: evSpeak, text: text})
}

// Resume restarts listening if it is neither active nor superseded by
// speech, e.g. when the terminal regains focus.
func (a *Arbiter) Resume() {
	a.post(event{kind: evResume})
}

// ForceStart aborts and re-creates the listening session.
func (a *Arbiter) ForceStart() {
	a.post(event{kind: evForceStart})
}

func (a *Arbiter) post(e event) {
	select {
	case a.events <- e:
	case <-a.done:
	}
}

// State returns the current arbitration state.
func (a *Arbiter) State() State {
	return a.Snapshot().State
}

// Degraded reports whether the Arbiter runs in text-only mode.
func (a *Arbiter) Degraded() bool {
	return a.Snapshot().Degraded
}

// Snapshot returns the latest published snapshot.
func (a *Arbiter) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snap
}

// Run processes events until ctx is done.
func (a *Arbiter) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()
	defer close(a.done)

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.deliverTranscripts(ctx)
	}()

	a.begin()

	for {
		select {
		case <-ctx.Done():
			a.stopTimer()
			if a.state == Listening && a.input != nil {
				a.input.Abort()
			}
			if a.state == Speaking && a.output != nil {
				a.output.Cancel()
			}
			return nil
		case e := <-a.events:
			a.handle(e)
		}
	}
}

func (a *Arbiter) deliverTranscripts(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.transcripts.ready:
			for _, text := range a.transcripts.drain() {
				if ctx.Err() != nil {
					return
				}
				if a.onFinal != nil {
					a.onFinal(ctx, text)
				}
			}
		}
	}
}

// begin decides between voice and text-only operation.
func (a *Arbiter) begin() {
	if a.input == nil || !a.input.Available() {
		slog.Warn("speech recognition unavailable, running in text-only mode")
		a.degraded = true
		a.presenter.SetStatus(presentation.StatusTextOnly, 100)
		a.presenter.ShowBanner(presentation.BannerTextOnly, TextOnlyBanner)
		a.publish()
		return
	}
	a.schedule(a.cfg.StartDelay)
	a.publish()
}

func (a *Arbiter) handle(e event) {
	switch e.kind {
	case evDriver:
		a.handleDriver(e.drv)
	case evSpeak:
		a.speak(e.text)
	case evResume:
		if !a.degraded && (a.state == Idle || a.state == Restarting) {
			slog.Debug("resuming listening")
			a.stopTimer()
			a.attemptStart()
		}
	case evForceStart:
		a.forceStart()
	case evTimer:
		if e.gen != a.timerGen {
			return
		}
		a.timer = nil
		a.attemptStart()
	}
	a.publish()
}

func (a *Arbiter) handleDriver(e message.Event) {
	switch e.Kind {
	case message.InputStarted:
		a.session = e.ID
		if a.state == Speaking {
			slog.Debug("listening started while speaking, aborting", "session", e.ID)
			a.input.Abort()
			return
		}
		a.state = Listening
		a.presenter.SetStatus(presentation.StatusListening, 100)

	case message.InputTranscript:
		if e.ID != a.session || a.state == Speaking {
			return
		}
		if !e.Transcript.Final {
			a.presenter.SetPartial(e.Transcript.Text)
			return
		}
		slog.Info("heard", "session", e.ID, "text", e.Transcript.Text)
		a.transcripts.push(e.Transcript.Text)

	case message.InputError:
		if e.ID != a.session {
			return
		}
		slog.Debug("listening error", "session", e.ID, "code", e.Code, "error", e.Err)
		a.terminated()

	case message.InputEnded:
		if e.ID != a.session {
			return
		}
		slog.Debug("listening ended", "session", e.ID)
		a.terminated()

	case message.OutputStarted:
		if e.ID != a.utterance {
			return
		}
		a.presenter.SetStatus(presentation.StatusSpeaking, 100)

	case message.OutputEnded, message.OutputError:
		if e.ID != a.utterance || a.state != Speaking {
			return
		}
		if e.Kind == message.OutputEnded {
			a.presenter.SetStatus(presentation.StatusReady, 0)
		}
		a.utterance = 0
		a.state = Idle
		a.attemptStart()
	}
}

// terminated handles the end of a listening session. While speaking the
// end of speech resumes listening, so nothing is scheduled.
func (a *Arbiter) terminated() {
	if a.degraded || a.state == Speaking {
		return
	}
	a.state = Restarting
	a.schedule(a.cfg.RestartDelay)
}

func (a *Arbiter) speak(text string) {
	a.presenter.AddMessage(presentation.SenderMira, text)

	if a.degraded || a.output == nil || !a.output.Available() {
		a.presenter.SetStatus(presentation.StatusReady, 0)
		return
	}

	a.stopTimer()
	if a.state == Listening || a.state == Restarting {
		a.input.Abort()
	}
	a.state = Speaking
	a.utterance = a.output.Speak(text)
	if a.utterance == 0 {
		// The driver refused the utterance; nothing will end it.
		a.state = Idle
		a.attemptStart()
	}
}

func (a *Arbiter) forceStart() {
	if a.degraded {
		a.presenter.ShowBanner(presentation.BannerHelp, MicHelpBanner)
		return
	}
	if a.state == Speaking {
		return
	}
	slog.Info("forcing microphone restart")
	a.input.Abort()
	a.state = Restarting
	a.schedule(a.cfg.RestartDelay)
}

// attemptStart tries to (re)start listening.
func (a *Arbiter) attemptStart() {
	if a.degraded {
		return
	}
	if a.state == Speaking {
		a.schedule(a.cfg.RestartDelay)
		return
	}
	if a.state == Listening {
		return
	}

	a.restarts++
	err := a.input.Start()
	switch {
	case err == nil, errors.Is(err, stt.ErrAlreadyStarted):
		a.state = Listening
	default:
		slog.Warn("starting listening failed, retrying", "error", err, "retry_in", a.cfg.RetryDelay)
		a.state = Restarting
		a.schedule(a.cfg.RetryDelay)
	}
}

// schedule replaces the pending timer. Fires from replaced timers carry an
// old generation and are ignored.
func (a *Arbiter) schedule(d time.Duration) {
	a.stopTimer()
	a.timerGen++
	gen := a.timerGen
	a.timer = time.AfterFunc(d, func() {
		a.post(event{kind: evTimer, gen: gen})
	})
}

func (a *Arbiter) stopTimer() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.timerGen++
}

func (a *Arbiter) publish() {
	a.mu.Lock()
	prev := a.snap
	next := Snapshot{
		State:     a.state,
		StateName: a.state.String(),
		Degraded:  a.degraded,
		Session:   a.session,
		Utterance: a.utterance,
		Restarts:  a.restarts,
		Changed:   prev.Changed,
	}
	if next.State != prev.State || next.Degraded != prev.Degraded {
		next.Changed = time.Now()
	}
	a.snap = next
	observers := append(([]func(Snapshot))(nil), a.observers...)
	a.mu.Unlock()

	if next.State == prev.State && next.Degraded == prev.Degraded {
		return
	}
	for _, fn := range observers {
		fn(next)
	}
}

// transcriptQueue hands final transcripts from the loop to the delivery
// goroutine in order. It is unbounded so the loop never blocks or drops.
type transcriptQueue struct {
	mu    sync.Mutex
	items []string
	ready chan struct{}
}

func newTranscriptQueue() *transcriptQueue {
	return &transcriptQueue{ready: make(chan struct{}, 1)}
}

func (q *transcriptQueue) push(text string) {
	q.mu.Lock()
	q.items = append(q.items, text)
	q.mu.Unlock()
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *transcriptQueue) drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

func (q *transcriptQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
