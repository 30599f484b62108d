// Package interpreter turns a command transcript into spoken responses and
// side effects using an ordered table of keyword rules.
//
// Matching is plain substring search on the lower-cased command. The first
// matching rule wins, except fall-through rules, which act and let
// evaluation continue. The default rule fires only when nothing matched.
package interpreter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/nadzzz/mira/internal/launcher"
	"github.com/nadzzz/mira/internal/message"
	"github.com/nadzzz/mira/internal/notes"
	"github.com/nadzzz/mira/internal/presentation"
)

// Speaker queues text for speech output.
type Speaker interface {
	Speak(text string)
}

// Notebook stores notes.
type Notebook interface {
	Append(ctx context.Context, text string) (notes.Note, error)
}

// Display receives the interpreter's visible side effects.
type Display interface {
	SetStatus(text string, percent int)
	SetLevel(name string, value int)
	PublishURL(url string)
}

// Config holds the interpreter timings and locale.
type Config struct {
	Locale         string        // tag used for spoken numbers and times
	MessagingDelay time.Duration // between the messaging acknowledgment and the open
	ResetDelay     time.Duration // before the status returns to ready
}

// Responses.
const (
	ApologyText       = "বস, কাজটিতে কিছু সমস্যা হয়েছে।"
	DefaultText       = "দুঃখিত বস, আমি এই কাজটি এখনো রপ্ত করতে পারিনি।"
	NoteSavedText     = "বস, আমি নোটটি লিখে রেখেছি।"
	NoteUnclearText   = "বস, আমি কী নোট লিখব তা ঠিক বুঝতে পারিনি।"
	MessagingText     = "হোয়াটসঅ্যাপ খুলছি বস।"
	ImageText         = "ঠিক আছে বস, আমি আপনার জন্য একটি ছবি তৈরি করার লিংকে নিয়ে যাচ্ছি।"
	SmallTalkText     = "আমি চমৎকার আছি বস! আপনার কী সেবা করতে পারি?"
	defaultVolume     = 70
	defaultBrightness = 50
)

// Interpreter evaluates commands. It is safe for concurrent use.
type Interpreter struct {
	speaker  Speaker
	launcher launcher.Launcher
	notebook Notebook
	display  Display
	cfg      Config
	lower    cases.Caser
	now      func() time.Time
	rules    []rule

	mu    sync.Mutex
	reset *time.Timer
}

// New creates an Interpreter.
func New(speaker Speaker, l launcher.Launcher, nb Notebook, d Display, cfg Config) *Interpreter {
	if cfg.Locale == "" {
		cfg.Locale = "bn-BD"
	}
	if cfg.MessagingDelay <= 0 {
		cfg.MessagingDelay = time.Second
	}
	if cfg.ResetDelay <= 0 {
		cfg.ResetDelay = 2 * time.Second
	}
	in := &Interpreter{
		speaker:  speaker,
		launcher: l,
		notebook: nb,
		display:  d,
		cfg:      cfg,
		lower:    cases.Lower(language.Bengali),
		now:      time.Now,
	}
	in.rules = in.table()
	return in
}

// evaluation is the state of one Handle call.
type evaluation struct {
	ctx     context.Context
	raw     string // trimmed, original case
	command string // trimmed, lower-cased
	result  *message.Result
	logger  *slog.Logger
}

func (e *evaluation) has(words ...string) bool {
	for _, w := range words {
		if strings.Contains(e.command, norm.NFC.String(w)) {
			return true
		}
	}
	return false
}

// Handle evaluates msg and returns what was done. It returns nil for an
// empty command.
func (in *Interpreter) Handle(ctx context.Context, msg *message.Message) *message.Result {
	// Bengali has two encodings of some letters; NFC gives one.
	raw := norm.NFC.String(strings.TrimSpace(msg.Text))
	command := strings.TrimSpace(in.lower.String(raw))
	if command == "" {
		return nil
	}

	e := &evaluation{
		ctx:     ctx,
		raw:     raw,
		command: command,
		result:  &message.Result{MessageID: msg.ID, Transcript: command, Intents: []string{}, Responses: []string{}},
		logger:  slog.With("message_id", msg.ID, "source", msg.Source),
	}
	e.logger.Info("handling command", "command", command)

	in.display.SetStatus(presentation.StatusThinking, 50)
	defer in.scheduleReset()

	in.evaluate(e)
	return e.result
}

func (in *Interpreter) evaluate(e *evaluation) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("command panicked", "panic", r)
			in.fail(e, fmt.Errorf("panic: %v", r))
		}
	}()

	matched := false
	fired := map[string]bool{}
	for _, r := range in.rules {
		if r.chain != "" && fired[r.chain] {
			continue
		}
		if !e.has(r.triggers...) {
			continue
		}
		matched = true
		if r.chain != "" {
			fired[r.chain] = true
		}
		e.result.Intents = append(e.result.Intents, r.name)
		e.logger.Debug("rule matched", "rule", r.name)
		if err := r.act(e); err != nil {
			e.logger.Error("command failed", "rule", r.name, "error", err)
			in.fail(e, err)
			return
		}
		if !r.fallThrough {
			return
		}
	}
	if !matched {
		e.result.Intents = append(e.result.Intents, "default")
		in.say(e, DefaultText)
	}
}

func (in *Interpreter) fail(e *evaluation, err error) {
	e.result.Error = err.Error()
	in.say(e, ApologyText)
}

func (in *Interpreter) say(e *evaluation, text string) {
	e.result.Responses = append(e.result.Responses, text)
	in.speaker.Speak(text)
}

// open hands u to the launcher after delay. The launch outlives the
// request that caused it.
func (in *Interpreter) open(e *evaluation, u string, delay time.Duration) {
	e.result.URLs = append(e.result.URLs, u)
	ctx := context.WithoutCancel(e.ctx)
	logger := e.logger
	launch := func() {
		in.display.PublishURL(u)
		if err := in.launcher.Open(ctx, u); err != nil {
			logger.Warn("opening url failed", "url", u, "error", err)
		}
	}
	if delay <= 0 {
		go launch()
		return
	}
	time.AfterFunc(delay, launch)
}

// scheduleReset returns the status to ready after the reset delay. A newer
// command replaces a pending reset.
func (in *Interpreter) scheduleReset() {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.reset != nil {
		in.reset.Stop()
	}
	in.reset = time.AfterFunc(in.cfg.ResetDelay, func() {
		in.display.SetStatus(presentation.StatusReady, 0)
	})
}

// Close stops a pending status reset.
func (in *Interpreter) Close() {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.reset != nil {
		in.reset.Stop()
		in.reset = nil
	}
}
