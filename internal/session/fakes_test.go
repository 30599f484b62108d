package session

import (
	"errors"
	"sync"
	"time"

	"github.com/nadzzz/mira/internal/presentation"
	"github.com/nadzzz/mira/internal/stt"
)

var errBoom = errors.New("boom")

// fakeInput models a recognizer with one session at a time.
type fakeInput struct {
	mu        sync.Mutex
	available bool
	active    bool
	starts    int
	aborts    int
	startErrs []error // consumed per Start call
	onStart   func()
	onAbort   func()
}

func (f *fakeInput) Available() bool { return f.available }

func (f *fakeInput) Start() error {
	f.mu.Lock()
	if len(f.startErrs) > 0 {
		err := f.startErrs[0]
		f.startErrs = f.startErrs[1:]
		if err != nil {
			f.mu.Unlock()
			return err
		}
	}
	if f.active {
		f.mu.Unlock()
		return stt.ErrAlreadyStarted
	}
	f.active = true
	f.starts++
	cb := f.onStart
	f.mu.Unlock()
	if cb != nil {
		cb()
	}
	return nil
}

func (f *fakeInput) Abort() {
	f.mu.Lock()
	f.aborts++
	wasActive := f.active
	f.active = false
	cb := f.onAbort
	f.mu.Unlock()
	if wasActive && cb != nil {
		cb()
	}
}

func (f *fakeInput) isActive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func (f *fakeInput) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

type fakeOutput struct {
	mu        sync.Mutex
	available bool
	speaking  bool
	next      uint64
	spoken    []string
	cancels   int
	onSpeak   func(id uint64)
}

func (f *fakeOutput) Available() bool { return f.available }

func (f *fakeOutput) Speak(text string) uint64 {
	f.mu.Lock()
	f.next++
	id := f.next
	f.speaking = true
	f.spoken = append(f.spoken, text)
	cb := f.onSpeak
	f.mu.Unlock()
	if cb != nil {
		cb(id)
	}
	return id
}

func (f *fakeOutput) Cancel() {
	f.mu.Lock()
	f.cancels++
	f.speaking = false
	f.mu.Unlock()
}

func (f *fakeOutput) finish() {
	f.mu.Lock()
	f.speaking = false
	f.mu.Unlock()
}

func (f *fakeOutput) isSpeaking() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.speaking
}

type status struct {
	text    string
	percent int
}

type fakePresenter struct {
	mu       sync.Mutex
	messages []string
	statuses []status
	partials []string
	banners  []presentation.BannerKind
}

func (p *fakePresenter) AddMessage(sender presentation.Sender, text string) {
	p.mu.Lock()
	p.messages = append(p.messages, string(sender)+":"+text)
	p.mu.Unlock()
}

func (p *fakePresenter) SetStatus(text string, percent int) {
	p.mu.Lock()
	p.statuses = append(p.statuses, status{text, percent})
	p.mu.Unlock()
}

func (p *fakePresenter) SetPartial(text string) {
	p.mu.Lock()
	p.partials = append(p.partials, text)
	p.mu.Unlock()
}

func (p *fakePresenter) ShowBanner(kind presentation.BannerKind, _ string) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.banners = append(p.banners, kind)
	return uint64(len(p.banners))
}

func (p *fakePresenter) lastStatus() status {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.statuses) == 0 {
		return status{}
	}
	return p.statuses[len(p.statuses)-1]
}

// longDelays keeps real timers from firing during direct-handle tests;
// tests fire them by hand.
var longDelays = Config{StartDelay: time.Hour, RestartDelay: time.Hour, RetryDelay: 2 * time.Hour}
