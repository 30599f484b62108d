package voice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nadzzz/mira/internal/message"
	"github.com/nadzzz/mira/internal/stt"
	"github.com/nadzzz/mira/internal/tts"
)

type recorder struct {
	mu     sync.Mutex
	events []message.Event
}

func (r *recorder) sink(e message.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) kinds() []message.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]message.EventKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

func (r *recorder) waitFor(t *testing.T, k message.EventKind, n int) []message.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		var hits []message.Event
		for _, e := range r.events {
			if e.Kind == k {
				hits = append(hits, e)
			}
		}
		r.mu.Unlock()
		if len(hits) >= n {
			return hits
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d %s events; got %v", n, k, r.kinds())
	return nil
}

// blockingRecognizer emits scripted results then waits for ctx or release.
type blockingRecognizer struct {
	results []stt.Result
	release chan error
}

func (b *blockingRecognizer) Name() string { return "fake" }

func (b *blockingRecognizer) Recognize(ctx context.Context, _ stt.Options, sink func(stt.Result)) error {
	for _, r := range b.results {
		sink(r)
	}
	select {
	case <-ctx.Done():
		return nil
	case err := <-b.release:
		return err
	}
}

func (b *blockingRecognizer) Close() error { return nil }

type fakeSynth struct {
	mu      sync.Mutex
	voices  []tts.Voice
	err     error
	gate    chan struct{}
	lastOpt tts.SynthesizeOpts
}

func (f *fakeSynth) Name() string { return "fake" }

func (f *fakeSynth) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOpts) (*tts.SynthesizeResult, error) {
	f.mu.Lock()
	f.lastOpt = opts
	gate, err := f.gate, f.err
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &tts.SynthesizeResult{Audio: []byte(text), ContentType: "audio/wav"}, nil
}

func (f *fakeSynth) Voices(context.Context) ([]tts.Voice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.voices, nil
}

func (f *fakeSynth) Close() error { return nil }

type fakePlayer struct {
	mu     sync.Mutex
	played []string
	stops  int
}

func (p *fakePlayer) Play(ctx context.Context, data []byte, _ string) error {
	p.mu.Lock()
	p.played = append(p.played, string(data))
	p.mu.Unlock()
	return ctx.Err()
}

func (p *fakePlayer) Stop() {
	p.mu.Lock()
	p.stops++
	p.mu.Unlock()
}

var errBoom = errors.New("boom")
