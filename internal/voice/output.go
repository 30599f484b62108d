package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nadzzz/mira/internal/audio"
	"github.com/nadzzz/mira/internal/message"
	"github.com/nadzzz/mira/internal/tts"
)

// ErrNoVoices is returned by ResolveVoices while the engine lists nothing.
var ErrNoVoices = errors.New("voice: engine has no voices yet")

// Output synthesizes and plays one utterance at a time.
type Output struct {
	synth  tts.Synthesizer
	player audio.Player
	lang   string

	mu      sync.Mutex
	sink    Sink
	voices  []tts.Voice
	voice   *tts.Voice
	next    uint64
	current uint64
	cancel  context.CancelFunc
}

// NewOutput wraps synth and player for speech in lang. A nil synth means
// no synthesis capability.
func NewOutput(synth tts.Synthesizer, player audio.Player, lang string) *Output {
	return &Output{synth: synth, player: player, lang: lang}
}

// Available reports whether a synthesizer is configured.
func (o *Output) Available() bool { return o.synth != nil }

// Bind sets the event sink. It must be called before Speak.
func (o *Output) Bind(s Sink) {
	o.mu.Lock()
	o.sink = s
	o.mu.Unlock()
}

// Voice returns the resolved voice, or nil.
func (o *Output) Voice() *tts.Voice {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.voice == nil {
		return nil
	}
	v := *o.voice
	return &v
}

// Utterance builds the request for text with the current voice and prosody.
func (o *Output) Utterance(text string) tts.Utterance {
	v := o.Voice()
	rate, pitch := tts.Prosody(v)
	return tts.Utterance{Text: text, Language: o.lang, Voice: v, Rate: rate, Pitch: pitch}
}

// Speak cancels any utterance in flight and starts a new one. It returns the
// utterance ID carried by the resulting events, or 0 for empty text or when
// synthesis is unavailable.
func (o *Output) Speak(text string) uint64 {
	if text == "" || o.synth == nil {
		return 0
	}
	u := o.Utterance(text)

	o.mu.Lock()
	if o.cancel != nil {
		o.cancel()
	}
	o.next++
	u.ID = o.next
	ctx, cancel := context.WithCancel(context.Background())
	o.current = u.ID
	o.cancel = cancel
	sink := o.sink
	o.mu.Unlock()

	if o.player != nil {
		o.player.Stop()
	}
	go o.run(ctx, u, sink)
	return u.ID
}

func (o *Output) run(ctx context.Context, u tts.Utterance, sink Sink) {
	emit := func(e message.Event) {
		e.ID = u.ID
		if sink != nil {
			sink(e)
		}
	}
	defer func() {
		o.mu.Lock()
		if o.current == u.ID {
			o.cancel = nil
		}
		o.mu.Unlock()
	}()

	opts := tts.SynthesizeOpts{Language: u.Language, Rate: u.Rate, Pitch: u.Pitch}
	if u.Voice != nil {
		opts.Voice = u.Voice.Name
	}
	res, err := o.synth.Synthesize(ctx, u.Text, opts)
	if err != nil {
		if ctx.Err() != nil {
			emit(message.Event{Kind: message.OutputEnded})
			return
		}
		slog.Warn("speech synthesis failed", "utterance", u.ID, "backend", o.synth.Name(), "error", err)
		emit(message.Event{Kind: message.OutputError, Err: err})
		return
	}

	emit(message.Event{Kind: message.OutputStarted})
	if o.player != nil {
		if err := o.player.Play(ctx, res.Audio, res.ContentType); err != nil && ctx.Err() == nil && !errors.Is(err, context.Canceled) {
			slog.Warn("speech playback failed", "utterance", u.ID, "error", err)
			emit(message.Event{Kind: message.OutputError, Err: err})
			return
		}
	}
	emit(message.Event{Kind: message.OutputEnded})
}

// Cancel stops the current utterance. It is safe to call at any time.
func (o *Output) Cancel() {
	o.mu.Lock()
	cancel := o.cancel
	o.cancel = nil
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if o.player != nil {
		o.player.Stop()
	}
}

// ResolveVoices fetches the engine's voice list and selects a voice for the
// target language. It reports whether the list changed.
func (o *Output) ResolveVoices(ctx context.Context) (bool, error) {
	if o.synth == nil {
		return false, tts.ErrUnavailable
	}
	voices, err := o.synth.Voices(ctx)
	if err != nil {
		return false, fmt.Errorf("listing voices: %w", err)
	}
	if len(voices) == 0 {
		return false, ErrNoVoices
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if tts.SameVoices(voices, o.voices) {
		return false, nil
	}
	o.voices = voices
	o.voice = tts.SelectVoice(voices, o.lang)
	if o.voice != nil {
		slog.Info("voice resolved", "name", o.voice.Name, "language", o.voice.Language, "provider", o.voice.Provider)
	} else {
		slog.Warn("no voice for target language", "language", o.lang, "available", len(voices))
	}
	return true, nil
}

// WatchVoices resolves the voice until ctx is done: every retry interval
// while the list is empty or failing, then every refresh interval.
func (o *Output) WatchVoices(ctx context.Context, retry, refresh time.Duration) {
	if o.synth == nil {
		return
	}
	for {
		wait := refresh
		if _, err := o.ResolveVoices(ctx); err != nil {
			if !errors.Is(err, ErrNoVoices) {
				slog.Debug("voice list unavailable", "error", err)
			}
			wait = retry
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// Close cancels playback and releases the synthesizer.
func (o *Output) Close() error {
	o.Cancel()
	if o.synth != nil {
		return o.synth.Close()
	}
	return nil
}
