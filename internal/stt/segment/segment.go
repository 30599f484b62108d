// Package segment turns a batch Transcriber into a continuous stt.Recognizer.
package segment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/nadzzz/mira/internal/audio"
	"github.com/nadzzz/mira/internal/locale"
	"github.com/nadzzz/mira/internal/stt"
)

var _ stt.Recognizer = (*Recognizer)(nil)

// Config tunes a Recognizer.
type Config struct {
	SampleRate   int
	VAD          audio.VADOptions
	MaxUtterance time.Duration
	// PrerollFrames are kept before speech onset so the first syllable is not clipped.
	PrerollFrames int
}

// Recognizer turns a batch Transcriber into a continuous recognizer. It cuts
// the microphone stream into utterances with an RMS voice activity detector,
// encodes each one as WAV and transcribes them in order.
type Recognizer struct {
	source      audio.Source
	transcriber stt.Transcriber
	cfg         Config
	fs          afero.Fs
}

// New wraps t with VAD segmentation over source.
func New(source audio.Source, t stt.Transcriber, cfg Config) *Recognizer {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.MaxUtterance <= 0 {
		cfg.MaxUtterance = 15 * time.Second
	}
	if cfg.PrerollFrames <= 0 {
		cfg.PrerollFrames = 10
	}
	return &Recognizer{
		source:      source,
		transcriber: t,
		cfg:         cfg,
		fs:          afero.NewMemMapFs(),
	}
}

// Name returns the wrapped transcriber's name.
func (s *Recognizer) Name() string { return s.transcriber.Name() }

// Recognize streams the microphone until ctx is done. With Continuous unset
// the session ends after the first transcribed utterance.
func (s *Recognizer) Recognize(ctx context.Context, opts stt.Options, sink func(stt.Result)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lang := locale.Base(opts.Language)
	maxSamples := int(s.cfg.MaxUtterance.Seconds() * float64(s.cfg.SampleRate))

	segments := make(chan []int16, 4)
	workerErr := make(chan error, 1)
	go func() {
		workerErr <- s.transcribeLoop(ctx, segments, lang, opts, sink, cancel)
	}()

	vad := audio.NewVAD(s.cfg.VAD)
	var (
		preroll [][]int16
		current []int16
		active  bool
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		seg := current
		current = nil
		select {
		case segments <- seg:
		case <-ctx.Done():
		}
	}

	streamErr := s.source.Stream(ctx, func(frame []int16) error {
		speech := vad.IsSpeech(frame)
		switch {
		case speech && !active:
			active = true
			for _, p := range preroll {
				current = append(current, p...)
			}
			preroll = preroll[:0]
			current = append(current, frame...)
			if opts.Interim {
				sink(stt.Result{Text: "...", Final: false})
			}
		case speech:
			current = append(current, frame...)
			if len(current) >= maxSamples {
				flush()
				vad.Reset()
				active = false
			}
		case active:
			active = false
			flush()
		default:
			buf := make([]int16, len(frame))
			copy(buf, frame)
			preroll = append(preroll, buf)
			if len(preroll) > s.cfg.PrerollFrames {
				preroll = preroll[1:]
			}
		}
		return ctx.Err()
	})
	if active {
		flush()
	}
	close(segments)

	werr := <-workerErr
	if streamErr != nil && ctx.Err() == nil {
		return fmt.Errorf("reading microphone: %w", streamErr)
	}
	return werr
}

func (s *Recognizer) transcribeLoop(ctx context.Context, segments <-chan []int16, lang string, opts stt.Options, sink func(stt.Result), stop context.CancelFunc) error {
	for seg := range segments {
		wav, err := audio.EncodeWAV(s.fs, seg, s.cfg.SampleRate)
		if err != nil {
			stop()
			return err
		}
		text, err := s.transcriber.Transcribe(ctx, wav, lang)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			stop()
			return fmt.Errorf("transcribing utterance: %w", err)
		}
		text = strings.TrimSpace(text)
		slog.Debug("utterance transcribed", "backend", s.transcriber.Name(), "samples", len(seg), "text_length", len(text))
		if text == "" {
			continue
		}
		sink(stt.Result{Text: text, Final: true})
		if !opts.Continuous {
			stop()
		}
	}
	return nil
}

// Close is a no-op; the audio source is owned by the caller.
func (s *Recognizer) Close() error { return nil }
