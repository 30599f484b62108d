package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// Speaker plays WAV or MP3 audio through the beep speaker, resampled to a
// fixed device rate.
type Speaker struct {
	rate beep.SampleRate

	initOnce sync.Once
	initErr  error

	mu   sync.Mutex
	stop chan struct{}
}

// NewSpeaker returns a Speaker that opens the device at rate Hz on first use.
func NewSpeaker(rate int) *Speaker {
	if rate <= 0 {
		rate = 44100
	}
	return &Speaker{rate: beep.SampleRate(rate)}
}

func (s *Speaker) init() error {
	s.initOnce.Do(func() {
		s.initErr = speaker.Init(s.rate, s.rate.N(time.Second/10))
	})
	return s.initErr
}

// Play decodes data and blocks until it has been played out.
func (s *Speaker) Play(ctx context.Context, data []byte, contentType string) error {
	if err := s.init(); err != nil {
		return fmt.Errorf("initializing speaker: %w", err)
	}

	streamer, format, err := decode(data, contentType)
	if err != nil {
		return err
	}
	defer streamer.Close()

	var src beep.Streamer = streamer
	if format.SampleRate != s.rate {
		src = beep.Resample(4, format.SampleRate, s.rate, streamer)
	}

	stop := make(chan struct{})
	s.mu.Lock()
	if s.stop != nil {
		speaker.Clear()
		close(s.stop)
	}
	s.stop = stop
	s.mu.Unlock()

	done := make(chan struct{})
	speaker.Play(beep.Seq(src, beep.Callback(func() { close(done) })))

	defer func() {
		s.mu.Lock()
		if s.stop == stop {
			s.stop = nil
		}
		s.mu.Unlock()
	}()

	select {
	case <-done:
		return nil
	case <-stop:
		return context.Canceled
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}

// Stop clears the speaker and releases a blocked Play.
func (s *Speaker) Stop() {
	s.mu.Lock()
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()
	if stop == nil {
		return
	}
	speaker.Clear()
	close(stop)
}

func decode(data []byte, contentType string) (beep.StreamSeekCloser, beep.Format, error) {
	r := io.NopCloser(bytes.NewReader(data))
	switch {
	case strings.Contains(contentType, "mpeg"), strings.Contains(contentType, "mp3"):
		st, f, err := mp3.Decode(r)
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("decoding mp3: %w", err)
		}
		return st, f, nil
	default:
		st, f, err := wav.Decode(r)
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("decoding wav: %w", err)
		}
		return st, f, nil
	}
}
