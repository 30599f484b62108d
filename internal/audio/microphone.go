package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Microphone reads the default input device through portaudio.
type Microphone struct {
	sampleRate      int
	framesPerBuffer int

	mu          sync.Mutex
	initialized bool
}

// NewMicrophone returns a Microphone capturing mono int16 frames.
func NewMicrophone(sampleRate, framesPerBuffer int) *Microphone {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	if framesPerBuffer <= 0 {
		framesPerBuffer = 320
	}
	return &Microphone{sampleRate: sampleRate, framesPerBuffer: framesPerBuffer}
}

// SampleRate returns the capture rate in Hz.
func (m *Microphone) SampleRate() int { return m.sampleRate }

func (m *Microphone) init() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}
	m.initialized = true
	return nil
}

// Stream opens the default input stream and hands every frame to fn until
// ctx is done. A non-nil error from fn stops the stream and is returned.
func (m *Microphone) Stream(ctx context.Context, fn func(frame []int16) error) error {
	if err := m.init(); err != nil {
		return err
	}

	in := make([]int16, m.framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.sampleRate), len(in), in)
	if err != nil {
		return fmt.Errorf("opening input stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("starting input stream: %w", err)
	}
	defer stream.Stop()

	frame := make([]int16, len(in))
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if err := stream.Read(); err != nil {
			if errors.Is(err, portaudio.InputOverflowed) {
				slog.Debug("microphone input overflowed")
				continue
			}
			return fmt.Errorf("reading input stream: %w", err)
		}
		copy(frame, in)
		if err := fn(frame); err != nil {
			return err
		}
	}
}

// Close releases portaudio.
func (m *Microphone) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return nil
	}
	m.initialized = false
	return portaudio.Terminate()
}
