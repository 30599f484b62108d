// Package stt defines the interface for continuous speech recognition.
//
// A Recognizer runs one recognition session at a time: Recognize blocks for
// the lifetime of the session and reports every interim and final result to
// the sink. The session ends when the engine closes the stream (nil error),
// when ctx is cancelled (nil error) or on a transport failure.
package stt

import (
	"context"
	"errors"
)

var (
	// ErrAlreadyStarted is returned when a session is started while another
	// one is still active. Callers treat it as success.
	ErrAlreadyStarted = errors.New("stt: recognition already started")

	// ErrUnavailable reports that no recognition capability is configured.
	ErrUnavailable = errors.New("stt: recognition unavailable")
)

// Options controls a recognition session.
type Options struct {
	// Language is a BCP 47 tag (e.g., "bn-BD").
	Language string

	// Interim requests partial results while the speaker is still talking.
	Interim bool

	// MaxAlternatives caps the hypotheses per result; only the first is used.
	MaxAlternatives int

	// Continuous keeps the session open across utterances.
	Continuous bool
}

// Result is one recognition hypothesis.
type Result struct {
	Text  string
	Final bool
}

// Recognizer converts microphone audio to text.
type Recognizer interface {
	// Name returns the backend identifier (e.g., "google", "whisper").
	Name() string

	// Recognize runs a session until the engine ends it or ctx is done.
	Recognize(ctx context.Context, opts Options, sink func(Result)) error

	// Close releases any resources held by the recognizer.
	Close() error
}

// Transcriber turns one complete utterance (a WAV file) into text.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, wav []byte, lang string) (string, error)
}
