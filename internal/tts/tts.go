// Package tts defines the interface for text-to-speech synthesis.
//
// Mira speaks every response through a Synthesizer. The voice is resolved
// once from the engine's voice list by a priority search for a Bengali voice
// and re-resolved whenever that list changes.
package tts

import (
	"context"
	"errors"
)

// ErrUnavailable reports that no synthesis capability is configured.
var ErrUnavailable = errors.New("tts: synthesis unavailable")

// Voice describes one voice offered by an engine.
type Voice struct {
	Name     string `json:"name"`
	Language string `json:"language"` // BCP 47 tag, e.g. "bn-IN"
	Provider string `json:"provider"` // engine identifier, e.g. "google", "piper"
	Gender   string `json:"gender,omitempty"`
}

// Utterance is one request to speak. It exists for a single Speak call.
type Utterance struct {
	ID       uint64
	Text     string
	Language string
	Voice    *Voice
	Rate     float64
	Pitch    float64
}

// SynthesizeOpts controls synthesis behavior.
type SynthesizeOpts struct {
	// Language is the BCP 47 tag of the text (e.g., "bn-BD").
	Language string

	// Voice overrides automatic language-based voice selection.
	Voice string

	// Rate is the speaking rate multiplier; 1.0 is normal. Zero means default.
	Rate float64

	// Pitch is the pitch multiplier; 1.0 is normal. Zero means default.
	Pitch float64
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	// Name returns the backend identifier.
	Name() string

	// Synthesize generates audio from the given text.
	Synthesize(ctx context.Context, text string, opts SynthesizeOpts) (*SynthesizeResult, error)

	// Voices lists the voices the engine currently offers. An empty list
	// means the engine has not loaded its voices yet.
	Voices(ctx context.Context) ([]Voice, error)

	// Close releases any resources held by the synthesizer.
	Close() error
}

// SynthesizeResult holds the output of TTS synthesis.
type SynthesizeResult struct {
	// Audio is the synthesized audio as a WAV or MP3 file.
	Audio []byte

	// ContentType is the MIME type of the audio (e.g., "audio/wav").
	ContentType string

	// SampleRate is the audio sample rate in Hz (e.g., 22050).
	SampleRate int

	// Channels is the number of audio channels (typically 1).
	Channels int
}
