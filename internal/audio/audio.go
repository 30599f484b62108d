// Package audio provides the microphone, voice activity detection, WAV
// encoding and speaker playback shared by the speech engines.
package audio

import "context"

// Source produces mono 16-bit PCM frames until ctx is cancelled or the
// device fails. The frame slice passed to fn is only valid for the call.
type Source interface {
	Stream(ctx context.Context, fn func(frame []int16) error) error
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func(ctx context.Context, fn func(frame []int16) error) error

// Stream calls f(ctx, fn).
func (f SourceFunc) Stream(ctx context.Context, fn func(frame []int16) error) error {
	return f(ctx, fn)
}

// Player plays encoded audio on the output device.
type Player interface {
	// Play blocks until playback finishes, ctx is cancelled, or Stop is called.
	Play(ctx context.Context, data []byte, contentType string) error

	// Stop aborts the current playback, if any.
	Stop()
}
