// Package voice adapts the speech engines to the session event model.
//
// Input and Output never block their caller: Start, Abort, Speak and Cancel
// return immediately and engine work runs in goroutines that report back
// through a Sink. Every event carries the session or utterance ID it belongs
// to so the consumer can discard events from superseded work.
package voice

import "github.com/nadzzz/mira/internal/message"

// Sink receives driver events. It must not block for long.
type Sink func(message.Event)
