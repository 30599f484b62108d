package message

import "fmt"

// EventKind enumerates speech driver events.
type EventKind int

const (
	InputStarted EventKind = iota + 1
	InputTranscript
	InputEnded
	InputError
	OutputStarted
	OutputEnded
	OutputError
)

var eventKindNames = map[EventKind]string{
	InputStarted:    "input_started",
	InputTranscript: "input_transcript",
	InputEnded:      "input_ended",
	InputError:      "input_error",
	OutputStarted:   "output_started",
	OutputEnded:     "output_ended",
	OutputError:     "output_error",
}

func (k EventKind) String() string {
	if s, ok := eventKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Event is a notification from the listening or speaking driver.
type Event struct {
	Kind EventKind

	// ID is the input session ID for input events and the utterance ID for
	// output events.
	ID uint64

	Transcript Transcript // InputTranscript only
	Code       string     // InputError only, e.g. "network", "aborted"
	Err        error      // InputError and OutputError
}
