package voice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nadzzz/mira/internal/message"
	"github.com/nadzzz/mira/internal/tts"
)

func TestOutputSpeak(t *testing.T) {
	synth := &fakeSynth{}
	player := &fakePlayer{}
	out := NewOutput(synth, player, "bn-BD")
	r := &recorder{}
	out.Bind(r.sink)

	if id := out.Speak(""); id != 0 {
		t.Fatalf("Speak(\"\") = %d, want 0", id)
	}
	id := out.Speak("হ্যালো")
	if id == 0 {
		t.Fatal("Speak returned 0")
	}
	ended := r.waitFor(t, message.OutputEnded, 1)
	if ended[0].ID != id {
		t.Fatalf("ended id = %d, want %d", ended[0].ID, id)
	}
	if k := r.kinds(); k[0] != message.OutputStarted {
		t.Fatalf("first event = %v, want started", k[0])
	}
	if synth.lastOpt.Language != "bn-BD" || synth.lastOpt.Rate != 1.1 || synth.lastOpt.Pitch != 1.5 {
		t.Fatalf("opts without voice = %+v", synth.lastOpt)
	}
}

func TestOutputUnavailable(t *testing.T) {
	out := NewOutput(nil, nil, "bn-BD")
	if out.Available() || out.Speak("x") != 0 {
		t.Fatal("nil synthesizer should be unavailable")
	}
	out.Cancel()
	if _, err := out.ResolveVoices(context.Background()); !errors.Is(err, tts.ErrUnavailable) {
		t.Fatalf("ResolveVoices = %v", err)
	}
}

func TestOutputSupersede(t *testing.T) {
	synth := &fakeSynth{gate: make(chan struct{})}
	out := NewOutput(synth, &fakePlayer{}, "bn-BD")
	r := &recorder{}
	out.Bind(r.sink)

	first := out.Speak("one")
	second := out.Speak("two")
	if second <= first {
		t.Fatalf("ids not increasing: %d then %d", first, second)
	}
	close(synth.gate)

	ended := r.waitFor(t, message.OutputEnded, 2)
	ids := map[uint64]bool{}
	for _, e := range ended {
		ids[e.ID] = true
	}
	if !ids[first] || !ids[second] {
		t.Fatalf("ended ids = %v", ids)
	}
}

func TestOutputSynthesisError(t *testing.T) {
	out := NewOutput(&fakeSynth{err: errBoom}, &fakePlayer{}, "bn-BD")
	r := &recorder{}
	out.Bind(r.sink)
	id := out.Speak("x")
	errs := r.waitFor(t, message.OutputError, 1)
	if errs[0].ID != id || !errors.Is(errs[0].Err, errBoom) {
		t.Fatalf("error event = %+v", errs[0])
	}
}

func TestResolveVoices(t *testing.T) {
	synth := &fakeSynth{}
	out := NewOutput(synth, nil, "bn-BD")

	if _, err := out.ResolveVoices(context.Background()); !errors.Is(err, ErrNoVoices) {
		t.Fatalf("empty list: %v", err)
	}

	synth.voices = []tts.Voice{{Name: "Sushmita", Language: "bn-IN"}}
	changed, err := out.ResolveVoices(context.Background())
	if err != nil || !changed {
		t.Fatalf("ResolveVoices = %v, %v", changed, err)
	}
	if v := out.Voice(); v == nil || v.Name != "Sushmita" {
		t.Fatalf("voice = %+v", v)
	}
	if changed, _ := out.ResolveVoices(context.Background()); changed {
		t.Fatal("unchanged list reported as changed")
	}

	synth.mu.Lock()
	synth.voices = append(synth.voices, tts.Voice{Name: "Google Bangla", Language: "bn-BD"})
	synth.mu.Unlock()
	if changed, _ := out.ResolveVoices(context.Background()); !changed {
		t.Fatal("new voice not noticed")
	}
	u := out.Utterance("x")
	if u.Voice.Name != "Google Bangla" || u.Rate != 1.0 || u.Pitch != 1.1 || u.Language != "bn-BD" {
		t.Fatalf("utterance = %+v", u)
	}
}

func TestWatchVoicesRetries(t *testing.T) {
	synth := &fakeSynth{}
	out := NewOutput(synth, nil, "bn-BD")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go out.WatchVoices(ctx, 5*time.Millisecond, time.Hour)

	time.Sleep(20 * time.Millisecond)
	synth.mu.Lock()
	synth.voices = []tts.Voice{{Name: "Yasmin", Language: "bn-BD"}}
	synth.mu.Unlock()

	deadline := time.Now().Add(2 * time.Second)
	for out.Voice() == nil {
		if time.Now().After(deadline) {
			t.Fatal("voice never resolved")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
