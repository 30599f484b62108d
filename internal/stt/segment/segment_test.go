package segment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/nadzzz/mira/internal/audio"
	"github.com/nadzzz/mira/internal/stt"
)

type fakeTranscriber struct {
	mu    sync.Mutex
	calls int
	langs []string
	err   error
}

func (f *fakeTranscriber) Name() string { return "fake" }

func (f *fakeTranscriber) Transcribe(_ context.Context, wav []byte, lang string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if string(wav[:4]) != "RIFF" {
		return "", errors.New("not a wav file")
	}
	f.calls++
	f.langs = append(f.langs, lang)
	return fmt.Sprintf(" utterance %d ", f.calls), nil
}

func frames(loud bool, n int) [][]int16 {
	out := make([][]int16, n)
	for i := range out {
		f := make([]int16, 320)
		if loud {
			for j := range f {
				f[j] = 6000
				if j%2 == 1 {
					f[j] = -6000
				}
			}
		}
		out[i] = f
	}
	return out
}

func scriptedSource(script ...[][]int16) audio.Source {
	return audio.SourceFunc(func(ctx context.Context, fn func([]int16) error) error {
		for _, part := range script {
			for _, f := range part {
				if err := fn(f); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func TestRecognizerContinuous(t *testing.T) {
	src := scriptedSource(
		frames(false, 5), frames(true, 10), frames(false, 6),
		frames(true, 10), frames(false, 6),
	)
	tr := &fakeTranscriber{}
	rec := New(src, tr, Config{VAD: audio.VADOptions{SpeechFrames: 2, SilenceFrames: 4}})

	var results []stt.Result
	err := rec.Recognize(context.Background(), stt.Options{Language: "bn-BD", Continuous: true}, func(r stt.Result) {
		results = append(results, r)
	})
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2: %+v", len(results), results)
	}
	for i, r := range results {
		want := fmt.Sprintf("utterance %d", i+1)
		if r.Text != want || !r.Final {
			t.Errorf("result %d = %+v, want final %q", i, r, want)
		}
	}
	if tr.langs[0] != "bn" {
		t.Errorf("language = %q, want bn", tr.langs[0])
	}
}

func TestRecognizerInterimMarker(t *testing.T) {
	src := scriptedSource(frames(true, 10), frames(false, 6))
	rec := New(src, &fakeTranscriber{}, Config{VAD: audio.VADOptions{SpeechFrames: 2, SilenceFrames: 4}})

	var results []stt.Result
	if err := rec.Recognize(context.Background(), stt.Options{Interim: true, Continuous: true}, func(r stt.Result) {
		results = append(results, r)
	}); err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if len(results) != 2 || results[0].Final || !results[1].Final {
		t.Fatalf("results = %+v, want interim then final", results)
	}
}

func TestRecognizerSingleUtteranceStops(t *testing.T) {
	src := audio.SourceFunc(func(ctx context.Context, fn func([]int16) error) error {
		for {
			for _, part := range [][][]int16{frames(true, 10), frames(false, 6)} {
				for _, f := range part {
					if err := fn(f); err != nil {
						return err
					}
				}
			}
		}
	})
	tr := &fakeTranscriber{}
	rec := New(src, tr, Config{VAD: audio.VADOptions{SpeechFrames: 2, SilenceFrames: 4}})

	n := 0
	if err := rec.Recognize(context.Background(), stt.Options{}, func(stt.Result) { n++ }); err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if n < 1 {
		t.Fatal("no result before the session ended")
	}
}

func TestRecognizerTranscriberError(t *testing.T) {
	src := scriptedSource(frames(true, 10), frames(false, 6), frames(false, 100))
	tr := &fakeTranscriber{err: errors.New("boom")}
	rec := New(src, tr, Config{VAD: audio.VADOptions{SpeechFrames: 2, SilenceFrames: 4}})

	err := rec.Recognize(context.Background(), stt.Options{Continuous: true}, func(stt.Result) {})
	if err == nil {
		t.Fatal("expected transcriber error")
	}
}
