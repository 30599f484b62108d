package interpreter

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nadzzz/mira/internal/launcher"
	"github.com/nadzzz/mira/internal/message"
	"github.com/nadzzz/mira/internal/notes"
	"github.com/nadzzz/mira/internal/presentation"
)

type fakeSpeaker struct {
	mu    sync.Mutex
	texts []string
}

func (f *fakeSpeaker) Speak(text string) {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
}

type fakeNotebook struct {
	notes []string
	err   error
}

func (f *fakeNotebook) Append(_ context.Context, text string) (notes.Note, error) {
	if f.err != nil {
		return notes.Note{}, f.err
	}
	f.notes = append(f.notes, text)
	return notes.Note{Text: text, Date: time.Now()}, nil
}

type fakeDisplay struct {
	mu       sync.Mutex
	statuses []string
	levels   map[string]int
	urls     []string
}

func (f *fakeDisplay) SetStatus(text string, _ int) {
	f.mu.Lock()
	f.statuses = append(f.statuses, text)
	f.mu.Unlock()
}

func (f *fakeDisplay) SetLevel(name string, value int) {
	f.mu.Lock()
	if f.levels == nil {
		f.levels = map[string]int{}
	}
	f.levels[name] = value
	f.mu.Unlock()
}

func (f *fakeDisplay) PublishURL(u string) {
	f.mu.Lock()
	f.urls = append(f.urls, u)
	f.mu.Unlock()
}

func (f *fakeDisplay) lastStatus() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.statuses) == 0 {
		return ""
	}
	return f.statuses[len(f.statuses)-1]
}

type env struct {
	in     *Interpreter
	sp     *fakeSpeaker
	nb     *fakeNotebook
	disp   *fakeDisplay
	opened chan string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		sp:     &fakeSpeaker{},
		nb:     &fakeNotebook{},
		disp:   &fakeDisplay{},
		opened: make(chan string, 8),
	}
	l := launcher.Func(func(_ context.Context, u string) error {
		e.opened <- u
		return nil
	})
	e.in = New(e.sp, l, e.nb, e.disp, Config{
		Locale:         "bn-BD",
		MessagingDelay: 10 * time.Millisecond,
		ResetDelay:     30 * time.Millisecond,
	})
	t.Cleanup(e.in.Close)
	return e
}

func (e *env) handle(text string) *message.Result {
	return e.in.Handle(context.Background(), message.New(message.SourceText, text))
}

func (e *env) waitOpened(t *testing.T) string {
	t.Helper()
	select {
	case u := <-e.opened:
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("no url opened")
		return ""
	}
}

func TestVolume(t *testing.T) {
	e := newEnv(t)
	res := e.handle("volume 80")
	if e.disp.levels["volume"] != 80 {
		t.Fatalf("volume level = %d", e.disp.levels["volume"])
	}
	if len(res.Responses) != 1 || !strings.Contains(res.Responses[0], "80") {
		t.Fatalf("responses = %q", res.Responses)
	}
	if e.disp.statuses[0] != presentation.StatusThinking {
		t.Fatalf("first status = %q", e.disp.statuses[0])
	}
}

func TestLevelDefaultsAndBengaliDigits(t *testing.T) {
	e := newEnv(t)
	e.handle("ব্রাইটনেস বাড়াও")
	if e.disp.levels["brightness"] != 50 {
		t.Fatalf("brightness = %d, want 50", e.disp.levels["brightness"])
	}
	e.handle("ভলিউম ৩৫")
	if e.disp.levels["volume"] != 35 {
		t.Fatalf("volume = %d, want 35", e.disp.levels["volume"])
	}
	e.handle("volume up")
	if e.disp.levels["volume"] != 70 {
		t.Fatalf("volume = %d, want 70", e.disp.levels["volume"])
	}
}

func TestNote(t *testing.T) {
	e := newEnv(t)
	res := e.handle("note buy milk")
	if len(e.nb.notes) != 1 || e.nb.notes[0] != "buy milk" {
		t.Fatalf("notes = %q", e.nb.notes)
	}
	if len(res.Responses) != 1 || res.Responses[0] != NoteSavedText {
		t.Fatalf("responses = %q", res.Responses)
	}
}

func TestNoteKeepsCase(t *testing.T) {
	e := newEnv(t)
	e.handle("Save Note Call Rahim")
	if len(e.nb.notes) != 1 || e.nb.notes[0] != "Call Rahim" {
		t.Fatalf("notes = %q", e.nb.notes)
	}
}

func TestNoteWithoutText(t *testing.T) {
	e := newEnv(t)
	res := e.handle("note")
	if len(e.nb.notes) != 0 {
		t.Fatalf("notes = %q", e.nb.notes)
	}
	if len(res.Responses) != 1 || res.Responses[0] != NoteUnclearText {
		t.Fatalf("responses = %q", res.Responses)
	}
}

func TestNoteFailureApologizes(t *testing.T) {
	e := newEnv(t)
	e.nb.err = errors.New("disk full")
	res := e.handle("নোট বাজার")
	if res.Error == "" {
		t.Fatal("expected error in result")
	}
	if got := res.Responses[len(res.Responses)-1]; got != ApologyText {
		t.Fatalf("last response = %q", got)
	}
}

func TestTime(t *testing.T) {
	e := newEnv(t)
	e.in.now = func() time.Time { return time.Date(2024, 1, 1, 15, 4, 5, 0, time.UTC) }
	res := e.handle("এখন কত সময়")
	if len(res.Responses) != 1 || !strings.Contains(res.Responses[0], "৩:০৪:০৫ PM") {
		t.Fatalf("responses = %q", res.Responses)
	}
}

func TestUnmatched(t *testing.T) {
	e := newEnv(t)
	res := e.handle("asdkjaskd")
	if len(res.Responses) != 1 || res.Responses[0] != DefaultText {
		t.Fatalf("responses = %q", res.Responses)
	}
	if len(e.sp.texts) != 1 {
		t.Fatalf("spoken %d times", len(e.sp.texts))
	}

	deadline := time.Now().Add(2 * time.Second)
	for e.disp.lastStatus() != presentation.StatusReady {
		if time.Now().After(deadline) {
			t.Fatalf("status = %q, want ready", e.disp.lastStatus())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEmptyCommandIgnored(t *testing.T) {
	e := newEnv(t)
	if res := e.handle("   "); res != nil {
		t.Fatalf("result = %+v", res)
	}
	if len(e.disp.statuses) != 0 || len(e.sp.texts) != 0 {
		t.Fatal("empty command had side effects")
	}
}

func TestMessaging(t *testing.T) {
	e := newEnv(t)
	res := e.handle("whatsapp send hello boss")
	if res.Responses[0] != MessagingText {
		t.Fatalf("responses = %q", res.Responses)
	}
	if got := e.waitOpened(t); got != "https://wa.me/?text=hello%20boss" {
		t.Fatalf("opened %q", got)
	}

	e.handle("হোয়াটসঅ্যাপ")
	if got := e.waitOpened(t); got != launcher.WhatsAppSend {
		t.Fatalf("opened %q", got)
	}
}

func TestVolumeAboveHundred(t *testing.T) {
	e := newEnv(t)
	res := e.handle("volume 150")
	if res.Responses[0] != "ভলিউম 150।" {
		t.Fatalf("responses = %q", res.Responses)
	}
	if e.disp.levels["volume"] != 150 {
		t.Fatalf("volume level = %d, want the spoken value", e.disp.levels["volume"])
	}
}

func TestImageSkipsNote(t *testing.T) {
	e := newEnv(t)
	res := e.handle("image note cats")
	if len(res.Intents) != 1 || res.Intents[0] != "image" {
		t.Fatalf("intents = %q", res.Intents)
	}
	if len(res.Responses) != 1 || res.Responses[0] != ImageText {
		t.Fatalf("responses = %q", res.Responses)
	}
	if len(e.nb.notes) != 0 {
		t.Fatalf("notes = %q, want none", e.nb.notes)
	}
	if got := e.waitOpened(t); got != "https://www.google.com/search?tbm=isch&q=image%20note%20cats" {
		t.Fatalf("opened %q", got)
	}
}

func TestImageFallsThroughToControls(t *testing.T) {
	e := newEnv(t)
	res := e.handle("image volume 30")
	if len(res.Intents) != 2 || res.Intents[0] != "image" || res.Intents[1] != "volume" {
		t.Fatalf("intents = %q", res.Intents)
	}
	if e.disp.levels["volume"] != 30 {
		t.Fatalf("volume level = %d", e.disp.levels["volume"])
	}
}

func TestSwitches(t *testing.T) {
	e := newEnv(t)
	if res := e.handle("wifi on"); res.Responses[0] != "ওয়াইফাই অন করছি।" {
		t.Fatalf("responses = %q", res.Responses)
	}
	if res := e.handle("ব্লুটুথ বন্ধ"); res.Responses[0] != "ব্লুটুথ অফ করছি।" {
		t.Fatalf("responses = %q", res.Responses)
	}
}

func TestSearch(t *testing.T) {
	e := newEnv(t)
	res := e.handle("youtube search lofi music")
	if res.Responses[0] != "ইউটিউবে lofi music।" {
		t.Fatalf("responses = %q", res.Responses)
	}
	if got := e.waitOpened(t); got != "https://www.youtube.com/results?search_query=lofi%20music" {
		t.Fatalf("opened %q", got)
	}

	e.handle("গুগলে ঢাকা সার্চ")
	if got := e.waitOpened(t); got != launcher.WebSearch("ঢাকা") {
		t.Fatalf("opened %q", got)
	}
}

func TestAppOpen(t *testing.T) {
	e := newEnv(t)
	res := e.handle("open camera app")
	if res.Responses[0] != "camera খুলছি।" {
		t.Fatalf("responses = %q", res.Responses)
	}
	if got := e.waitOpened(t); got != "https://www.google.com/search?q=open+camera+app&btnI=1" {
		t.Fatalf("opened %q", got)
	}
}

func TestSmallTalk(t *testing.T) {
	e := newEnv(t)
	if res := e.handle("কেমন আছো মিরা"); res.Responses[0] != SmallTalkText {
		t.Fatalf("responses = %q", res.Responses)
	}
}

func TestPanicApologizes(t *testing.T) {
	e := newEnv(t)
	e.in.rules = append([]rule{{
		name:     "broken",
		triggers: []string{"broken"},
		act:      func(*evaluation) error { panic("boom") },
	}}, e.in.rules...)
	res := e.handle("broken")
	if res.Error == "" || res.Responses[0] != ApologyText {
		t.Fatalf("result = %+v", res)
	}
}
