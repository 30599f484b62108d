package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nadzzz/mira/internal/message"
	"github.com/nadzzz/mira/internal/presentation"
	"github.com/nadzzz/mira/internal/session"
)

type fakeSession struct {
	forced  int
	resumed int
	snap    session.Snapshot
}

func (f *fakeSession) ForceStart()                { f.forced++ }
func (f *fakeSession) Resume()                    { f.resumed++ }
func (f *fakeSession) Snapshot() session.Snapshot { return f.snap }

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestForceMicAndTestAudio(t *testing.T) {
	sess := &fakeSession{}
	tested := 0
	m := New(Deps{Session: sess, TestAudio: func() { tested++ }})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	if sess.forced != 1 || tested != 1 {
		t.Fatalf("forced = %d tested = %d", sess.forced, tested)
	}
}

func TestFocusResumes(t *testing.T) {
	sess := &fakeSession{}
	m := New(Deps{Session: sess})
	update(t, m, tea.FocusMsg{})
	if sess.resumed != 1 {
		t.Fatalf("resumed = %d", sess.resumed)
	}
}

func TestEnterSubmitsCommand(t *testing.T) {
	var got *message.Message
	m := New(Deps{Handle: func(_ context.Context, msg *message.Message) (*message.Result, error) {
		got = msg
		return &message.Result{}, nil
	}})

	m, _ = update(t, m, keys("wifi"))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m, _ = update(t, m, keys("on"))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if len(m.input) != 0 {
		t.Fatalf("input not cleared: %q", string(m.input))
	}
	if cmd == nil {
		t.Fatal("no command returned")
	}
	done, ok := cmd().(CommandDoneMsg)
	if !ok || done.Err != nil {
		t.Fatalf("msg = %+v", done)
	}
	if got == nil || got.Text != "wifi on" || got.Source != message.SourceText {
		t.Fatalf("dispatched %+v", got)
	}
}

func TestQuitOnlyWithEmptyInput(t *testing.T) {
	m := New(Deps{})
	m, _ = update(t, m, keys("a"))
	m, cmd := update(t, m, keys("q"))
	if cmd != nil {
		t.Fatal("q with pending input should type, not quit")
	}
	if string(m.input) != "aq" {
		t.Fatalf("input = %q", string(m.input))
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	_, cmd = update(t, m, keys("q"))
	if cmd == nil {
		t.Fatal("q on empty input should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected quit")
	}
}

func TestApplyUpdates(t *testing.T) {
	ch := make(chan presentation.Update, 8)
	m := New(Deps{Updates: ch})

	m, _ = update(t, m, UpdateMsg{Update: presentation.Update{
		Kind:  presentation.UpdateMessage,
		Entry: &presentation.Entry{Sender: presentation.SenderMira, Text: "ভলিউম 80।", Time: time.Now()},
	}})
	m, _ = update(t, m, UpdateMsg{Update: presentation.Update{
		Kind:  presentation.UpdateLevel,
		Level: &presentation.Level{Name: "volume", Value: 80},
	}})
	m, _ = update(t, m, UpdateMsg{Update: presentation.Update{
		Kind:   presentation.UpdateBanner,
		Banner: &presentation.Banner{ID: 1, Kind: presentation.BannerTextOnly, Text: "text only"},
	}})
	m, _ = update(t, m, UpdateMsg{Update: presentation.Update{
		Kind:   presentation.UpdateBanner,
		Banner: &presentation.Banner{ID: 1, Kind: presentation.BannerTextOnly, Text: "text only", Fading: true},
	}})
	if len(m.banners) != 1 || !m.banners[0].Fading {
		t.Fatalf("banners = %+v", m.banners)
	}
	m, cmd := update(t, m, UpdateMsg{Update: presentation.Update{
		Kind:   presentation.UpdateBannerRemoved,
		Banner: &presentation.Banner{ID: 1},
	}})
	if len(m.banners) != 0 {
		t.Fatalf("banners = %+v", m.banners)
	}
	if cmd == nil {
		t.Fatal("should keep waiting for updates")
	}
	if len(m.history) != 1 || m.levels["volume"] != 80 {
		t.Fatalf("history = %+v levels = %v", m.history, m.levels)
	}
}

func TestView(t *testing.T) {
	sess := &fakeSession{snap: session.Snapshot{State: session.Listening, StateName: "listening"}}
	m := New(Deps{
		Session: sess,
		Initial: presentation.View{
			Status:  presentation.Status{Text: presentation.StatusListening, Percent: 100},
			History: []presentation.Entry{{Sender: presentation.SenderUser, Text: "সময়", Time: time.Now()}},
		},
	})
	if m.View() != "Initializing..." {
		t.Fatal("view before size should be a placeholder")
	}
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	v := m.View()
	for _, want := range []string{"MIRA", "LISTENING", presentation.StatusListening, "সময়"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestRenderBarCapsWidth(t *testing.T) {
	bar := renderBar(150, 10)
	if !strings.Contains(bar, strings.Repeat("█", 10)) || strings.Contains(bar, "░") {
		t.Fatalf("bar = %q, want a full bar", bar)
	}
	if !strings.Contains(bar, "150%") {
		t.Fatalf("bar = %q, want the value as given", bar)
	}
}
