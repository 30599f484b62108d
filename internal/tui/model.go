// Package tui is the terminal renderer: conversation history, status line
// with its indicator, level bars, banners and a command input line.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nadzzz/mira/internal/message"
	"github.com/nadzzz/mira/internal/presentation"
	"github.com/nadzzz/mira/internal/session"
	"github.com/nadzzz/mira/internal/transport"
)

// Session is the part of the Arbiter the TUI drives.
type Session interface {
	ForceStart()
	Resume()
	Snapshot() session.Snapshot
}

// Deps wires the TUI to the daemon.
type Deps struct {
	Updates   <-chan presentation.Update
	Initial   presentation.View
	Session   Session
	Handle    transport.Handler
	TestAudio func()
}

// Model is the root bubbletea model for the mira TUI.
type Model struct {
	deps Deps

	history      []presentation.Entry
	status       presentation.Status
	partial      string
	levels       map[string]int
	banners      []presentation.Banner
	notification *presentation.Notification
	lastURL      string

	input   []rune
	lastErr string

	width  int
	height int
}

// New creates a Model showing the initial view.
func New(deps Deps) Model {
	levels := make(map[string]int, len(deps.Initial.Levels))
	for k, v := range deps.Initial.Levels {
		levels[k] = v
	}
	return Model{
		deps:    deps,
		history: append([]presentation.Entry(nil), deps.Initial.History...),
		status:  deps.Initial.Status,
		partial: deps.Initial.Partial,
		levels:  levels,
		banners: append([]presentation.Banner(nil), deps.Initial.Banners...),
	}
}

// Init starts reading Board updates.
func (m Model) Init() tea.Cmd {
	return waitForUpdate(m.deps.Updates)
}

func waitForUpdate(ch <-chan presentation.Update) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return UpdatesClosedMsg{}
		}
		return UpdateMsg{Update: u}
	}
}

func runCommand(handle transport.Handler, text string) tea.Cmd {
	return func() tea.Msg {
		res, err := handle(context.Background(), message.New(message.SourceText, text))
		return CommandDoneMsg{Result: res, Err: err}
	}
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.FocusMsg:
		if m.deps.Session != nil {
			m.deps.Session.Resume()
		}
		return m, nil

	case UpdateMsg:
		m.apply(msg.Update)
		return m, waitForUpdate(m.deps.Updates)

	case UpdatesClosedMsg:
		return m, nil

	case CommandDoneMsg:
		m.lastErr = ""
		if msg.Err != nil {
			m.lastErr = msg.Err.Error()
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) apply(u presentation.Update) {
	switch u.Kind {
	case presentation.UpdateMessage:
		if u.Entry != nil {
			m.history = append(m.history, *u.Entry)
		}
	case presentation.UpdateStatus:
		if u.Status != nil {
			m.status = *u.Status
			m.partial = ""
		}
	case presentation.UpdatePartial:
		m.partial = u.Partial
	case presentation.UpdateLevel:
		if u.Level != nil {
			m.levels[u.Level.Name] = u.Level.Value
		}
	case presentation.UpdateBanner:
		if u.Banner == nil {
			return
		}
		for i := range m.banners {
			if m.banners[i].ID == u.Banner.ID {
				m.banners[i] = *u.Banner
				return
			}
		}
		m.banners = append(m.banners, *u.Banner)
	case presentation.UpdateBannerRemoved:
		if u.Banner == nil {
			return
		}
		for i := range m.banners {
			if m.banners[i].ID == u.Banner.ID {
				m.banners = append(m.banners[:i], m.banners[i+1:]...)
				return
			}
		}
	case presentation.UpdateNotification:
		m.notification = u.Notification
	case presentation.UpdateURL:
		m.lastURL = u.URL
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyCtrlC:
		return m, tea.Quit

	case KeyQuit:
		if len(m.input) == 0 {
			return m, tea.Quit
		}

	case KeyForceMic:
		if m.deps.Session != nil {
			m.deps.Session.ForceStart()
		}
		return m, nil

	case KeyTestAudio:
		if m.deps.TestAudio != nil {
			m.deps.TestAudio()
		}
		return m, nil

	case KeyEnter:
		text := strings.TrimSpace(string(m.input))
		m.input = m.input[:0]
		if text == "" || m.deps.Handle == nil {
			return m, nil
		}
		return m, runCommand(m.deps.Handle, text)

	case KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
		return m, nil

	case KeyEscape:
		m.input = m.input[:0]
		return m, nil
	}

	switch msg.Type {
	case tea.KeyRunes:
		m.input = append(m.input, msg.Runes...)
	case tea.KeySpace:
		m.input = append(m.input, ' ')
	}
	return m, nil
}

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderStatusBar())
	if b := m.renderBanners(); b != "" {
		sections = append(sections, b)
	}
	sections = append(sections, DividerStyle.Render(strings.Repeat("─", m.width)))

	fixed := len(sections) + 4 // divider, partial, input, footer
	sections = append(sections, m.renderHistory(max(1, m.height-fixed)))

	sections = append(sections, DividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, PartialTextStyle.Render(m.partial))
	sections = append(sections, m.renderInput())
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := TitleStyle.Render("MIRA")

	var dot string
	var degraded bool
	if m.deps.Session != nil {
		snap := m.deps.Session.Snapshot()
		degraded = snap.Degraded
		switch snap.State {
		case session.Listening:
			dot = ListeningDotStyle.Render("● LISTENING")
		case session.Speaking:
			dot = SpeakingDotStyle.Render("◆ SPEAKING")
		default:
			dot = IdleDotStyle.Render("○ " + strings.ToUpper(snap.StateName))
		}
	}
	if degraded {
		dot = IdleDotStyle.Render("○ TEXT-ONLY")
	}

	var url string
	if m.lastURL != "" {
		url = DimStyle.Render("  ↗ " + truncateToWidth(m.lastURL, max(10, m.width/2)))
	}
	return title + "  " + dot + url
}

func (m Model) renderStatusBar() string {
	line := StatusStyle.Render(m.status.Text) + "  " + renderBar(m.status.Percent, 20)
	for _, name := range []string{"volume", "brightness"} {
		if v, ok := m.levels[name]; ok {
			line += "  " + DimStyle.Render(strings.ToUpper(name[:3])) + " " + renderBar(v, 10)
		}
	}
	if m.notification != nil {
		line += "  " + NotificationStyle.Render("🔔 "+m.notification.Title)
	}
	return line
}

// renderBar draws a percent indicator of width cells.
func renderBar(percent, width int) string {
	filled := percent * width / 100
	filled = max(0, min(width, filled))
	return BarFilledStyle.Render(strings.Repeat("█", filled)) +
		BarEmptyStyle.Render(strings.Repeat("░", width-filled)) +
		DimStyle.Render(fmt.Sprintf(" %d%%", percent))
}

func (m Model) renderBanners() string {
	var lines []string
	for _, b := range m.banners {
		var style lipgloss.Style
		switch b.Kind {
		case presentation.BannerTextOnly:
			style = TextOnlyBannerStyle
		case presentation.BannerInsecure:
			style = InsecureBannerStyle
		default:
			style = HelpBannerStyle
		}
		if b.Fading {
			style = FadingStyle
		}
		lines = append(lines, style.Render(b.Text))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderHistory(height int) string {
	var lines []string
	for _, e := range m.history {
		ts := TimestampStyle.Render(e.Time.Format("15:04"))
		var who string
		if e.Sender == presentation.SenderUser {
			who = UserStyle.Render("you  ")
		} else {
			who = MiraStyle.Render("mira ")
		}
		prefix := ts + " " + who
		for i, l := range wrapText(e.Text, max(10, m.width-12)) {
			if i > 0 {
				prefix = strings.Repeat(" ", 11)
			}
			lines = append(lines, prefix+l)
		}
	}
	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderInput() string {
	line := PromptStyle.Render("> ") + string(m.input) + "█"
	if m.lastErr != "" {
		line += "  " + DimStyle.Render(m.lastErr)
	}
	return line
}

func (m Model) renderFooter() string {
	return DimStyle.Render("enter send · ctrl+r force mic · ctrl+t test audio · q quit")
}

func truncateToWidth(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	cur := words[0]
	for _, w := range words[1:] {
		if lipgloss.Width(cur)+1+lipgloss.Width(w) > width {
			lines = append(lines, cur)
			cur = w
			continue
		}
		cur += " " + w
	}
	return append(lines, cur)
}

// Run starts the TUI and blocks until the user quits or ctx is done.
func Run(ctx context.Context, deps Deps) error {
	p := tea.NewProgram(New(deps),
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
