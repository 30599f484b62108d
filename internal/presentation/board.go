package presentation

import (
	"log/slog"
	"sync"
	"time"
)

// Options configures banner lifetimes and notifications.
type Options struct {
	TextOnlyTTL   time.Duration
	InsecureTTL   time.Duration
	HelpTTL       time.Duration
	Fade          time.Duration
	Notifications bool // whether notification permission is granted when asked
}

// Board is the shared presentation state. It is safe for concurrent use.
type Board struct {
	opts Options

	mu       sync.Mutex
	history  []Entry
	status   Status
	partial  string
	levels   map[string]int
	banners  []Banner
	bannerID uint64
	timers   map[uint64]*time.Timer

	requested bool
	granted   bool

	subs   map[int]chan Update
	nextID int
	now    func() time.Time
}

// NewBoard returns an empty Board with the ready status.
func NewBoard(opts Options) *Board {
	if opts.TextOnlyTTL <= 0 {
		opts.TextOnlyTTL = 8 * time.Second
	}
	if opts.InsecureTTL <= 0 {
		opts.InsecureTTL = 6 * time.Second
	}
	if opts.HelpTTL <= 0 {
		opts.HelpTTL = 10 * time.Second
	}
	if opts.Fade <= 0 {
		opts.Fade = 500 * time.Millisecond
	}
	return &Board{
		opts:   opts,
		status: Status{Text: StatusReady},
		levels: map[string]int{},
		timers: map[uint64]*time.Timer{},
		subs:   map[int]chan Update{},
		now:    time.Now,
	}
}

// Subscribe returns a channel of updates and a function that ends the
// subscription. Slow subscribers miss updates rather than block the Board.
func (b *Board) Subscribe(buffer int) (<-chan Update, func()) {
	ch := make(chan Update, buffer)
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// publish must be called with b.mu held.
func (b *Board) publish(u Update) {
	for id, ch := range b.subs {
		select {
		case ch <- u:
		default:
			slog.Debug("presentation subscriber lagging, update dropped", "subscriber", id, "kind", u.Kind)
		}
	}
}

// AddMessage appends a history entry.
func (b *Board) AddMessage(sender Sender, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e := Entry{Sender: sender, Text: text, Time: b.now()}
	b.history = append(b.history, e)
	b.publish(Update{Kind: UpdateMessage, Entry: &e})
}

// SetStatus replaces the status line and indicator width. The live partial
// transcript is cleared.
func (b *Board) SetStatus(text string, percent int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = Status{Text: text, Percent: clamp(percent)}
	b.partial = ""
	s := b.status
	b.publish(Update{Kind: UpdateStatus, Status: &s})
}

// SetPartial shows an interim transcript.
func (b *Board) SetPartial(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.partial = text
	b.publish(Update{Kind: UpdatePartial, Partial: text})
}

// SetLevel sets a named indicator and mirrors it on the status indicator.
// The value is kept as given so it matches the spoken acknowledgment;
// renderers cap the drawn width.
func (b *Board) SetLevel(name string, value int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.levels[name] = value
	b.status.Percent = value
	b.publish(Update{Kind: UpdateLevel, Level: &Level{Name: name, Value: value}})
	s := b.status
	b.publish(Update{Kind: UpdateStatus, Status: &s})
}

func clamp(v int) int {
	return max(0, min(100, v))
}

func (b *Board) ttl(kind BannerKind) time.Duration {
	switch kind {
	case BannerTextOnly:
		return b.opts.TextOnlyTTL
	case BannerInsecure:
		return b.opts.InsecureTTL
	default:
		return b.opts.HelpTTL
	}
}

// ShowBanner raises a banner that fades after its kind's lifetime and is
// removed once the fade completes.
func (b *Board) ShowBanner(kind BannerKind, text string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bannerID++
	bn := Banner{ID: b.bannerID, Kind: kind, Text: text}
	b.banners = append(b.banners, bn)
	b.publish(Update{Kind: UpdateBanner, Banner: &bn})

	id := bn.ID
	b.timers[id] = time.AfterFunc(b.ttl(kind), func() { b.fade(id) })
	return id
}

func (b *Board) fade(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.banners {
		if b.banners[i].ID != id {
			continue
		}
		b.banners[i].Fading = true
		bn := b.banners[i]
		b.publish(Update{Kind: UpdateBanner, Banner: &bn})
		b.timers[id] = time.AfterFunc(b.opts.Fade, func() { b.DismissBanner(id) })
		return
	}
}

// DismissBanner removes a banner immediately.
func (b *Board) DismissBanner(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.timers[id]; ok {
		t.Stop()
		delete(b.timers, id)
	}
	for i := range b.banners {
		if b.banners[i].ID == id {
			bn := b.banners[i]
			b.banners = append(b.banners[:i], b.banners[i+1:]...)
			b.publish(Update{Kind: UpdateBannerRemoved, Banner: &bn})
			return
		}
	}
}

// RequestNotifications asks for notification permission. Only the first
// call decides; later calls return the remembered answer.
func (b *Board) RequestNotifications() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.requested {
		b.requested = true
		b.granted = b.opts.Notifications
		slog.Info("notification permission", "granted", b.granted)
	}
	return b.granted
}

// Notify shows a notification if permission was granted. It never fails.
func (b *Board) Notify(title, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.granted {
		return
	}
	b.publish(Update{Kind: UpdateNotification, Notification: &Notification{Title: title, Body: body}})
}

// PublishURL tells renderers that a URL was opened.
func (b *Board) PublishURL(url string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.publish(Update{Kind: UpdateURL, URL: url})
}

// History returns a copy of the conversation history.
func (b *Board) History() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Entry(nil), b.history...)
}

// Snapshot returns a copy of the whole Board.
func (b *Board) Snapshot() View {
	b.mu.Lock()
	defer b.mu.Unlock()
	levels := make(map[string]int, len(b.levels))
	for k, v := range b.levels {
		levels[k] = v
	}
	return View{
		History: append([]Entry(nil), b.history...),
		Status:  b.status,
		Partial: b.partial,
		Levels:  levels,
		Banners: append([]Banner(nil), b.banners...),
	}
}

// Close stops all banner timers.
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, t := range b.timers {
		t.Stop()
		delete(b.timers, id)
	}
}
