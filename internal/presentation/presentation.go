// Package presentation holds everything the user sees: the conversation
// history, the status line with its indicator, the volume and brightness
// levels, transient banners and notifications. Renderers (the terminal UI,
// the websocket stream, the headless logger) subscribe to a Board and draw
// its updates.
package presentation

import "time"

// Status line texts.
const (
	StatusListening = "MIRA IS LISTENING..."
	StatusSpeaking  = "MIRA IS SPEAKING..."
	StatusReady     = "MIR-A IS READY, BOSS"
	StatusTextOnly  = "TEXT-ONLY MODE"
	StatusThinking  = "THINKING..."
)

// Sender identifies who produced a history entry.
type Sender string

const (
	SenderUser Sender = "user"
	SenderMira Sender = "mira"
)

// Entry is one visible conversation line.
type Entry struct {
	Sender Sender    `json:"sender"`
	Text   string    `json:"text"`
	Time   time.Time `json:"time"`
}

// Status is the status line and its indicator width in percent.
type Status struct {
	Text    string `json:"text"`
	Percent int    `json:"percent"`
}

// BannerKind selects a banner's lifetime.
type BannerKind string

const (
	BannerTextOnly BannerKind = "text_only"
	BannerInsecure BannerKind = "insecure"
	BannerHelp     BannerKind = "help"
)

// Banner is a transient overlay message.
type Banner struct {
	ID     uint64     `json:"id"`
	Kind   BannerKind `json:"kind"`
	Text   string     `json:"text"`
	Fading bool       `json:"fading"`
}

// Notification is a best-effort desktop-style notice.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// UpdateKind enumerates Board changes.
type UpdateKind string

const (
	UpdateMessage       UpdateKind = "message"
	UpdateStatus        UpdateKind = "status"
	UpdatePartial       UpdateKind = "partial"
	UpdateLevel         UpdateKind = "level"
	UpdateBanner        UpdateKind = "banner"
	UpdateBannerRemoved UpdateKind = "banner_removed"
	UpdateNotification  UpdateKind = "notification"
	UpdateURL           UpdateKind = "url"
)

// Update is one change pushed to subscribers. Only the field matching Kind
// is set.
type Update struct {
	Kind         UpdateKind    `json:"kind"`
	Entry        *Entry        `json:"entry,omitempty"`
	Status       *Status       `json:"status,omitempty"`
	Partial      string        `json:"partial,omitempty"`
	Level        *Level        `json:"level,omitempty"`
	Banner       *Banner       `json:"banner,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
	URL          string        `json:"url,omitempty"`
}

// Level is a named indicator such as volume or brightness, 0-100.
type Level struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// View is a point-in-time copy of the Board.
type View struct {
	History []Entry        `json:"history"`
	Status  Status         `json:"status"`
	Partial string         `json:"partial,omitempty"`
	Levels  map[string]int `json:"levels"`
	Banners []Banner       `json:"banners"`
}
