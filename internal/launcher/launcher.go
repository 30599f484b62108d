// Package launcher opens URLs on behalf of the interpreter and builds the
// URLs for the messaging, search and app-open commands.
package launcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/pkg/browser"
)

// Launcher opens a URL. Open is fire-and-forget: it must not block on the
// opened application.
type Launcher interface {
	Open(ctx context.Context, url string) error
}

// Func adapts a function to a Launcher.
type Func func(ctx context.Context, url string) error

// Open implements Launcher.
func (f Func) Open(ctx context.Context, url string) error { return f(ctx, url) }

// Browser opens URLs with the system browser or URL handler.
type Browser struct{}

// Open implements Launcher.
func (Browser) Open(_ context.Context, u string) error {
	if err := browser.OpenURL(u); err != nil {
		return fmt.Errorf("opening %s: %w", u, err)
	}
	return nil
}

// Log only records the URL. It is the launcher for headless hosts.
type Log struct{}

// Open implements Launcher.
func (Log) Open(_ context.Context, u string) error {
	slog.Info("launch", "url", u)
	return nil
}

// New returns the launcher for a backend name: "browser" or "log".
func New(backend string) (Launcher, error) {
	switch backend {
	case "", "browser":
		return Browser{}, nil
	case "log":
		return Log{}, nil
	default:
		return nil, fmt.Errorf("unknown launcher backend: %q", backend)
	}
}

// Multi opens a URL with every launcher in order and returns the first error.
func Multi(ls ...Launcher) Launcher {
	return Func(func(ctx context.Context, u string) error {
		var first error
		for _, l := range ls {
			if err := l.Open(ctx, u); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}

// Escape percent-encodes s for a query component, encoding spaces as %20.
func Escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// WhatsAppSend is the URL that opens the messaging app without a draft.
const WhatsAppSend = "whatsapp://send"

// WhatsAppText opens the messaging app with body as a draft.
func WhatsAppText(body string) string {
	return "https://wa.me/?text=" + Escape(body)
}

// ImageSearch searches images for q.
func ImageSearch(q string) string {
	return "https://www.google.com/search?tbm=isch&q=" + Escape(q)
}

// AppSearch jumps to the first result for an app name.
func AppSearch(app string) string {
	return "https://www.google.com/search?q=open+" + Escape(app) + "+app&btnI=1"
}

// WebSearch searches the web for q.
func WebSearch(q string) string {
	return "https://www.google.com/search?q=" + Escape(q)
}

// YouTubeSearch searches videos for q.
func YouTubeSearch(q string) string {
	return "https://www.youtube.com/results?search_query=" + Escape(q)
}
