package presentation

import (
	"context"
	"log/slog"
)

// LogUpdates renders Board updates as structured log records until ctx is
// done. It is the renderer used when no terminal UI is attached.
func LogUpdates(ctx context.Context, b *Board) {
	updates, cancel := b.Subscribe(64)
	defer cancel()

	log := slog.With("component", "presentation")
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			switch u.Kind {
			case UpdateMessage:
				log.Info("message", "sender", u.Entry.Sender, "text", u.Entry.Text)
			case UpdateStatus:
				log.Debug("status", "text", u.Status.Text, "percent", u.Status.Percent)
			case UpdatePartial:
				log.Debug("partial transcript", "text", u.Partial)
			case UpdateLevel:
				log.Info("level", "name", u.Level.Name, "value", u.Level.Value)
			case UpdateBanner:
				if !u.Banner.Fading {
					log.Warn("banner", "kind", u.Banner.Kind, "text", u.Banner.Text)
				}
			case UpdateNotification:
				log.Info("notification", "title", u.Notification.Title, "body", u.Notification.Body)
			case UpdateURL:
				log.Info("opened url", "url", u.URL)
			}
		}
	}
}
