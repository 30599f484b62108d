package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nadzzz/mira/internal/message"
	"github.com/nadzzz/mira/internal/presentation"
	"github.com/nadzzz/mira/internal/transport"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsPingInterval = 20 * time.Second
	wsBuffer       = 64
)

// snapshotFrame is the first frame on every stream.
type snapshotFrame struct {
	Kind string            `json:"kind"`
	View presentation.View `json:"view"`
}

// handleWS streams presentation updates as JSON text frames. Text frames
// from the client ({"text": "..."}) are run as commands.
//
// @Summary      Presentation update stream
// @Description  WebSocket. The first frame is {"kind":"snapshot","view":{...}}; later frames are updates.
// @Tags         state
// @Router       /ws [get]
func (t *Transport) handleWS(w http.ResponseWriter, r *http.Request, handler transport.Handler) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	conn.SetReadLimit(64 << 10)

	updates, unsubscribe := t.board.Subscribe(wsBuffer)
	defer unsubscribe()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go t.readCommands(ctx, cancel, conn, handler)

	if err := writeFrame(conn, snapshotFrame{Kind: "snapshot", View: t.board.Snapshot()}); err != nil {
		return
	}

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(wsWriteTimeout))
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		case u, ok := <-updates:
			if !ok {
				return
			}
			if err := writeFrame(conn, u); err != nil {
				slog.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}

// readCommands is the connection's only reader. It ends the stream when
// the client goes away.
func (t *Transport) readCommands(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, handler transport.Handler) {
	defer cancel()
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		var req CommandRequest
		if err := json.Unmarshal(data, &req); err != nil {
			slog.Debug("websocket frame ignored", "error", err)
			continue
		}
		if _, err := handler(ctx, message.New(message.SourceText, req.Text)); err != nil {
			slog.Debug("websocket command rejected", "error", err)
		}
	}
}

func writeFrame(conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
