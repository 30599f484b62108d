// Package http implements the HTTP/WebSocket transport for mira.
//
// This transport accepts typed commands, exposes the conversation history,
// the note list and the session state, and streams presentation updates
// over a WebSocket. It is best suited for web clients and phones on the
// local network.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/nadzzz/mira/internal/config"
	"github.com/nadzzz/mira/internal/message"
	"github.com/nadzzz/mira/internal/notes"
	"github.com/nadzzz/mira/internal/presentation"
	"github.com/nadzzz/mira/internal/session"
	"github.com/nadzzz/mira/internal/transport"

	_ "github.com/nadzzz/mira/internal/transport/http/docs"
)

// InsecureBanner is shown when commands travel over plain HTTP beyond the
// local host.
const InsecureBanner = "🔒 HTTP ব্যবহার করছেন!"

// Board is the presentation state served to clients.
type Board interface {
	History() []presentation.Entry
	Snapshot() presentation.View
	Subscribe(buffer int) (<-chan presentation.Update, func())
	ShowBanner(kind presentation.BannerKind, text string) uint64
}

// NoteLister lists saved notes.
type NoteLister interface {
	List(ctx context.Context) ([]notes.Note, error)
}

// SessionReporter exposes the arbitration state.
type SessionReporter interface {
	Snapshot() session.Snapshot
}

// Transport implements transport.Transport over HTTP and WebSocket.
type Transport struct {
	cfg     config.HTTPConfig
	board   Board
	notes   NoteLister
	session SessionReporter
	server  *http.Server
}

// New creates a new HTTP transport.
func New(cfg config.HTTPConfig, board Board, nl NoteLister, sr SessionReporter) *Transport {
	return &Transport{cfg: cfg, board: board, notes: nl, session: sr}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// CommandRequest is the body of POST /command.
type CommandRequest struct {
	Text string `json:"text" example:"ভলিউম ৮০"`
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Session session.Snapshot  `json:"session"`
	View    presentation.View `json:"view"`
}

// Handler returns the routes, dispatching commands to handler.
func (t *Transport) Handler(handler transport.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /command", func(w http.ResponseWriter, r *http.Request) {
		t.handleCommand(w, r, handler)
	})
	mux.HandleFunc("GET /history", t.handleHistory)
	mux.HandleFunc("GET /notes", t.handleNotes)
	mux.HandleFunc("GET /status", t.handleStatus)
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		t.handleWS(w, r, handler)
	})

	// Swagger UI serves the OpenAPI docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	return mux
}

// Insecure reports whether the transport serves plain HTTP beyond the
// loopback interface.
func (t *Transport) Insecure() bool {
	if t.cfg.TLSCert != "" && t.cfg.TLSKey != "" {
		return false
	}
	host := t.cfg.Host
	if host == "localhost" {
		return false
	}
	ip := net.ParseIP(host)
	return ip == nil || !ip.IsLoopback()
}

// Listen starts the HTTP server and routes incoming commands to the handler.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	addr := net.JoinHostPort(t.cfg.Host, fmt.Sprint(t.cfg.Port))
	t.server = &http.Server{
		Addr:              addr,
		Handler:           t.Handler(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if t.Insecure() {
		slog.Warn("http transport serves plain HTTP beyond localhost", "addr", addr)
		t.board.ShowBanner(presentation.BannerInsecure, InsecureBanner)
	}
	slog.Info("http transport listening", "addr", addr, "tls", t.cfg.TLSCert != "")

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = t.server.Shutdown(shutdownCtx)
	}()

	var err error
	if t.cfg.TLSCert != "" && t.cfg.TLSKey != "" {
		err = t.server.ListenAndServeTLS(t.cfg.TLSCert, t.cfg.TLSKey)
	} else {
		err = t.server.ListenAndServe()
	}
	if err != http.ErrServerClosed {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// handleCommand processes a POST /command request.
//
// @Summary     Run a text command
// @Description Accepts a JSON body {"text": "..."} or a text/plain body. The command is added to the
// @Description conversation history and evaluated exactly like a spoken one.
// @Tags        commands
// @Accept      json
// @Accept      plain
// @Produce     json
// @Param       command  body      CommandRequest  true  "Command text"
// @Success     200  {object}  message.Result  "What was done"
// @Failure     400  {string}  string  "Invalid or empty body"
// @Router      /command [post]
func (t *Transport) handleCommand(w http.ResponseWriter, r *http.Request, handler transport.Handler) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	if err != nil {
		http.Error(w, "reading body: "+err.Error(), http.StatusBadRequest)
		return
	}

	text := string(body)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req CommandRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
		text = req.Text
	}

	result, err := handler(r.Context(), message.New(message.SourceText, text))
	if err != nil {
		http.Error(w, "command error: "+err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, result)
}

// handleHistory processes a GET /history request.
//
// @Summary  Conversation history
// @Tags     state
// @Produce  json
// @Success  200  {array}  presentation.Entry
// @Router   /history [get]
func (t *Transport) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, t.board.History())
}

// handleNotes processes a GET /notes request.
//
// @Summary  Saved notes, oldest first
// @Tags     state
// @Produce  json
// @Success  200  {array}   notes.Note
// @Failure  500  {string}  string  "Store error"
// @Router   /notes [get]
func (t *Transport) handleNotes(w http.ResponseWriter, r *http.Request) {
	list, err := t.notes.List(r.Context())
	if err != nil {
		slog.Error("listing notes failed", "error", err)
		http.Error(w, "listing notes: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, list)
}

// handleStatus processes a GET /status request.
//
// @Summary  Session state and presentation snapshot
// @Tags     state
// @Produce  json
// @Success  200  {object}  StatusResponse
// @Router   /status [get]
func (t *Transport) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{View: t.board.Snapshot()}
	if t.session != nil {
		resp.Session = t.session.Snapshot()
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
