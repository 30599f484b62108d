// Package mcp exposes mira to MCP clients over streamable HTTP.
//
// Tools:
//
//	run_command  evaluate a text command as if it had been spoken
//	list_notes   return the saved notes
//	get_status   return the session state
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nadzzz/mira/internal/message"
	"github.com/nadzzz/mira/internal/notes"
	"github.com/nadzzz/mira/internal/session"
	"github.com/nadzzz/mira/internal/transport"
)

// NoteLister lists saved notes.
type NoteLister interface {
	List(ctx context.Context) ([]notes.Note, error)
}

// SessionReporter exposes the arbitration state.
type SessionReporter interface {
	Snapshot() session.Snapshot
}

// Transport implements transport.Transport with an MCP server.
type Transport struct {
	port    int
	version string
	notes   NoteLister
	session SessionReporter
	server  *http.Server
}

// New creates a new MCP transport on the given port.
func New(port int, version string, nl NoteLister, sr SessionReporter) *Transport {
	return &Transport{port: port, version: version, notes: nl, session: sr}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "mcp" }

// Server builds the MCP server with every tool registered.
func (t *Transport) Server(handler transport.Handler) *server.MCPServer {
	s := server.NewMCPServer("mira", t.version, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("run_command",
		mcp.WithDescription("Run a Bengali or English command as if it had been spoken to the assistant. Returns what was said and opened."),
		mcp.WithString("text", mcp.Required(), mcp.Description("The command, e.g. \"ভলিউম ৮০\" or \"note buy milk\"")),
	), t.runCommand(handler))

	s.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List the saved notes, oldest first."),
	), t.listNotes)

	s.AddTool(mcp.NewTool("get_status",
		mcp.WithDescription("Report whether the assistant is listening, speaking or in text-only mode."),
	), t.getStatus)

	return s
}

func (t *Transport) runCommand(handler transport.Handler) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		res, err := handler(ctx, message.New(message.SourceMCP, text))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(res)
	}
}

func (t *Transport) listNotes(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := t.notes.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing notes: %v", err)), nil
	}
	if len(list) == 0 {
		return mcp.NewToolResultText("No notes saved."), nil
	}
	return jsonResult(list)
}

func (t *Transport) getStatus(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.session == nil {
		return mcp.NewToolResultError("session state unavailable"), nil
	}
	return jsonResult(t.session.Snapshot())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// Listen serves the MCP endpoint at /mcp until the context is cancelled.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	mux := http.NewServeMux()
	mux.Handle("/mcp", server.NewStreamableHTTPServer(t.Server(handler)))

	t.server = &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", t.port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("mcp transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		slog.Info("mcp transport shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = t.server.Shutdown(shutdownCtx)
	}()

	if err := t.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("mcp listen: %w", err)
	}
	return nil
}

// Close shuts the MCP endpoint down.
func (t *Transport) Close() error {
	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return t.server.Shutdown(ctx)
	}
	return nil
}
