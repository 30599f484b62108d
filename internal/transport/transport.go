// Package transport defines the contract shared by the command entry points.
//
// Each transport (HTTP/WebSocket, gRPC, MCP) accepts text commands or
// exposes read surfaces, and hands commands to the dispatcher through a
// Handler. The dispatcher doesn't care how commands arrive.
package transport

import (
	"context"

	"github.com/nadzzz/mira/internal/message"
)

// Handler processes one command and returns what was done.
// The dispatcher provides this handler to each transport.
type Handler func(ctx context.Context, msg *message.Message) (*message.Result, error)

// Transport is the interface that every transport adapter must implement.
type Transport interface {
	// Name returns the transport identifier (e.g., "grpc", "http", "mcp").
	Name() string

	// Listen starts accepting commands and dispatches them to the handler.
	// It blocks until the context is cancelled.
	Listen(ctx context.Context, handler Handler) error

	// Close gracefully shuts down the transport, draining in-flight work.
	Close() error
}
