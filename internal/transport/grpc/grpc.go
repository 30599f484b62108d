// Package grpc implements the gRPC transport for mira.
//
// The server carries the standard health service, where "mira.session"
// tracks the voice session, and a small command service built on
// well-known types so clients need no generated stubs:
//
//	/mira.v1.Commands/Run  google.protobuf.StringValue -> google.protobuf.Struct
package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/nadzzz/mira/internal/message"
	"github.com/nadzzz/mira/internal/session"
	"github.com/nadzzz/mira/internal/transport"
)

// SessionService is the health service name that follows the voice session.
const SessionService = "mira.session"

// Transport implements transport.Transport over gRPC.
type Transport struct {
	port   int
	health *health.Server

	mu     sync.Mutex
	server *grpc.Server
	closed bool
}

// New creates a new gRPC transport on the given port.
func New(port int) *Transport {
	hs := health.NewServer()
	hs.SetServingStatus(SessionService, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Transport{port: port, health: hs}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "grpc" }

// ObserveSession updates the session health status. It has the signature
// of an Arbiter observer.
func (t *Transport) ObserveSession(s session.Snapshot) {
	st := healthpb.HealthCheckResponse_SERVING
	if s.Degraded {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	t.health.SetServingStatus(SessionService, st)
}

// Register installs the mira services on srv.
func (t *Transport) Register(srv *grpc.Server, handler transport.Handler) {
	healthpb.RegisterHealthServer(srv, t.health)
	srv.RegisterService(&commandsDesc, &commandServer{handler: handler})
	reflection.Register(srv)
}

// Listen starts the gRPC server and routes incoming commands to the handler.
// It returns immediately if the transport was already closed.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", t.port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}

	srv := grpc.NewServer()
	t.Register(srv, handler)

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		lis.Close()
		return nil
	}
	t.server = srv
	t.mu.Unlock()

	slog.Info("grpc transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		slog.Info("grpc transport shutting down")
		srv.GracefulStop()
	}()

	if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Close gracefully stops the gRPC server.
func (t *Transport) Close() error {
	t.mu.Lock()
	t.closed = true
	srv := t.server
	t.mu.Unlock()

	t.health.Shutdown()
	if srv != nil {
		srv.GracefulStop()
	}
	return nil
}

// commandsService is the interface RegisterService checks the
// implementation against.
type commandsService interface {
	Run(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error)
}

type commandServer struct {
	handler transport.Handler
}

// Run dispatches a text command and returns the result as a Struct.
func (s *commandServer) Run(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	msg := message.New(message.SourceText, in.GetValue())
	res, err := s.handler(ctx, msg)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return toStruct(res)
}

func toStruct(res *message.Result) (*structpb.Struct, error) {
	raw, err := json.Marshal(res)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding result: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encoding result: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding result: %v", err)
	}
	return out, nil
}

func runHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(commandsService).Run(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RunMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(commandsService).Run(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// RunMethod is the full method name of the command service.
const RunMethod = "/mira.v1.Commands/Run"

var commandsDesc = grpc.ServiceDesc{
	ServiceName: "mira.v1.Commands",
	HandlerType: (*commandsService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Run", Handler: runHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "mira/v1/commands.proto",
}
