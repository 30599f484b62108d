package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nadzzz/mira/internal/message"
	"github.com/nadzzz/mira/internal/notes"
	"github.com/nadzzz/mira/internal/session"
)

type fakeNotes struct {
	list []notes.Note
	err  error
}

func (f *fakeNotes) List(context.Context) ([]notes.Note, error) { return f.list, f.err }

type fakeSession struct{}

func (fakeSession) Snapshot() session.Snapshot {
	return session.Snapshot{State: session.Speaking, StateName: "speaking"}
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T", res.Content[0])
	}
	return tc.Text
}

func TestRunCommand(t *testing.T) {
	var got *message.Message
	tr := New(0, "test", &fakeNotes{}, fakeSession{})
	run := tr.runCommand(func(_ context.Context, msg *message.Message) (*message.Result, error) {
		got = msg
		return &message.Result{MessageID: msg.ID, Intents: []string{"volume"}, Responses: []string{"ভলিউম 80।"}}, nil
	})

	res, err := run(context.Background(), call(map[string]any{"text": "volume 80"}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", text(t, res))
	}
	if got == nil || got.Source != message.SourceMCP || got.Text != "volume 80" {
		t.Fatalf("dispatched %+v", got)
	}
	if !strings.Contains(text(t, res), `"volume"`) {
		t.Fatalf("result = %s", text(t, res))
	}
}

func TestRunCommandMissingText(t *testing.T) {
	tr := New(0, "test", &fakeNotes{}, nil)
	run := tr.runCommand(func(context.Context, *message.Message) (*message.Result, error) {
		t.Fatal("handler called")
		return nil, nil
	})
	res, err := run(context.Background(), call(map[string]any{}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Fatal("expected tool error")
	}
}

func TestListNotes(t *testing.T) {
	nl := &fakeNotes{}
	tr := New(0, "test", nl, nil)

	res, _ := tr.listNotes(context.Background(), call(nil))
	if text(t, res) != "No notes saved." {
		t.Fatalf("empty = %q", text(t, res))
	}

	nl.list = []notes.Note{{Text: "buy milk", Date: time.Now()}}
	res, _ = tr.listNotes(context.Background(), call(nil))
	if !strings.Contains(text(t, res), "buy milk") {
		t.Fatalf("list = %s", text(t, res))
	}

	nl.err = errors.New("locked")
	res, _ = tr.listNotes(context.Background(), call(nil))
	if !res.IsError {
		t.Fatal("expected tool error")
	}
}

func TestGetStatus(t *testing.T) {
	tr := New(0, "test", &fakeNotes{}, fakeSession{})
	res, _ := tr.getStatus(context.Background(), call(nil))
	if !strings.Contains(text(t, res), `"speaking"`) {
		t.Fatalf("status = %s", text(t, res))
	}
}

func TestServerRegistersTools(t *testing.T) {
	tr := New(0, "test", &fakeNotes{}, fakeSession{})
	s := tr.Server(func(context.Context, *message.Message) (*message.Result, error) { return nil, nil })
	resp := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"run_command", "list_notes", "get_status"} {
		if !strings.Contains(string(raw), `"`+name+`"`) {
			t.Errorf("tool %q not listed in %s", name, raw)
		}
	}
}
