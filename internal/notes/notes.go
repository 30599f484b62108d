// Package notes keeps the append-only list of spoken notes.
//
// The list is stored as one JSON array under a single key of a KV store and
// rewritten on every append.
package notes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultKey is the KV key holding the note list.
const DefaultKey = "mira_notes"

// Note is one saved note.
type Note struct {
	Text string    `json:"text"`
	Date time.Time `json:"date"`
}

// Store appends to and lists the note list.
type Store struct {
	kv  KV
	key string
	now func() time.Time

	mu sync.Mutex // serializes read-modify-write
}

// NewStore creates a Store over kv. An empty key means DefaultKey.
func NewStore(kv KV, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{kv: kv, key: key, now: time.Now}
}

// Append stamps text with the current time and adds it to the end of the list.
func (s *Store) Append(ctx context.Context, text string) (Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return Note{}, err
	}
	n := Note{Text: text, Date: s.now()}
	list = append(list, n)

	raw, err := json.Marshal(list)
	if err != nil {
		return Note{}, fmt.Errorf("encoding notes: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(raw)); err != nil {
		return Note{}, fmt.Errorf("saving notes: %w", err)
	}
	slog.Info("note saved", "count", len(list))
	return n, nil
}

// List returns all notes, oldest first.
func (s *Store) List(ctx context.Context) ([]Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) ([]Note, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("loading notes: %w", err)
	}
	if !ok || raw == "" {
		return []Note{}, nil
	}
	var list []Note
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("decoding notes: %w", err)
	}
	return list, nil
}
