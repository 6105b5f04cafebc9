// Package memstore keeps users, chats and messages in process memory,
// optionally mirrored to a JSON file that is rewritten after every change
// and loaded back on startup.
package memstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/chatassist/internal/filex"
	"github.com/dmitrijs2005/chatassist/internal/server/models"
)

// snapshot is the on-disk layout of a JSON-backed store.
type snapshot struct {
	Users    []*models.User    `json:"users"`
	Chats    []*models.Chat    `json:"chats"`
	Messages []*models.Message `json:"messages"`
}

// Store is safe for concurrent use. Records are copied on the way in and
// out; stored values are never mutated in place.
type Store struct {
	mu       sync.RWMutex
	users    map[string]*models.User
	chats    map[string]*models.Chat
	messages map[string]*models.Message

	path string
	lock *filex.FileLock
	now  func() time.Time
	last time.Time
}

// New returns an empty store that lives only in memory.
func New() *Store {
	return &Store{
		users:    make(map[string]*models.User),
		chats:    make(map[string]*models.Chat),
		messages: make(map[string]*models.Message),
		now:      time.Now,
	}
}

// ErrStoreInUse means another process (usually the running server) has the
// JSON file open. Only one process may own the file at a time, since none of
// them reloads changes written by another.
var ErrStoreInUse = errors.New("store file is in use by another process")

// Open returns a store mirrored to the JSON file at path. An existing file is
// loaded; a missing one is created on the first write. The store holds an
// exclusive lock on <path>.lock until Close.
func Open(path string) (*Store, error) {
	s := New()
	s.path = path

	if _, err := filex.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}

	lock, err := filex.Lock(path + ".lock")
	if errors.Is(err, filex.ErrLocked) {
		return nil, fmt.Errorf("%w: %s", ErrStoreInUse, path)
	}
	if err != nil {
		return nil, err
	}

	if err := s.load(); err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	s.lock = lock
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read store: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode store %s: %w", s.path, err)
	}
	for _, u := range snap.Users {
		s.users[u.ID] = u
	}
	for _, c := range snap.Chats {
		s.chats[c.ID] = c
	}
	for _, m := range snap.Messages {
		s.messages[m.ID] = m
	}
	return nil
}

// timestamp returns strictly increasing times so that records created in a
// row keep their order. Callers hold the write lock.
func (s *Store) timestamp() time.Time {
	t := s.now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Nanosecond)
	}
	s.last = t
	return t
}

// persist writes the snapshot file. Callers hold the write lock.
func (s *Store) persist() error {
	if s.path == "" {
		return nil
	}

	snap := snapshot{
		Users:    slices.Collect(maps.Values(s.users)),
		Chats:    slices.Collect(maps.Values(s.chats)),
		Messages: slices.Collect(maps.Values(s.messages)),
	}
	slices.SortFunc(snap.Users, func(a, b *models.User) int { return a.CreatedAt.Compare(b.CreatedAt) })
	slices.SortFunc(snap.Chats, func(a, b *models.Chat) int { return a.CreatedAt.Compare(b.CreatedAt) })
	slices.SortFunc(snap.Messages, func(a, b *models.Message) int { return a.CreatedAt.Compare(b.CreatedAt) })

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if err := filex.WriteFileAtomic(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	return nil
}

// Users, Chats and Messages return repositories that lock the store per call.
func (s *Store) Users() *Users       { return &Users{s: s} }
func (s *Store) Chats() *Chats       { return &Chats{s: s} }
func (s *Store) Messages() *Messages { return &Messages{s: s} }

// Tx exposes repositories bound to a store whose lock is already held.
type Tx struct {
	s *Store
}

func (t *Tx) Users() *Users       { return &Users{s: t.s, held: true} }
func (t *Tx) Chats() *Chats       { return &Chats{s: t.s, held: true} }
func (t *Tx) Messages() *Messages { return &Messages{s: t.s, held: true} }

// Atomic runs fn with the store locked. If fn fails every change it made is
// discarded; otherwise the snapshot file is written once.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, chats, messages := maps.Clone(s.users), maps.Clone(s.chats), maps.Clone(s.messages)

	if err := fn(ctx, &Tx{s: s}); err != nil {
		s.users, s.chats, s.messages = users, chats, messages
		return err
	}
	return s.persist()
}

// write runs a mutation under the lock (unless already held) and persists it.
// A failed persist rolls the mutation back.
func (s *Store) write(held bool, fn func() error) error {
	if !held {
		s.mu.Lock()
		defer s.mu.Unlock()
	}

	if held || s.path == "" {
		return fn()
	}

	users, chats, messages := maps.Clone(s.users), maps.Clone(s.chats), maps.Clone(s.messages)

	if err := fn(); err != nil {
		return err
	}
	if err := s.persist(); err != nil {
		s.users, s.chats, s.messages = users, chats, messages
		return err
	}
	return nil
}

func (s *Store) read(held bool, fn func()) {
	if !held {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	fn()
}

// Close releases the file lock. Every change is already on disk.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lock.Unlock()
}
