// Package kvstore implements the repositories on Redis using one hash per
// record plus index keys:
//
//	user:{id}              hash
//	user:email:{email}     string -> user id
//	user:{id}:chats        set of chat ids
//	chat:{id}              hash
//	chat:{id}:messages     set of message ids
//	message:{id}           hash
//
// Every field is encoded and decoded explicitly; timestamps are RFC 3339 in
// UTC.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

func userKey(id string) string         { return "user:" + id }
func userEmailKey(email string) string { return "user:email:" + email }
func userChatsKey(id string) string    { return "user:" + id + ":chats" }
func chatKey(id string) string         { return "chat:" + id }
func chatMessagesKey(id string) string { return "chat:" + id + ":messages" }
func messageKey(id string) string      { return "message:" + id }

// Store hands out Redis-backed repositories sharing one client.
type Store struct {
	rdb redis.Cmdable
	now func() time.Time

	mu   sync.Mutex
	last time.Time
}

func New(rdb redis.Cmdable) *Store {
	return &Store{rdb: rdb, now: time.Now}
}

func (s *Store) Users() *Users       { return &Users{s: s} }
func (s *Store) Chats() *Chats       { return &Chats{s: s} }
func (s *Store) Messages() *Messages { return &Messages{s: s} }

// timestamp returns strictly increasing times within this process so that
// records created in a row keep their order.
func (s *Store) timestamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Nanosecond)
	}
	s.last = t
	return t
}

func wrap(err error) error {
	return fmt.Errorf("redis error: %w", err)
}

// loadHash fetches a record hash; an empty result means the key is absent.
func (s *Store) loadHash(ctx context.Context, key string) (map[string]string, error) {
	h, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, wrap(err)
	}
	if len(h) == 0 {
		return nil, nil
	}
	return h, nil
}

// loadHashes fetches many record hashes in one pipeline, skipping absent keys.
func (s *Store) loadHashes(ctx context.Context, keys []string) ([]map[string]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(keys))
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, k := range keys {
			cmds[i] = p.HGetAll(ctx, k)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, wrap(err)
	}

	out := make([]map[string]string, 0, len(keys))
	for _, c := range cmds {
		h, err := c.Result()
		if err != nil {
			return nil, wrap(err)
		}
		if len(h) > 0 {
			out = append(out, h)
		}
	}
	return out, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(field, v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode %s: %w", field, err)
	}
	return t.UTC(), nil
}

func formatBool(b bool) string {
	return strconv.FormatBool(b)
}

func parseBool(field, v string) (bool, error) {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("decode %s: %w", field, err)
	}
	return b, nil
}
