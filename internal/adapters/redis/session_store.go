// Package redis provides the Redis-backed session store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/qldt/qldt-api/internal/domain/auth"
	"github.com/qldt/qldt-api/internal/ports"
)

// DefaultKeyPrefix namespaces session keys.
const DefaultKeyPrefix = "session:"

// touchScript rewrites last_activity_at in place and keeps the key's TTL.
// It is a no-op for missing keys and returns 0 in that case.
var touchScript = redis.NewScript(`
local raw = redis.call("GET", KEYS[1])
if not raw then
	return 0
end
local sess = cjson.decode(raw)
sess["last_activity_at"] = ARGV[1]
redis.call("SET", KEYS[1], cjson.encode(sess), "KEEPTTL")
return 1
`)

// SessionStore is a Redis-based session store. Keys expire with the session's
// absolute lifetime so Redis collects them without a sweeper.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

var _ ports.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a new Redis-based session store.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return NewSessionStoreWithPrefix(client, DefaultKeyPrefix)
}

// NewSessionStoreWithPrefix creates a Redis session store with a custom key prefix.
func NewSessionStoreWithPrefix(client redis.UniversalClient, prefix string) *SessionStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &SessionStore{client: client, prefix: prefix, now: time.Now}
}

// Prefix returns the key prefix used for sessions.
func (s *SessionStore) Prefix() string { return s.prefix }

func (s *SessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return errors.New("session is expired")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+sess.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, domainauth.ErrSessionNotFound
	}

	data, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return domainauth.Session{}, domainauth.ErrSessionNotFound
	}
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("redis get: %w", err)
	}

	var sess domainauth.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return domainauth.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return sess, nil
}

// Touch records activity at without extending the key's TTL.
func (s *SessionStore) Touch(ctx context.Context, id string, at time.Time) error {
	if id == "" {
		return domainauth.ErrSessionNotFound
	}
	stamp, err := json.Marshal(at)
	if err != nil {
		return fmt.Errorf("marshal activity time: %w", err)
	}
	var raw string
	if err := json.Unmarshal(stamp, &raw); err != nil {
		return fmt.Errorf("encode activity time: %w", err)
	}

	n, err := touchScript.Run(ctx, s.client, []string{s.prefix + id}, raw).Int()
	if err != nil {
		return fmt.Errorf("redis touch: %w", err)
	}
	if n == 0 {
		return domainauth.ErrSessionNotFound
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.prefix+id).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// List returns every stored session. It walks the keyspace with SCAN, on every
// master when the client is a cluster.
func (s *SessionStore) List(ctx context.Context) ([]domainauth.Session, error) {
	var out []domainauth.Session
	err := s.eachKey(ctx, func(ctx context.Context, key string) error {
		sess, err := s.Get(ctx, key[len(s.prefix):])
		if errors.Is(err, domainauth.ErrSessionNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		out = append(out, sess)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteAll removes every stored session and reports how many were removed.
func (s *SessionStore) DeleteAll(ctx context.Context) (int, error) {
	var removed int
	err := s.eachKey(ctx, func(ctx context.Context, key string) error {
		n, err := s.client.Del(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
		removed += int(n)
		return nil
	})
	return removed, err
}

// eachKey calls fn for every session key. A cluster client only scans the node
// it happens to route to, so each master is scanned on its own. Calls to fn are
// serialized.
func (s *SessionStore) eachKey(ctx context.Context, fn func(ctx context.Context, key string) error) error {
	cluster, ok := s.client.(*redis.ClusterClient)
	if !ok {
		return s.scanNode(ctx, s.client, fn)
	}

	var mu sync.Mutex
	return cluster.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
		return s.scanNode(ctx, node, func(ctx context.Context, key string) error {
			mu.Lock()
			defer mu.Unlock()
			return fn(ctx, key)
		})
	})
}

func (s *SessionStore) scanNode(ctx context.Context, node redis.Cmdable, fn func(ctx context.Context, key string) error) error {
	iter := node.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := fn(ctx, iter.Val()); err != nil {
			return err
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	return nil
}
