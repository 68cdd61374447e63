// Package session keeps browser sessions and one-shot flash messages in
// Redis.  Every visitor gets a session id cookie; the authenticated identity
// is attached to that id at login and detached at logout or password set.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/user-management/internal/model"
)

const (
	// CookieName is the cookie carrying the session id.
	CookieName = "sid"
	// ContextSID and ContextIdentity are the echo.Context keys the session
	// middleware populates.
	ContextSID      = "sid"
	ContextIdentity = "identity"

	sessionKeyPrefix = "session:"
	flashKeyPrefix   = "flash:"
	flashSep         = "\x1f"
)

// Flash kinds used by the pages.
const (
	FlashSuccess = "success_msg"
	FlashError   = "error_msg"
)

// Store is the Redis-backed session store.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore returns a Store whose entries expire after ttl of inactivity.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// NewID mints a fresh, unguessable session id.
func NewID() string { return uuid.NewString() }

// Identity returns the identity attached to sid, if any, and slides the
// expiry forward.
func (s *Store) Identity(ctx context.Context, sid string) (model.Identity, bool, error) {
	if sid == "" {
		return model.Identity{}, false, nil
	}
	raw, err := s.rdb.GetEx(ctx, sessionKeyPrefix+sid, s.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Identity{}, false, nil
	}
	if err != nil {
		return model.Identity{}, false, err
	}
	var id model.Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		return model.Identity{}, false, err
	}
	return id, true, nil
}

// SetIdentity attaches id to the session.
func (s *Store) SetIdentity(ctx context.Context, sid string, id model.Identity) error {
	raw, err := json.Marshal(id)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKeyPrefix+sid, raw, s.ttl).Err()
}

// ClearIdentity detaches the identity but keeps the session id usable for
// flashes on the next page.
func (s *Store) ClearIdentity(ctx context.Context, sid string) error {
	return s.rdb.Del(ctx, sessionKeyPrefix+sid).Err()
}

// AddFlash queues a message of the given kind for the next rendered page.
func (s *Store) AddFlash(ctx context.Context, sid, kind, msg string) error {
	key := flashKeyPrefix + sid
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key, kind+flashSep+msg)
	pipe.Expire(ctx, key, s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Flashes pops every queued message, grouped by kind.
func (s *Store) Flashes(ctx context.Context, sid string) (map[string][]string, error) {
	key := flashKeyPrefix + sid
	pipe := s.rdb.TxPipeline()
	lr := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	out := make(map[string][]string)
	for _, item := range lr.Val() {
		kind, msg, ok := strings.Cut(item, flashSep)
		if !ok {
			continue
		}
		out[kind] = append(out[kind], msg)
	}
	return out, nil
}
