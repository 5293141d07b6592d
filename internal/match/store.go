package match

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 24 * time.Hour

// Store keeps match snapshots and the per-user match index in Redis.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

func matchKey(id string) string       { return "xq:match:" + strings.TrimSpace(id) }
func userIndexKey(user string) string { return "xq:index:user:" + strings.TrimSpace(user) }
func activeKey(user string) string    { return "xq:active:" + strings.TrimSpace(user) }

// Create writes a new match; an existing key is an error.
func (s *Store) Create(ctx context.Context, m *Match) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	ok, err := s.rdb.SetNX(ctx, matchKey(m.ID), raw, s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("match %s already exists", m.ID)
	}
	return nil
}

// Load returns nil, nil when the match is missing or expired.
func (s *Store) Load(ctx context.Context, id string) (*Match, error) {
	raw, err := s.rdb.Get(ctx, matchKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var m Match
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Update runs fn on the current snapshot under WATCH and writes the result
// back in one transaction. A write by someone else in between surfaces as
// ErrConcurrentUpdate; an error from fn aborts without writing.
func (s *Store) Update(ctx context.Context, id string, fn func(*Match) error) error {
	key := matchKey(id)
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var cur Match
		if err := json.Unmarshal(raw, &cur); err != nil {
			return err
		}
		if err := fn(&cur); err != nil {
			return err
		}
		next, err := json.Marshal(&cur)
		if err != nil {
			return err
		}
		pipe := tx.TxPipeline()
		pipe.Set(ctx, key, next, s.ttl)
		_, err = pipe.Exec(ctx)
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrConcurrentUpdate
	}
	return err
}

// Delete drops a match snapshot.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, matchKey(id)).Err()
}

// Claim marks user as playing matchID. A claim held by another match fails
// with ErrPlayerBusy while live reports that match as running; a claim left
// by a finished or expired match is taken over.
func (s *Store) Claim(ctx context.Context, user, matchID string, live func(context.Context, string) (bool, error)) error {
	key := activeKey(user)
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != "" && cur != matchID {
			ok, lerr := live(ctx, cur)
			if lerr != nil {
				return lerr
			}
			if ok {
				return fmt.Errorf("%w: %s in %s", ErrPlayerBusy, user, cur)
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, matchID, s.ttl)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		// someone claimed the user between GET and EXEC
		return fmt.Errorf("%w: %s", ErrPlayerBusy, user)
	}
	return err
}

// Release drops the users' claims that still point at matchID.
func (s *Store) Release(ctx context.Context, matchID string, users ...string) error {
	for _, u := range users {
		if strings.TrimSpace(u) == "" {
			continue
		}
		key := activeKey(u)
		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			cur, err := tx.Get(ctx, key).Result()
			if errors.Is(err, redis.Nil) || (err == nil && cur != matchID) {
				return nil
			}
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			return err
		}, key)
		if err != nil && !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return nil
}

// ClaimedMatch returns the match id holding user's claim, or "".
func (s *Store) ClaimedMatch(ctx context.Context, user string) (string, error) {
	id, err := s.rdb.Get(ctx, activeKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return id, err
}

func (s *Store) Index(ctx context.Context, matchID string, users ...string) error {
	for _, u := range users {
		if strings.TrimSpace(u) == "" {
			continue
		}
		key := userIndexKey(u)
		if err := s.rdb.SAdd(ctx, key, matchID).Err(); err != nil {
			return err
		}
		_ = s.rdb.Expire(ctx, key, s.ttl).Err()
	}
	return nil
}

func (s *Store) Unindex(ctx context.Context, matchID string, users ...string) error {
	for _, u := range users {
		if strings.TrimSpace(u) == "" {
			continue
		}
		if err := s.rdb.SRem(ctx, userIndexKey(u), matchID).Err(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) MatchIDsByUser(ctx context.Context, userID string) ([]string, error) {
	return s.rdb.SMembers(ctx, userIndexKey(userID)).Result()
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
