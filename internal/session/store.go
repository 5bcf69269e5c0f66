package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"diet-planner/config"
	"diet-planner/internal/models"
)

// Store persists the latest published state per session key. Sequences are
// shared by every process using the store, so the newest request wins even
// when requests for one key are served by different instances.
type Store interface {
	// NextSequence reserves a sequence number for a new request on key.
	NextSequence(ctx context.Context, key string) (int64, error)
	// Put writes state only while seq is the newest sequence reserved for
	// key. It reports false when a newer request exists.
	Put(ctx context.Context, key string, seq int64, state models.PlanState) (bool, error)
	// Get returns ok=false when nothing was ever published for key.
	Get(ctx context.Context, key string) (state models.PlanState, ok bool, err error)
}

type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]models.PlanState
	seqs   map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[string]models.PlanState),
		seqs:   make(map[string]int64),
	}
}

func (s *MemoryStore) NextSequence(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seqs[key]++
	return s.seqs[key], nil
}

func (s *MemoryStore) Put(_ context.Context, key string, seq int64, state models.PlanState) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seqs[key] != seq {
		return false, nil
	}
	s.states[key] = state
	return true, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (models.PlanState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[key]
	return state, ok, nil
}

// RedisStore keeps states as JSON so several API instances can serve reads.
type RedisStore struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(cfg config.RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{rdb: rdb, prefix: cfg.KeyPrefix, ttl: cfg.TTL}, nil
}

func (s *RedisStore) seqKey(key string) string {
	return s.prefix + key + ":seq"
}

func (s *RedisStore) NextSequence(ctx context.Context, key string) (int64, error) {
	var incr *goredis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		incr = pipe.Incr(ctx, s.seqKey(key))
		if s.ttl > 0 {
			pipe.PExpire(ctx, s.seqKey(key), s.ttl)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis incr: %w", err)
	}
	return incr.Val(), nil
}

// putIfNewest sets KEYS[2] only while KEYS[1] still holds the caller's
// sequence. ARGV: sequence, state, ttl in milliseconds (0 = no expiry).
var putIfNewest = goredis.NewScript(`
if tonumber(redis.call('GET', KEYS[1]) or '0') ~= tonumber(ARGV[1]) then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[2], ARGV[2])
end
return 1
`)

func (s *RedisStore) Put(ctx context.Context, key string, seq int64, state models.PlanState) (bool, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return false, fmt.Errorf("failed to encode plan state: %w", err)
	}
	ok, err := putIfNewest.Run(ctx, s.rdb,
		[]string{s.seqKey(key), s.prefix + key},
		seq, raw, s.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("redis put: %w", err)
	}
	return ok == 1, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (models.PlanState, bool, error) {
	var state models.PlanState
	raw, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return state, false, nil
	}
	if err != nil {
		return state, false, fmt.Errorf("redis get: %w", err)
	}
	if err := json.Unmarshal(raw, &state); err != nil {
		return state, false, fmt.Errorf("failed to decode plan state: %w", err)
	}
	return state, true, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
