package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/abhisek/kgtutor/internal/knowledge"
	"github.com/abhisek/kgtutor/internal/learner"
	"github.com/abhisek/kgtutor/internal/logger"
	"github.com/abhisek/kgtutor/internal/session"
)

const (
	redisKeyPrefix = "kgtutor:learner:"
	redisIndexKey  = "kgtutor:learners"
)

// RedisStore keeps each learner's export under its own key, plus a set of
// all learner ids.
type RedisStore struct {
	rdb   *goredis.Client
	graph *knowledge.Graph
	log   *logger.Logger
}

// OpenRedis connects to addr and pings it.
func OpenRedis(addr string, g *knowledge.Graph, log *logger.Logger) (*RedisStore, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStore(rdb, g, log), nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(rdb *goredis.Client, g *knowledge.Graph, log *logger.Logger) *RedisStore {
	return &RedisStore{rdb: rdb, graph: g, log: logger.OrNop(log).With("store", "redis")}
}

func redisKey(studentID string) string { return redisKeyPrefix + studentID }

func (r *RedisStore) Get(ctx context.Context, studentID string) (*learner.State, error) {
	data, err := r.rdb.Get(ctx, redisKey(studentID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("%q: %w", studentID, session.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get learner %q: %w", studentID, err)
	}
	return decode(data, r.graph, r.log)
}

func (r *RedisStore) Put(ctx context.Context, st *learner.State) error {
	data, err := st.Export()
	if err != nil {
		return err
	}
	_, err = r.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Set(ctx, redisKey(st.StudentID), data, 0)
		p.SAdd(ctx, redisIndexKey, st.StudentID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save learner %q: %w", st.StudentID, err)
	}
	return nil
}

func (r *RedisStore) Remove(ctx context.Context, studentID string) error {
	_, err := r.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Del(ctx, redisKey(studentID))
		p.SRem(ctx, redisIndexKey, studentID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove learner %q: %w", studentID, err)
	}
	return nil
}

func (r *RedisStore) List(ctx context.Context) ([]string, error) {
	ids, err := r.rdb.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list learners: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *RedisStore) Close() error { return r.rdb.Close() }
