package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/safetyline/hsg245-stack/common/hsg245"
)

// Redis key structure:
//
//	hsg245:incident:{id} - hash with stage, updated_at, exported_at, exports
//	hsg245:incidents     - sorted set of incident ids scored by updated_at (unix ms)
const (
	incidentKeyPrefix = "hsg245:incident:"
	indexKey          = "hsg245:incidents"

	maxTxRetries = 5
)

// RedisStore shares lifecycle records across proxy instances.
type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisStore connects to redisURL and verifies the connection.
// ttl bounds how long an untouched incident is kept; zero keeps it forever.
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisStore{redis: client, ttl: ttl}, nil
}

// NewRedisStoreFromClient wraps an existing connection.
func NewRedisStoreFromClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{redis: client, ttl: ttl}
}

func incidentKey(id string) string {
	return incidentKeyPrefix + id
}

// Advance uses WATCH so concurrent proxies cannot regress a stage.
func (s *RedisStore) Advance(ctx context.Context, incidentID string, stage hsg245.Stage, at time.Time) (bool, error) {
	key := incidentKey(incidentID)
	changed := false

	txf := func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, key, "stage").Int()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if hsg245.Stage(current) >= stage {
			changed = false
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, map[string]interface{}{
				"stage":      int(stage),
				"updated_at": at.UnixMilli(),
			})
			s.touch(ctx, pipe, incidentID, at)
			return nil
		})
		changed = err == nil
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.redis.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("failed to advance incident %s: %w", incidentID, err)
		}
		return changed, nil
	}
	return false, fmt.Errorf("failed to advance incident %s: too much contention", incidentID)
}

func (s *RedisStore) MarkExported(ctx context.Context, incidentID string, at time.Time) error {
	key := incidentKey(incidentID)

	pipe := s.redis.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"exported_at": at.UnixMilli(),
		"updated_at":  at.UnixMilli(),
	})
	pipe.HIncrBy(ctx, key, "exports", 1)
	s.touch(ctx, pipe, incidentID, at)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to mark export for %s: %w", incidentID, err)
	}
	return nil
}

func (s *RedisStore) touch(ctx context.Context, pipe redis.Pipeliner, incidentID string, at time.Time) {
	pipe.ZAdd(ctx, indexKey, redis.Z{Score: float64(at.UnixMilli()), Member: incidentID})
	if s.ttl > 0 {
		pipe.Expire(ctx, incidentKey(incidentID), s.ttl)
	}
}

func (s *RedisStore) Get(ctx context.Context, incidentID string) (*hsg245.Lifecycle, error) {
	fields, err := s.redis.HGetAll(ctx, incidentKey(incidentID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get incident %s: %w", incidentID, err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	lc := parseRecord(fields).toLifecycle(incidentID)
	return &lc, nil
}

// List reads the index newest first. Ids whose hash has expired are dropped
// from the result and pruned from the index.
func (s *RedisStore) List(ctx context.Context, limit int) ([]hsg245.Lifecycle, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := s.redis.ZRevRange(ctx, indexKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	if len(ids) == 0 {
		return []hsg245.Lifecycle{}, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, incidentKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}

	out := make([]hsg245.Lifecycle, 0, len(ids))
	var stale []interface{}
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			stale = append(stale, ids[i])
			continue
		}
		out = append(out, parseRecord(fields).toLifecycle(ids[i]))
	}
	if len(stale) > 0 {
		s.redis.ZRem(ctx, indexKey, stale...)
	}
	return out, nil
}

func (s *RedisStore) Close() error {
	return s.redis.Close()
}

func parseRecord(fields map[string]string) record {
	var rec record
	if v, err := strconv.Atoi(fields["stage"]); err == nil {
		rec.stage = hsg245.Stage(v)
	}
	rec.updatedAt = parseMillis(fields["updated_at"])
	rec.exportedAt = parseMillis(fields["exported_at"])
	if v, err := strconv.Atoi(fields["exports"]); err == nil {
		rec.exports = v
	}
	return rec
}

func parseMillis(s string) time.Time {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
