package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Compile-time check that RedisRepository implements Repository.
var _ Repository = (*RedisRepository)(nil)

const (
	redisKeyPrefix = "job:"
	redisIndexKey  = "jobs:by_created"

	// redisUpdateAttempts bounds optimistic-lock retries in Update.
	redisUpdateAttempts = 5
)

// ErrConcurrentUpdate is returned when an optimistic update keeps losing races.
var ErrConcurrentUpdate = errors.New("job: concurrent update conflict")

// RedisRepository stores jobs as JSON documents in Redis.
// Jobs live under "job:<id>" and are indexed by creation time in a sorted set.
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository creates a repository backed by the given client.
func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

// Save writes the job document and its index entry in one transaction.
func (r *RedisRepository) Save(ctx context.Context, job *Job) error {
	snapshot := job.Clone()
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("job: marshal %s: %w", snapshot.ID, err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisKey(snapshot.ID), data, 0)
		pipe.ZAdd(ctx, redisIndexKey, redis.Z{
			Score:  float64(snapshot.CreatedAt.UnixNano()),
			Member: snapshot.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("job: save %s: %w", snapshot.ID, err)
	}
	return nil
}

// Update applies u using WATCH/MULTI so concurrent writers cannot lose
// each other's step timings.
func (r *RedisRepository) Update(ctx context.Context, id string, u Update) (*Job, error) {
	key := redisKey(id)
	var result *Job

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrJobNotFound
		}
		if err != nil {
			return err
		}

		var job Job
		if err := json.Unmarshal(data, &job); err != nil {
			return fmt.Errorf("job: unmarshal %s: %w", id, err)
		}
		if err := job.Apply(u); err != nil {
			return err
		}

		out, err := json.Marshal(&job)
		if err != nil {
			return fmt.Errorf("job: marshal %s: %w", id, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		if err != nil {
			return err
		}
		result = job.Clone()
		return nil
	}

	for attempt := 0; attempt < redisUpdateAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrConcurrentUpdate, id)
}

// FindByID loads a job document.
func (r *RedisRepository) FindByID(ctx context.Context, id string) (*Job, error) {
	data, err := r.client.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("job: get %s: %w", id, err)
	}

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("job: unmarshal %s: %w", id, err)
	}
	return &job, nil
}

// List returns all indexed jobs, newest first. Index entries whose document
// has disappeared are skipped.
func (r *RedisRepository) List(ctx context.Context) ([]*Job, error) {
	ids, err := r.client.ZRevRange(ctx, redisIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("job: list index: %w", err)
	}
	if len(ids) == 0 {
		return []*Job{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = redisKey(id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("job: list documents: %w", err)
	}

	result := make([]*Job, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var job Job
		if err := json.Unmarshal([]byte(s), &job); err != nil {
			return nil, fmt.Errorf("job: unmarshal %s: %w", ids[i], err)
		}
		result = append(result, &job)
	}
	return result, nil
}

// Delete removes the document and its index entry.
func (r *RedisRepository) Delete(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, redisKey(id))
		pipe.ZRem(ctx, redisIndexKey, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("job: delete %s: %w", id, err)
	}
	if del.Val() == 0 {
		return ErrJobNotFound
	}
	return nil
}
