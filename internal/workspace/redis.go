package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/in-nis/smartschedule-back/internal/models"
)

const (
	keyPrefix     = "smartschedule:workspace:"
	maxTxAttempts = 8
)

// Redis keeps each workspace as one JSON value. The key expires after ttl
// without writes, which is how idle sessions end.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func redisKey(id string) string {
	return keyPrefix + id
}

func decode(raw []byte, id string) (*models.Workspace, error) {
	w := models.NewWorkspace(id)
	if err := json.Unmarshal(raw, w); err != nil {
		return nil, fmt.Errorf("decode workspace %s: %w", id, err)
	}
	return w, nil
}

func (r *Redis) Get(ctx context.Context, id string) (models.Workspace, error) {
	raw, err := r.client.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return *models.NewWorkspace(id), nil
	}
	if err != nil {
		return models.Workspace{}, err
	}
	w, err := decode(raw, id)
	if err != nil {
		return models.Workspace{}, err
	}
	return *w, nil
}

func (r *Redis) Update(ctx context.Context, id string, fn UpdateFunc) (models.Workspace, error) {
	key := redisKey(id)

	var (
		committed models.Workspace
		fnErr     error
	)
	txf := func(tx *redis.Tx) error {
		current := models.NewWorkspace(id)
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if current, err = decode(raw, id); err != nil {
				return err
			}
		}

		draft := current.Clone()
		if fnErr = fn(&draft); fnErr != nil {
			committed = current.Clone()
			return nil
		}
		touch(&draft)

		payload, err := json.Marshal(&draft)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, r.ttl)
			return nil
		})
		if err == nil {
			committed = draft
		}
		return err
	}

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return models.Workspace{}, err
		}
		return committed, fnErr
	}
	return models.Workspace{}, ErrConflict
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, redisKey(id)).Err()
}

// Sweep is a no-op: idle keys expire on their own.
func (r *Redis) Sweep(context.Context, time.Duration) (int, error) {
	return 0, nil
}
