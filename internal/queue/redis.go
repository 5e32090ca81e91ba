package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"sealbox/internal/domain"
)

const redisKeyPrefix = "sealbox:recovery:"

// Redis is a delivery queue backed by a Redis list per destination, for
// deployments where a separate worker drains and delivers recovery requests.
type Redis struct {
	client *redis.Client
}

var _ domain.DeliveryQueue = (*Redis)(nil)

// NewRedis wraps an existing client. The caller owns the client's lifecycle.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Enqueue pushes msg onto the destination's list.
func (q *Redis) Enqueue(ctx context.Context, msg domain.RecoveryMessage) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	key := redisKeyPrefix + string(msg.Destination)
	if err := q.client.RPush(ctx, key, raw).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", key, err)
	}
	return nil
}

// Dequeue pops the oldest pending message for destination, blocking until one
// arrives or ctx expires. Used by delivery workers, not by the engine.
func (q *Redis) Dequeue(ctx context.Context, destination domain.Address) (domain.RecoveryMessage, error) {
	key := redisKeyPrefix + string(destination)
	res, err := q.client.BLPop(ctx, 0, key).Result()
	if err != nil {
		return domain.RecoveryMessage{}, fmt.Errorf("blpop %s: %w", key, err)
	}
	// BLPop returns [key, value].
	var msg domain.RecoveryMessage
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		return domain.RecoveryMessage{}, err
	}
	return msg, nil
}
