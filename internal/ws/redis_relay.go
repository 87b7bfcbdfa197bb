package ws

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ignatzorin/lostfound-backend/internal/logger"
)

const userChannelPrefix = "lostfound:user:"

// RedisRelay доставляет события через Redis pub/sub, чтобы пользователь
// получал их независимо от того, к какому экземпляру подключён.
type RedisRelay struct {
	rdb *redis.Client
}

// NewRedisRelay подключается к Redis по URL вида redis://host:6379/0.
func NewRedisRelay(ctx context.Context, url string) (*RedisRelay, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("ws: некорректный REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ws: redis недоступен: %w", err)
	}
	return &RedisRelay{rdb: rdb}, nil
}

func (r *RedisRelay) Publish(ctx context.Context, userID uuid.UUID, payload []byte) error {
	return r.rdb.Publish(ctx, userChannelPrefix+userID.String(), payload).Err()
}

// Subscribe слушает каналы пользователей до отмены контекста.
func (r *RedisRelay) Subscribe(ctx context.Context, deliver func(userID uuid.UUID, payload []byte)) error {
	pubsub := r.rdb.PSubscribe(ctx, userChannelPrefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("ws: не удалось подписаться: %w", err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			userID, err := parseUserChannel(msg.Channel)
			if err != nil {
				logger.Log.WithError(err).Warn("ws: сообщение из неизвестного канала")
				continue
			}
			deliver(userID, []byte(msg.Payload))
		}
	}
}

func (r *RedisRelay) Close() error {
	return r.rdb.Close()
}

func parseUserChannel(channel string) (uuid.UUID, error) {
	raw, ok := strings.CutPrefix(channel, userChannelPrefix)
	if !ok {
		return uuid.Nil, fmt.Errorf("ws: канал %q без префикса", channel)
	}
	return uuid.Parse(raw)
}
