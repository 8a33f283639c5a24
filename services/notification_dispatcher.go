package services

import (
	"context"
	"encoding/json"
	"log"

	"creerlio_server/models"

	"github.com/redis/go-redis/v9"
)

// NotificationDispatcher delivers notification intents emitted by the
// lifecycle engine. Delivery is best-effort and fire-and-forget: a dispatch
// failure is logged by the caller and never fails the originating transition.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, intent models.NotificationIntent) error
}

// NotificationsChannel is the Redis channel downstream delivery workers
// subscribe to.
const NotificationsChannel = "connection-notifications"

// RedisDispatcher publishes intents to a Redis channel as JSON.
type RedisDispatcher struct {
	Redis *redis.Client
}

func (d *RedisDispatcher) Dispatch(ctx context.Context, intent models.NotificationIntent) error {
	payload, err := json.Marshal(intent)
	if err != nil {
		return err
	}
	return d.Redis.Publish(ctx, NotificationsChannel, payload).Err()
}

// LogDispatcher is the fallback when no Redis is configured: intents are
// logged and dropped.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(_ context.Context, intent models.NotificationIntent) error {
	log.Printf("Notification intent (no dispatcher configured): type=%s request=%s talent=%s business=%s",
		intent.Type, intent.ConnectionRequestID, intent.TalentID, intent.BusinessID)
	return nil
}
