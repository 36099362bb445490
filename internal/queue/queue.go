// Package queue delivers phase reminder notifications, either through an
// asynq task queue backed by Redis or synchronously in-process.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// TypeDeliverNotification is the asynq task type for notification delivery.
const TypeDeliverNotification = "notify:deliver"

// Notification is the queued form of a stored notification.
type Notification struct {
	ID      int64  `json:"id"`
	UserID  string `json:"user_id"`
	Kind    string `json:"kind"`
	Phase   string `json:"phase"`
	Message string `json:"message"`
	Date    string `json:"date"`
}

// Enqueuer hands a notification off for delivery.
type Enqueuer interface {
	EnqueueNotification(ctx context.Context, n Notification) error
}

// Deliverer sends a notification to its final destination.
type Deliverer interface {
	Deliver(ctx context.Context, n Notification) error
}

// DeliveryRecorder marks stored notifications as delivered.
type DeliveryRecorder interface {
	MarkNotificationDelivered(ctx context.Context, id int64, at time.Time) error
}

// deliver sends n and, when a recorder is set, stamps the delivery time.
// A failure to record is logged but does not fail the delivery.
func deliver(ctx context.Context, d Deliverer, rec DeliveryRecorder, log *slog.Logger, n Notification) error {
	if err := d.Deliver(ctx, n); err != nil {
		return fmt.Errorf("deliver notification %d: %w", n.ID, err)
	}

	if rec != nil && n.ID != 0 {
		if err := rec.MarkNotificationDelivered(ctx, n.ID, time.Now()); err != nil {
			log.Warn("mark notification delivered failed",
				slog.Int64("notification_id", n.ID),
				slog.Any("error", err),
			)
		}
	}
	return nil
}

// LogDeliverer writes notifications to the log. Used when no webhook is
// configured.
type LogDeliverer struct {
	log *slog.Logger
}

// NewLogDeliverer returns a Deliverer that only logs.
func NewLogDeliverer(log *slog.Logger) *LogDeliverer {
	return &LogDeliverer{log: log}
}

// Deliver implements Deliverer.
func (d *LogDeliverer) Deliver(ctx context.Context, n Notification) error {
	d.log.InfoContext(ctx, "phase reminder (log only; set NOTIFY_WEBHOOK_URL to deliver)",
		slog.String("user_id", n.UserID),
		slog.String("phase", n.Phase),
		slog.String("message", n.Message),
	)
	return nil
}

// RedisOptFromURL converts a redis:// URL into asynq connection options.
func RedisOptFromURL(url string) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return asynq.RedisClientOpt{}, fmt.Errorf("parse redis url: %w", err)
	}
	return RedisOptFromOptions(opt), nil
}

// RedisOptFromOptions builds asynq connection options from an already
// parsed go-redis configuration, so one REDIS_URL serves both clients.
func RedisOptFromOptions(opt *redis.Options) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}
}

var (
	_ Deliverer = (*LogDeliverer)(nil)
)
