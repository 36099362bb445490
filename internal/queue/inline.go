package queue

import (
	"context"
	"log/slog"
)

// InlineEnqueuer delivers notifications synchronously when no Redis queue
// is configured.
type InlineEnqueuer struct {
	deliverer Deliverer
	recorder  DeliveryRecorder
	log       *slog.Logger
}

// NewInlineEnqueuer returns an Enqueuer that calls d directly. rec may be nil.
func NewInlineEnqueuer(d Deliverer, rec DeliveryRecorder, log *slog.Logger) *InlineEnqueuer {
	return &InlineEnqueuer{deliverer: d, recorder: rec, log: log}
}

// EnqueueNotification implements Enqueuer.
func (q *InlineEnqueuer) EnqueueNotification(ctx context.Context, n Notification) error {
	return deliver(ctx, q.deliverer, q.recorder, q.log, n)
}

var _ Enqueuer = (*InlineEnqueuer)(nil)
