package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// AsynqEnqueuer puts notifications on a Redis-backed asynq queue.
type AsynqEnqueuer struct {
	client *asynq.Client
	log    *slog.Logger
}

// NewAsynqEnqueuer connects an asynq client. Close it on shutdown.
func NewAsynqEnqueuer(redisOpt asynq.RedisClientOpt, log *slog.Logger) *AsynqEnqueuer {
	return &AsynqEnqueuer{client: asynq.NewClient(redisOpt), log: log}
}

// Close releases the Redis connection.
func (q *AsynqEnqueuer) Close() error {
	return q.client.Close()
}

// EnqueueNotification implements Enqueuer. A notification already waiting
// in the queue is not enqueued twice.
func (q *AsynqEnqueuer) EnqueueNotification(ctx context.Context, n Notification) error {
	task, err := newDeliverTask(n)
	if err != nil {
		return err
	}

	_, err = q.client.EnqueueContext(ctx, task,
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
		asynq.Unique(24*time.Hour),
	)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	if err != nil {
		q.log.Warn("enqueue notification failed",
			slog.Int64("notification_id", n.ID),
			slog.Any("error", err),
		)
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}

func newDeliverTask(n Notification) (*asynq.Task, error) {
	payload, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("marshal notification: %w", err)
	}
	return asynq.NewTask(TypeDeliverNotification, payload), nil
}

// Worker runs the asynq handler that delivers queued notifications.
type Worker struct {
	srv       *asynq.Server
	mux       *asynq.ServeMux
	deliverer Deliverer
	recorder  DeliveryRecorder
	log       *slog.Logger
}

// NewWorker creates an asynq server and registers the delivery handler.
// Call Run to start it.
func NewWorker(redisOpt asynq.RedisClientOpt, d Deliverer, rec DeliveryRecorder, log *slog.Logger) *Worker {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
		LogLevel:    asynq.InfoLevel,
		Logger:      &asynqLogger{log: log.With(slog.String("component", "asynq"))},
	})
	w := &Worker{
		srv:       srv,
		mux:       asynq.NewServeMux(),
		deliverer: d,
		recorder:  rec,
		log:       log,
	}
	w.mux.HandleFunc(TypeDeliverNotification, w.handleDeliver)
	return w
}

func (w *Worker) handleDeliver(ctx context.Context, t *asynq.Task) error {
	var n Notification
	if err := json.Unmarshal(t.Payload(), &n); err != nil {
		w.log.Error("notification task payload invalid", slog.Any("error", err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return deliver(ctx, w.deliverer, w.recorder, w.log, n)
}

// Run blocks until shutdown. Use Shutdown for graceful stop.
func (w *Worker) Run() error {
	return w.srv.Run(w.mux)
}

// Shutdown stops the worker and waits for in-flight tasks.
func (w *Worker) Shutdown() {
	w.srv.Shutdown()
}

// asynqLogger routes asynq's internal logging through slog.
type asynqLogger struct {
	log *slog.Logger
}

func (l *asynqLogger) Debug(args ...any) { l.log.Debug(fmt.Sprint(args...)) }
func (l *asynqLogger) Info(args ...any)  { l.log.Info(fmt.Sprint(args...)) }
func (l *asynqLogger) Warn(args ...any)  { l.log.Warn(fmt.Sprint(args...)) }
func (l *asynqLogger) Error(args ...any) { l.log.Error(fmt.Sprint(args...)) }

// Fatal logs at error level; exiting is left to main.
func (l *asynqLogger) Fatal(args ...any) { l.log.Error(fmt.Sprint(args...)) }

var _ Enqueuer = (*AsynqEnqueuer)(nil)
