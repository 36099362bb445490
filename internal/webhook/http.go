// Package webhook posts delivered phase reminders to an external endpoint.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/zapponejosh/wellness-api/internal/queue"
)

// Event is the JSON body sent to the webhook.
type Event struct {
	Event          string `json:"event"`
	NotificationID int64  `json:"notification_id"`
	UserID         string `json:"user_id"`
	Phase          string `json:"phase"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	Date           string `json:"date"`
}

// EventPhaseReminder is the event name for phase reminders.
const EventPhaseReminder = "cycle.phase_reminder"

// notificationTitle matches the title the app shows on browser notifications.
const notificationTitle = "Project SHE • Cycle Reminder"

// HTTPEmitter POSTs notifications as JSON to a fixed URL.
type HTTPEmitter struct {
	client  *http.Client
	url     string
	headers map[string]string
}

// HTTPEmitterOption configures HTTPEmitter.
type HTTPEmitterOption func(*HTTPEmitter)

// WithClient sets the HTTP client (default: 10s timeout).
func WithClient(c *http.Client) HTTPEmitterOption {
	return func(e *HTTPEmitter) {
		e.client = c
	}
}

// WithHeader sets a header sent on every request (e.g. Authorization).
func WithHeader(key, value string) HTTPEmitterOption {
	return func(e *HTTPEmitter) {
		if e.headers == nil {
			e.headers = make(map[string]string)
		}
		e.headers[key] = value
	}
}

// NewHTTPEmitter returns a Deliverer that POSTs to url.
func NewHTTPEmitter(url string, opts ...HTTPEmitterOption) *HTTPEmitter {
	e := &HTTPEmitter{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    url,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Deliver implements queue.Deliverer.
func (e *HTTPEmitter) Deliver(ctx context.Context, n queue.Notification) error {
	body, err := json.Marshal(Event{
		Event:          EventPhaseReminder,
		NotificationID: n.ID,
		UserID:         n.UserID,
		Phase:          n.Phase,
		Title:          notificationTitle,
		Message:        n.Message,
		Date:           n.Date,
	})
	if err != nil {
		return fmt.Errorf("marshal webhook event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range e.headers {
		req.Header.Set(k, v)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Status: resp.StatusCode}
	}
	return nil
}

// StatusError reports a non-2xx webhook response.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook endpoint returned status %d", e.Status)
}

var _ queue.Deliverer = (*HTTPEmitter)(nil)
