package reminder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/zapponejosh/wellness-api/internal/database"
	"github.com/zapponejosh/wellness-api/internal/queue"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testStore(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(database.DefaultConfig(":memory:"), quietLogger())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if _, err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type recordingDeliverer struct {
	mu   sync.Mutex
	sent []queue.Notification
}

func (d *recordingDeliverer) Deliver(ctx context.Context, n queue.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, n)
	return nil
}

func saveSettings(t *testing.T, db *database.DB, user, start string, cl, ml int) {
	t.Helper()
	s := &database.CycleSettings{UserID: user, LastPeriodStart: start, CycleLength: cl, MensesLength: ml}
	if err := db.UpsertCycleSettings(context.Background(), s); err != nil {
		t.Fatalf("save settings: %v", err)
	}
}

func TestRunDaily_NotifiesOnPhaseStart(t *testing.T) {
	db := testStore(t)
	d := &recordingDeliverer{}
	s := NewScheduler(db, loadCatalog(t), queue.NewInlineEnqueuer(d, db, quietLogger()), time.UTC, quietLogger())

	// 28/5 from Jan 1: Jan 13 is offset 12, the first ovulation day.
	saveSettings(t, db, "starts-ovulation", "2025-01-01", 28, 5)
	// Jan 13 is offset 3 for this user: mid-menstruation, no reminder.
	saveSettings(t, db, "mid-phase", "2025-01-10", 28, 5)

	now := time.Date(2025, 1, 13, 8, 0, 0, 0, time.UTC)
	stats, err := s.RunDaily(context.Background(), now)
	if err != nil {
		t.Fatalf("RunDaily() error = %v", err)
	}

	if stats.Checked != 2 || stats.Notified != 1 || stats.Skipped != 0 || stats.Failed != 0 {
		t.Errorf("RunDaily() stats = %+v", stats)
	}
	if len(d.sent) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(d.sent))
	}

	n := d.sent[0]
	if n.UserID != "starts-ovulation" || n.Phase != "ovulation" || n.Date != "2025-01-13" {
		t.Errorf("notification = %+v", n)
	}
	if n.Message != "Power phase — you're radiant. Use this energy well." {
		t.Errorf("message = %q", n.Message)
	}

	stored, err := db.ListNotifications(context.Background(), "starts-ovulation", 10)
	if err != nil {
		t.Fatalf("ListNotifications() error = %v", err)
	}
	if len(stored) != 1 || stored[0].DeliveredAt == nil {
		t.Errorf("stored notifications = %+v", stored)
	}
}

func TestRunDaily_IdempotentWithinDay(t *testing.T) {
	db := testStore(t)
	d := &recordingDeliverer{}
	s := NewScheduler(db, loadCatalog(t), queue.NewInlineEnqueuer(d, db, quietLogger()), time.UTC, quietLogger())

	saveSettings(t, db, "u1", "2025-01-01", 28, 5)
	now := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	if _, err := s.RunDaily(context.Background(), now); err != nil {
		t.Fatalf("first RunDaily() error = %v", err)
	}
	stats, err := s.RunDaily(context.Background(), now.Add(6*time.Hour))
	if err != nil {
		t.Fatalf("second RunDaily() error = %v", err)
	}

	if stats.Notified != 0 || stats.Skipped != 1 {
		t.Errorf("second run stats = %+v, want skipped duplicate", stats)
	}
	if len(d.sent) != 1 {
		t.Errorf("sent %d notifications, want 1", len(d.sent))
	}
}

// flakyDeliverer fails its first `failures` calls, then records.
type flakyDeliverer struct {
	recordingDeliverer
	failures int
}

func (d *flakyDeliverer) Deliver(ctx context.Context, n queue.Notification) error {
	d.mu.Lock()
	if d.failures > 0 {
		d.failures--
		d.mu.Unlock()
		return errors.New("webhook down")
	}
	d.mu.Unlock()
	return d.recordingDeliverer.Deliver(ctx, n)
}

func TestRunDaily_RetriesAfterFailedDelivery(t *testing.T) {
	db := testStore(t)
	d := &flakyDeliverer{failures: 1}
	s := NewScheduler(db, loadCatalog(t), queue.NewInlineEnqueuer(d, db, quietLogger()), time.UTC, quietLogger())

	saveSettings(t, db, "u1", "2025-01-01", 28, 5)
	now := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	first, err := s.RunDaily(context.Background(), now)
	if err != nil {
		t.Fatalf("first RunDaily() error = %v", err)
	}
	if first.Failed != 1 || first.Notified != 0 {
		t.Errorf("first run stats = %+v, want one failure", first)
	}
	stored, err := db.ListNotifications(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("ListNotifications() error = %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("failed notification kept: %+v", stored)
	}

	retry, err := s.RunDaily(context.Background(), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("retry RunDaily() error = %v", err)
	}
	if retry.Notified != 1 || retry.Skipped != 0 || retry.Failed != 0 {
		t.Errorf("retry stats = %+v, want one notified", retry)
	}
	if len(d.sent) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(d.sent))
	}

	stored, _ = db.ListNotifications(context.Background(), "u1", 10)
	if len(stored) != 1 || stored[0].DeliveredAt == nil {
		t.Errorf("stored notifications = %+v", stored)
	}
}

func TestRunDaily_UsesLocalCalendarDay(t *testing.T) {
	db := testStore(t)
	d := &recordingDeliverer{}
	tokyo := time.FixedZone("JST", 9*60*60)
	s := NewScheduler(db, loadCatalog(t), queue.NewInlineEnqueuer(d, nil, quietLogger()), tokyo, quietLogger())

	saveSettings(t, db, "u1", "2025-01-01", 28, 5)

	// 2024-12-31 20:00 UTC is already Jan 1 in Tokyo.
	now := time.Date(2024, 12, 31, 20, 0, 0, 0, time.UTC).In(tokyo)
	stats, err := s.RunDaily(context.Background(), now)
	if err != nil {
		t.Fatalf("RunDaily() error = %v", err)
	}
	if stats.Notified != 1 || d.sent[0].Phase != "menstruation" || d.sent[0].Date != "2025-01-01" {
		t.Errorf("stats = %+v, sent = %+v", stats, d.sent)
	}
}

type staticStore struct {
	rows []database.CycleSettings
	err  error
}

func (s *staticStore) ListCycleSettings(ctx context.Context) ([]database.CycleSettings, error) {
	return s.rows, s.err
}

func (s *staticStore) RecordNotification(ctx context.Context, n *database.Notification) error {
	return nil
}

func (s *staticStore) DeleteNotification(ctx context.Context, id int64) error {
	return nil
}

func TestRunDaily_SkipsUnusableSettings(t *testing.T) {
	store := &staticStore{rows: []database.CycleSettings{
		{UserID: "bad-date", LastPeriodStart: "yesterday", CycleLength: 28, MensesLength: 5},
		{UserID: "bad-lengths", LastPeriodStart: "2025-01-01", CycleLength: 10, MensesLength: 10},
	}}
	s := NewScheduler(store, loadCatalog(t), queue.NewInlineEnqueuer(&recordingDeliverer{}, nil, quietLogger()), nil, quietLogger())

	stats, err := s.RunDaily(context.Background(), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("RunDaily() error = %v", err)
	}
	if stats.Checked != 0 || stats.Skipped != 2 {
		t.Errorf("stats = %+v, want 2 skipped", stats)
	}
}

func TestRunDaily_StoreError(t *testing.T) {
	boom := errors.New("disk gone")
	s := NewScheduler(&staticStore{err: boom}, loadCatalog(t), nil, nil, quietLogger())

	if _, err := s.RunDaily(context.Background(), time.Now()); !errors.Is(err, boom) {
		t.Errorf("RunDaily() error = %v, want %v", err, boom)
	}
}

func TestScheduler_StartRejectsBadSpec(t *testing.T) {
	s := NewScheduler(&staticStore{}, loadCatalog(t), nil, nil, quietLogger())

	if err := s.Start("whenever"); err == nil {
		t.Error("Start() error = nil for invalid spec")
	}
	// Stop without a running cron must not block.
	s.Stop(context.Background())
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(&staticStore{}, loadCatalog(t), nil, nil, quietLogger())

	if err := s.Start("0 8 * * *"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
