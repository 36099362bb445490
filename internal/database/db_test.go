package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/zapponejosh/wellness-api/internal/cycle"
)

// testDB creates a temporary in-memory database for testing.
func testDB(t *testing.T) *DB {
	t.Helper()

	cfg := Config{
		Path:            ":memory:",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
	}

	// Quiet logger for tests
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))

	db, err := Open(cfg, logger)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	ctx := context.Background()
	if _, err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// -----------------------------------------------------------------
// DB tests
// -----------------------------------------------------------------

func TestOpen(t *testing.T) {
	db := testDB(t)

	if err := db.Health(context.Background()); err != nil {
		t.Errorf("Health() error = %v", err)
	}
}

func TestMigrate(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	// Running again should be a no-op
	count, err := db.Migrate(ctx)
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Migrate() count = %d, want 0 (already applied)", count)
	}
}

// -----------------------------------------------------------------
// Cycle settings tests
// -----------------------------------------------------------------

func TestGetCycleSettings_NotFound(t *testing.T) {
	db := testDB(t)

	_, err := db.GetCycleSettings(context.Background(), "nobody")
	if !IsNotFound(err) {
		t.Errorf("GetCycleSettings() error = %v, want ErrNotFound", err)
	}
}

func TestUpsertCycleSettings(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	s := &CycleSettings{UserID: "u1", LastPeriodStart: "2025-01-01", CycleLength: 28, MensesLength: 5}
	if err := db.UpsertCycleSettings(ctx, s); err != nil {
		t.Fatalf("UpsertCycleSettings() error = %v", err)
	}

	s.LastPeriodStart = "2025-01-29"
	s.CycleLength = 30
	if err := db.UpsertCycleSettings(ctx, s); err != nil {
		t.Fatalf("UpsertCycleSettings() second call error = %v", err)
	}

	got, err := db.GetCycleSettings(ctx, "u1")
	if err != nil {
		t.Fatalf("GetCycleSettings() error = %v", err)
	}
	if got.LastPeriodStart != "2025-01-29" || got.CycleLength != 30 || got.MensesLength != 5 {
		t.Errorf("GetCycleSettings() = %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not parsed")
	}

	all, err := db.ListCycleSettings(ctx)
	if err != nil {
		t.Fatalf("ListCycleSettings() error = %v", err)
	}
	if len(all) != 1 {
		t.Errorf("ListCycleSettings() len = %d, want 1", len(all))
	}
}

func TestUpsertCycleSettings_RejectsOutOfRange(t *testing.T) {
	db := testDB(t)

	s := &CycleSettings{UserID: "u1", LastPeriodStart: "2025-01-01", CycleLength: 25, MensesLength: 25}
	if err := db.UpsertCycleSettings(context.Background(), s); err == nil {
		t.Error("UpsertCycleSettings() error = nil, want CHECK failure")
	}
}

func TestCycleSettings_Engine(t *testing.T) {
	s := CycleSettings{LastPeriodStart: "2025-03-10", CycleLength: 30, MensesLength: 4}
	es, err := s.Engine()
	if err != nil {
		t.Fatalf("Engine() error = %v", err)
	}
	if cycle.FormatDate(es.LastPeriodStart) != "2025-03-10" || es.CycleLength != 30 {
		t.Errorf("Engine() = %+v", es)
	}

	s.LastPeriodStart = "garbage"
	if _, err := s.Engine(); !errors.Is(err, cycle.ErrInvalidSettings) {
		t.Errorf("Engine() error = %v, want ErrInvalidSettings", err)
	}
}

// -----------------------------------------------------------------
// Symptom log tests
// -----------------------------------------------------------------

func TestAddSymptomLog(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	entry := &SymptomLog{UserID: "u1", Date: "2025-01-02", Mood: "ok", Pain: 3, Energy: 6, Phase: "menstruation"}
	if err := db.AddSymptomLog(ctx, entry); err != nil {
		t.Fatalf("AddSymptomLog() error = %v", err)
	}
	if entry.ID == 0 {
		t.Error("AddSymptomLog() did not set ID")
	}

	logs, err := db.ListSymptomLogs(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("ListSymptomLogs() error = %v", err)
	}
	if len(logs) != 1 || logs[0].Mood != "ok" || logs[0].Pain != 3 || logs[0].Phase != "menstruation" {
		t.Errorf("ListSymptomLogs() = %+v", logs)
	}

	other, err := db.ListSymptomLogs(ctx, "u2", 10)
	if err != nil {
		t.Fatalf("ListSymptomLogs() error = %v", err)
	}
	if len(other) != 0 {
		t.Errorf("other user sees %d logs", len(other))
	}
}

func TestAddSymptomLog_KeepsNewest(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	total := MaxSymptomLogs + 5
	for i := 0; i < total; i++ {
		entry := &SymptomLog{UserID: "u1", Date: "2025-01-01", Mood: fmt.Sprintf("m%d", i), Energy: 5}
		if err := db.AddSymptomLog(ctx, entry); err != nil {
			t.Fatalf("AddSymptomLog(%d) error = %v", i, err)
		}
	}
	// A second user must not be pruned by the first
	if err := db.AddSymptomLog(ctx, &SymptomLog{UserID: "u2", Date: "2025-01-01", Energy: 5}); err != nil {
		t.Fatalf("AddSymptomLog(u2) error = %v", err)
	}

	logs, err := db.ListSymptomLogs(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("ListSymptomLogs() error = %v", err)
	}
	if len(logs) != MaxSymptomLogs {
		t.Fatalf("kept %d logs, want %d", len(logs), MaxSymptomLogs)
	}
	if logs[0].Mood != fmt.Sprintf("m%d", total-1) {
		t.Errorf("newest = %q, want m%d", logs[0].Mood, total-1)
	}
	if logs[len(logs)-1].Mood != "m5" {
		t.Errorf("oldest kept = %q, want m5", logs[len(logs)-1].Mood)
	}

	u2, _ := db.ListSymptomLogs(ctx, "u2", 0)
	if len(u2) != 1 {
		t.Errorf("u2 logs = %d, want 1", len(u2))
	}
}

// -----------------------------------------------------------------
// Reminder tests
// -----------------------------------------------------------------

func TestAddMotivationalReminder_Streak(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if streak, err := db.GetReminderStreak(ctx, "u1"); err != nil || streak != 0 {
		t.Fatalf("GetReminderStreak() = %d, %v; want 0, nil", streak, err)
	}

	for i := 1; i <= 3; i++ {
		r := &MotivationalReminder{UserID: "u1", Mood: "happy", Text: fmt.Sprintf("text %d", i)}
		streak, err := db.AddMotivationalReminder(ctx, r)
		if err != nil {
			t.Fatalf("AddMotivationalReminder() error = %v", err)
		}
		if streak != i {
			t.Errorf("streak = %d, want %d", streak, i)
		}
	}

	history, err := db.ListMotivationalReminders(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("ListMotivationalReminders() error = %v", err)
	}
	if len(history) != 2 || history[0].Text != "text 3" {
		t.Errorf("ListMotivationalReminders() = %+v", history)
	}

	if streak, _ := db.GetReminderStreak(ctx, "u1"); streak != 3 {
		t.Errorf("GetReminderStreak() = %d, want 3", streak)
	}
}

// -----------------------------------------------------------------
// Notification tests
// -----------------------------------------------------------------

func TestRecordNotification_Duplicate(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	n := &Notification{UserID: "u1", Kind: NotificationKindPhaseStart, Phase: "ovulation", Message: "hi", Date: "2025-01-13"}
	if err := db.RecordNotification(ctx, n); err != nil {
		t.Fatalf("RecordNotification() error = %v", err)
	}
	if n.ID == 0 {
		t.Error("RecordNotification() did not set ID")
	}

	dup := *n
	dup.ID = 0
	if err := db.RecordNotification(ctx, &dup); !errors.Is(err, ErrDuplicate) {
		t.Errorf("RecordNotification() duplicate error = %v, want ErrDuplicate", err)
	}

	next := *n
	next.Date = "2025-02-10"
	if err := db.RecordNotification(ctx, &next); err != nil {
		t.Errorf("RecordNotification() next day error = %v", err)
	}
}

func TestMarkNotificationDelivered(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	n := &Notification{UserID: "u1", Kind: NotificationKindPhaseStart, Phase: "luteal", Message: "rest", Date: "2025-01-18"}
	if err := db.RecordNotification(ctx, n); err != nil {
		t.Fatalf("RecordNotification() error = %v", err)
	}

	at := time.Date(2025, 1, 18, 8, 0, 0, 0, time.UTC)
	if err := db.MarkNotificationDelivered(ctx, n.ID, at); err != nil {
		t.Fatalf("MarkNotificationDelivered() error = %v", err)
	}

	list, err := db.ListNotifications(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("ListNotifications() error = %v", err)
	}
	if len(list) != 1 || list[0].DeliveredAt == nil || !list[0].DeliveredAt.Equal(at) {
		t.Errorf("ListNotifications() = %+v", list)
	}

	if err := db.MarkNotificationDelivered(ctx, 9999, at); !IsNotFound(err) {
		t.Errorf("MarkNotificationDelivered(missing) error = %v, want ErrNotFound", err)
	}
}

func TestDeleteNotification_AllowsRerecord(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	n := &Notification{UserID: "u1", Kind: NotificationKindPhaseStart, Phase: "follicular", Message: "bloom", Date: "2025-01-06"}
	if err := db.RecordNotification(ctx, n); err != nil {
		t.Fatalf("RecordNotification() error = %v", err)
	}
	if err := db.DeleteNotification(ctx, n.ID); err != nil {
		t.Fatalf("DeleteNotification() error = %v", err)
	}

	again := *n
	again.ID = 0
	if err := db.RecordNotification(ctx, &again); err != nil {
		t.Errorf("RecordNotification() after delete error = %v", err)
	}

	if err := db.DeleteNotification(ctx, 9999); !IsNotFound(err) {
		t.Errorf("DeleteNotification(missing) error = %v, want ErrNotFound", err)
	}
}

func TestWithTx_RollsBack(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	wantErr := errors.New("boom")
	err := db.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO cycle_settings (user_id, last_period_start, cycle_length, menses_length) VALUES ('tx', '2025-01-01', 28, 5)",
		); err != nil {
			return err
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("WithTx() error = %v, want %v", err, wantErr)
	}

	if _, err := db.GetCycleSettings(ctx, "tx"); !IsNotFound(err) {
		t.Errorf("row survived rollback: %v", err)
	}
}

// -----------------------------------------------------------------
// Fitness log tests
// -----------------------------------------------------------------

func TestUpsertFitnessLog(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	steps, water := 8000, 2.5
	entry := &FitnessLog{
		UserID:   "u1",
		Date:     "2025-01-06",
		Steps:    &steps,
		Water:    &water,
		Mood:     "😊",
		Workouts: Workouts{Fixed: []string{"Morning Yoga"}},
	}
	if err := db.UpsertFitnessLog(ctx, entry); err != nil {
		t.Fatalf("UpsertFitnessLog() error = %v", err)
	}

	got, err := db.GetFitnessLog(ctx, "u1", "2025-01-06")
	if err != nil {
		t.Fatalf("GetFitnessLog() error = %v", err)
	}
	if got.Steps == nil || *got.Steps != 8000 || got.Water == nil || *got.Water != 2.5 {
		t.Errorf("GetFitnessLog() = %+v", got)
	}
	if got.Sleep != nil || got.Calories != nil {
		t.Errorf("unset measurements not nil: sleep=%v calories=%v", got.Sleep, got.Calories)
	}
	if len(got.Workouts.Fixed) != 1 || got.Workouts.Custom == nil {
		t.Errorf("Workouts = %+v, want one fixed and an empty custom list", got.Workouts)
	}

	// Same day again replaces the entry
	sleep := 7.5
	entry.Steps = nil
	entry.Sleep = &sleep
	entry.Workouts = Workouts{Custom: []string{"Swim"}}
	if err := db.UpsertFitnessLog(ctx, entry); err != nil {
		t.Fatalf("UpsertFitnessLog() second call error = %v", err)
	}
	got, _ = db.GetFitnessLog(ctx, "u1", "2025-01-06")
	if got.Steps != nil || got.Sleep == nil || *got.Sleep != 7.5 || len(got.Workouts.Custom) != 1 {
		t.Errorf("after replace = %+v", got)
	}

	if _, err := db.GetFitnessLog(ctx, "u1", "2025-01-07"); !IsNotFound(err) {
		t.Errorf("GetFitnessLog(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := db.GetFitnessLog(ctx, "u2", "2025-01-06"); !IsNotFound(err) {
		t.Errorf("GetFitnessLog(other user) error = %v, want ErrNotFound", err)
	}
}

func TestListFitnessLogs_Range(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for _, d := range []string{"2025-01-08", "2025-01-01", "2025-01-05", "2025-01-12"} {
		if err := db.UpsertFitnessLog(ctx, &FitnessLog{UserID: "u1", Date: d}); err != nil {
			t.Fatalf("UpsertFitnessLog(%s) error = %v", d, err)
		}
	}

	logs, err := db.ListFitnessLogs(ctx, "u1", "2025-01-05", "2025-01-11")
	if err != nil {
		t.Fatalf("ListFitnessLogs() error = %v", err)
	}
	if len(logs) != 2 || logs[0].Date != "2025-01-05" || logs[1].Date != "2025-01-08" {
		t.Errorf("ListFitnessLogs() = %+v", logs)
	}
}

func TestUpsertFitnessLog_RejectsImpossibleSleep(t *testing.T) {
	db := testDB(t)

	sleep := 30.0
	err := db.UpsertFitnessLog(context.Background(), &FitnessLog{UserID: "u1", Date: "2025-01-01", Sleep: &sleep})
	if err == nil {
		t.Error("UpsertFitnessLog() error = nil, want CHECK failure")
	}
}

// -----------------------------------------------------------------
// Mental health log tests
// -----------------------------------------------------------------

func TestMentalHealthLogs(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	entries := []MentalHealthLog{
		{UserID: "u1", Mood: "😟"},
		{UserID: "u1", Mood: "😟", StressLevel: "High"},
		{UserID: "u1", Mood: "😊", StressLevel: "Low", EnergyLevel: "💃"},
		{UserID: "u2", Mood: "😭"},
	}
	for i := range entries {
		if err := db.AddMentalHealthLog(ctx, &entries[i]); err != nil {
			t.Fatalf("AddMentalHealthLog(%d) error = %v", i, err)
		}
		if entries[i].ID == 0 {
			t.Errorf("AddMentalHealthLog(%d) did not set ID", i)
		}
	}

	logs, err := db.ListMentalHealthLogs(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("ListMentalHealthLogs() error = %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("ListMentalHealthLogs() len = %d, want 2", len(logs))
	}
	// Most recent two, oldest first
	if logs[0].StressLevel != "High" || logs[1].EnergyLevel != "💃" {
		t.Errorf("ListMentalHealthLogs() = %+v", logs)
	}
	if logs[0].CreatedAt.IsZero() {
		t.Error("CreatedAt not parsed")
	}
}
