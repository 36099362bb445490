package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// parseTimestamp parses a timestamp from SQLite TEXT format.
// Tries multiple formats and returns nil if parsing fails.
func parseTimestamp(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}

	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05.999999",
	} {
		if t, err := time.Parse(layout, ns.String); err == nil {
			return &t
		}
	}
	return nil
}

func setTime(dst *time.Time, ns sql.NullString) {
	if t := parseTimestamp(ns); t != nil {
		*dst = *t
	}
}

// clampLimit keeps list sizes inside [1, max].
func clampLimit(limit, max int) int {
	if limit <= 0 || limit > max {
		return max
	}
	return limit
}

// =============================================================================
// Cycle Settings
// =============================================================================

// GetCycleSettings returns the stored settings for a user.
// Returns ErrNotFound if the user has never saved settings.
func (db *DB) GetCycleSettings(ctx context.Context, userID string) (*CycleSettings, error) {
	query := `
		SELECT user_id, last_period_start, cycle_length, menses_length,
			created_at, updated_at
		FROM cycle_settings
		WHERE user_id = ?
	`

	var s CycleSettings
	var createdAt, updatedAt sql.NullString

	err := db.QueryRowContext(ctx, query, userID).Scan(
		&s.UserID,
		&s.LastPeriodStart,
		&s.CycleLength,
		&s.MensesLength,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query cycle settings: %w", err)
	}

	setTime(&s.CreatedAt, createdAt)
	setTime(&s.UpdatedAt, updatedAt)

	return &s, nil
}

// UpsertCycleSettings creates the user's settings or replaces them.
func (db *DB) UpsertCycleSettings(ctx context.Context, s *CycleSettings) error {
	query := `
		INSERT INTO cycle_settings (
			user_id, last_period_start, cycle_length, menses_length, updated_at
		) VALUES (?, ?, ?, ?, datetime('now'))
		ON CONFLICT(user_id) DO UPDATE SET
			last_period_start = excluded.last_period_start,
			cycle_length = excluded.cycle_length,
			menses_length = excluded.menses_length,
			updated_at = datetime('now')
	`

	_, err := db.ExecContext(ctx, query,
		s.UserID,
		s.LastPeriodStart,
		s.CycleLength,
		s.MensesLength,
	)
	if err != nil {
		return fmt.Errorf("upsert cycle settings: %w", err)
	}

	return nil
}

// ListCycleSettings returns every user's settings, ordered by user id.
// Used by the daily reminder job.
func (db *DB) ListCycleSettings(ctx context.Context) ([]CycleSettings, error) {
	query := `
		SELECT user_id, last_period_start, cycle_length, menses_length,
			created_at, updated_at
		FROM cycle_settings
		ORDER BY user_id
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query cycle settings: %w", err)
	}
	defer rows.Close()

	var out []CycleSettings
	for rows.Next() {
		var s CycleSettings
		var createdAt, updatedAt sql.NullString
		if err := rows.Scan(
			&s.UserID,
			&s.LastPeriodStart,
			&s.CycleLength,
			&s.MensesLength,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cycle settings row: %w", err)
		}
		setTime(&s.CreatedAt, createdAt)
		setTime(&s.UpdatedAt, updatedAt)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cycle settings rows: %w", err)
	}

	return out, nil
}

// =============================================================================
// Symptom Logs
// =============================================================================

// AddSymptomLog stores a log entry and prunes the user's history down to
// MaxSymptomLogs entries. The entry's ID is set on success.
func (db *DB) AddSymptomLog(ctx context.Context, entry *SymptomLog) error {
	return db.WithTx(ctx, func(tx *Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO symptom_logs (user_id, log_date, mood, pain, energy, phase)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			entry.UserID,
			entry.Date,
			entry.Mood,
			entry.Pain,
			entry.Energy,
			entry.Phase,
		)
		if err != nil {
			return fmt.Errorf("insert symptom log: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("get symptom log id: %w", err)
		}
		entry.ID = id

		_, err = tx.ExecContext(ctx, `
			DELETE FROM symptom_logs
			WHERE user_id = ? AND id NOT IN (
				SELECT id FROM symptom_logs
				WHERE user_id = ?
				ORDER BY id DESC
				LIMIT ?
			)
		`, entry.UserID, entry.UserID, MaxSymptomLogs)
		if err != nil {
			return fmt.Errorf("prune symptom logs: %w", err)
		}

		return nil
	})
}

// ListSymptomLogs returns a user's logs, newest first. limit is capped at
// MaxSymptomLogs.
func (db *DB) ListSymptomLogs(ctx context.Context, userID string, limit int) ([]SymptomLog, error) {
	query := `
		SELECT id, user_id, log_date, mood, pain, energy, phase, created_at
		FROM symptom_logs
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(ctx, query, userID, clampLimit(limit, MaxSymptomLogs))
	if err != nil {
		return nil, fmt.Errorf("query symptom logs: %w", err)
	}
	defer rows.Close()

	logs := []SymptomLog{}
	for rows.Next() {
		var l SymptomLog
		var createdAt sql.NullString
		if err := rows.Scan(
			&l.ID,
			&l.UserID,
			&l.Date,
			&l.Mood,
			&l.Pain,
			&l.Energy,
			&l.Phase,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan symptom log row: %w", err)
		}
		setTime(&l.CreatedAt, createdAt)
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate symptom log rows: %w", err)
	}

	return logs, nil
}

// =============================================================================
// Motivational Reminders
// =============================================================================

// maxReminderHistory bounds the reminder history returned to clients.
const maxReminderHistory = 50

// AddMotivationalReminder stores a generated reminder and bumps the user's
// streak. It returns the new streak count.
func (db *DB) AddMotivationalReminder(ctx context.Context, r *MotivationalReminder) (int, error) {
	var streak int

	err := db.WithTx(ctx, func(tx *Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO motivational_reminders (user_id, mood, text)
			VALUES (?, ?, ?)
		`, r.UserID, r.Mood, r.Text)
		if err != nil {
			return fmt.Errorf("insert motivational reminder: %w", err)
		}

		if r.ID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("get motivational reminder id: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO reminder_streaks (user_id, count, updated_at)
			VALUES (?, 1, datetime('now'))
			ON CONFLICT(user_id) DO UPDATE SET
				count = count + 1,
				updated_at = datetime('now')
		`, r.UserID)
		if err != nil {
			return fmt.Errorf("bump reminder streak: %w", err)
		}

		err = tx.QueryRowContext(ctx,
			"SELECT count FROM reminder_streaks WHERE user_id = ?", r.UserID,
		).Scan(&streak)
		if err != nil {
			return fmt.Errorf("read reminder streak: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return streak, nil
}

// GetReminderStreak returns the number of reminders a user has generated.
// Users with no reminders have a streak of zero.
func (db *DB) GetReminderStreak(ctx context.Context, userID string) (int, error) {
	var streak int
	err := db.QueryRowContext(ctx,
		"SELECT count FROM reminder_streaks WHERE user_id = ?", userID,
	).Scan(&streak)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query reminder streak: %w", err)
	}
	return streak, nil
}

// ListMotivationalReminders returns a user's reminder history, newest first.
func (db *DB) ListMotivationalReminders(ctx context.Context, userID string, limit int) ([]MotivationalReminder, error) {
	query := `
		SELECT id, user_id, mood, text, created_at
		FROM motivational_reminders
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(ctx, query, userID, clampLimit(limit, maxReminderHistory))
	if err != nil {
		return nil, fmt.Errorf("query motivational reminders: %w", err)
	}
	defer rows.Close()

	out := []MotivationalReminder{}
	for rows.Next() {
		var r MotivationalReminder
		var createdAt sql.NullString
		if err := rows.Scan(&r.ID, &r.UserID, &r.Mood, &r.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("scan motivational reminder row: %w", err)
		}
		setTime(&r.CreatedAt, createdAt)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate motivational reminder rows: %w", err)
	}

	return out, nil
}

// =============================================================================
// Notifications
// =============================================================================

// maxNotifications bounds the notification list returned to clients.
const maxNotifications = 100

// RecordNotification stores a notification and sets its ID.
// Returns ErrDuplicate if the same notification was already recorded for
// that user, kind, phase and date.
func (db *DB) RecordNotification(ctx context.Context, n *Notification) error {
	result, err := db.ExecContext(ctx, `
		INSERT INTO notifications (user_id, kind, phase, message, notify_date)
		VALUES (?, ?, ?, ?, ?)
	`, n.UserID, n.Kind, n.Phase, n.Message, n.Date)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert notification: %w", err)
	}

	if n.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("get notification id: %w", err)
	}

	return nil
}

// MarkNotificationDelivered records when a notification left the queue.
// Returns ErrNotFound if id doesn't exist.
func (db *DB) MarkNotificationDelivered(ctx context.Context, id int64, at time.Time) error {
	result, err := db.ExecContext(ctx,
		"UPDATE notifications SET delivered_at = ? WHERE id = ?",
		at.UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("mark notification delivered: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteNotification removes a notification that was never handed off,
// so a later run can record it again.
// Returns ErrNotFound if id doesn't exist.
func (db *DB) DeleteNotification(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, "DELETE FROM notifications WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// ListNotifications returns a user's notifications, newest first.
func (db *DB) ListNotifications(ctx context.Context, userID string, limit int) ([]Notification, error) {
	query := `
		SELECT id, user_id, kind, phase, message, notify_date, delivered_at, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(ctx, query, userID, clampLimit(limit, maxNotifications))
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	out := []Notification{}
	for rows.Next() {
		var n Notification
		var deliveredAt, createdAt sql.NullString
		if err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.Kind,
			&n.Phase,
			&n.Message,
			&n.Date,
			&deliveredAt,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan notification row: %w", err)
		}
		n.DeliveredAt = parseTimestamp(deliveredAt)
		setTime(&n.CreatedAt, createdAt)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notification rows: %w", err)
	}

	return out, nil
}

// =============================================================================
// Fitness Logs
// =============================================================================

// MaxFitnessRange bounds how many days ListFitnessLogs may span.
const MaxFitnessRange = 366

// UpsertFitnessLog creates or replaces a user's entry for entry.Date.
func (db *DB) UpsertFitnessLog(ctx context.Context, entry *FitnessLog) error {
	workouts := entry.Workouts
	if workouts.Fixed == nil {
		workouts.Fixed = []string{}
	}
	if workouts.Custom == nil {
		workouts.Custom = []string{}
	}
	encoded, err := json.Marshal(workouts)
	if err != nil {
		return fmt.Errorf("encode workouts: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO fitness_logs (user_id, log_date, steps, water, sleep, calories, mood, workouts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, log_date) DO UPDATE SET
			steps = excluded.steps,
			water = excluded.water,
			sleep = excluded.sleep,
			calories = excluded.calories,
			mood = excluded.mood,
			workouts = excluded.workouts,
			updated_at = datetime('now')
	`,
		entry.UserID,
		entry.Date,
		entry.Steps,
		entry.Water,
		entry.Sleep,
		entry.Calories,
		entry.Mood,
		string(encoded),
	)
	if err != nil {
		return fmt.Errorf("upsert fitness log: %w", err)
	}
	return nil
}

const fitnessColumns = `
	user_id, log_date, steps, water, sleep, calories, mood, workouts,
	created_at, updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFitnessLog(row rowScanner) (*FitnessLog, error) {
	var (
		l                    FitnessLog
		steps, calories      sql.NullInt64
		water, sleep         sql.NullFloat64
		workouts             string
		createdAt, updatedAt sql.NullString
	)
	if err := row.Scan(
		&l.UserID,
		&l.Date,
		&steps,
		&water,
		&sleep,
		&calories,
		&l.Mood,
		&workouts,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	if steps.Valid {
		n := int(steps.Int64)
		l.Steps = &n
	}
	if calories.Valid {
		n := int(calories.Int64)
		l.Calories = &n
	}
	if water.Valid {
		l.Water = &water.Float64
	}
	if sleep.Valid {
		l.Sleep = &sleep.Float64
	}
	if err := json.Unmarshal([]byte(workouts), &l.Workouts); err != nil {
		return nil, fmt.Errorf("decode workouts: %w", err)
	}
	setTime(&l.CreatedAt, createdAt)
	setTime(&l.UpdatedAt, updatedAt)
	return &l, nil
}

// GetFitnessLog returns a user's entry for date (YYYY-MM-DD).
// Returns ErrNotFound if nothing was logged that day.
func (db *DB) GetFitnessLog(ctx context.Context, userID, date string) (*FitnessLog, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+fitnessColumns+" FROM fitness_logs WHERE user_id = ? AND log_date = ?",
		userID, date,
	)

	l, err := scanFitnessLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get fitness log: %w", err)
	}
	return l, nil
}

// ListFitnessLogs returns a user's entries dated from..to inclusive, oldest
// first. Days without an entry are absent.
func (db *DB) ListFitnessLogs(ctx context.Context, userID, from, to string) ([]FitnessLog, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+fitnessColumns+` FROM fitness_logs
		WHERE user_id = ? AND log_date BETWEEN ? AND ?
		ORDER BY log_date ASC`,
		userID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("query fitness logs: %w", err)
	}
	defer rows.Close()

	out := []FitnessLog{}
	for rows.Next() {
		l, err := scanFitnessLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fitness log row: %w", err)
		}
		out = append(out, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fitness log rows: %w", err)
	}

	return out, nil
}

// =============================================================================
// Mental Health Logs
// =============================================================================

// maxMentalHealthLogs bounds the check-in list returned to clients.
const maxMentalHealthLogs = 365

// AddMentalHealthLog stores a check-in and sets its ID.
func (db *DB) AddMentalHealthLog(ctx context.Context, entry *MentalHealthLog) error {
	result, err := db.ExecContext(ctx, `
		INSERT INTO mental_health_logs (user_id, mood, stress_level, energy_level)
		VALUES (?, ?, ?, ?)
	`, entry.UserID, entry.Mood, entry.StressLevel, entry.EnergyLevel)
	if err != nil {
		return fmt.Errorf("insert mental health log: %w", err)
	}

	if entry.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("get mental health log id: %w", err)
	}
	return nil
}

// ListMentalHealthLogs returns a user's most recent check-ins, oldest first,
// so they read as a trend.
func (db *DB) ListMentalHealthLogs(ctx context.Context, userID string, limit int) ([]MentalHealthLog, error) {
	query := `
		SELECT id, user_id, mood, stress_level, energy_level, created_at
		FROM (
			SELECT * FROM mental_health_logs
			WHERE user_id = ?
			ORDER BY id DESC
			LIMIT ?
		)
		ORDER BY id ASC
	`

	rows, err := db.QueryContext(ctx, query, userID, clampLimit(limit, maxMentalHealthLogs))
	if err != nil {
		return nil, fmt.Errorf("query mental health logs: %w", err)
	}
	defer rows.Close()

	out := []MentalHealthLog{}
	for rows.Next() {
		var l MentalHealthLog
		var createdAt sql.NullString
		if err := rows.Scan(
			&l.ID,
			&l.UserID,
			&l.Mood,
			&l.StressLevel,
			&l.EnergyLevel,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan mental health log row: %w", err)
		}
		setTime(&l.CreatedAt, createdAt)
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mental health log rows: %w", err)
	}

	return out, nil
}
