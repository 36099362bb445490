package database

import (
	"fmt"
	"time"

	"github.com/zapponejosh/wellness-api/internal/cycle"
)

// CycleSettings is the stored form of a user's cycle configuration.
type CycleSettings struct {
	UserID          string    `json:"-"`
	LastPeriodStart string    `json:"last_period_start"` // YYYY-MM-DD
	CycleLength     int       `json:"cycle_length"`
	MensesLength    int       `json:"menses_length"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Engine converts the stored row into engine settings.
func (s CycleSettings) Engine() (cycle.Settings, error) {
	start, err := cycle.ParseDate(s.LastPeriodStart)
	if err != nil {
		return cycle.Settings{}, fmt.Errorf("%w: %v", cycle.ErrInvalidSettings, err)
	}
	return cycle.Settings{
		LastPeriodStart: start,
		CycleLength:     s.CycleLength,
		MensesLength:    s.MensesLength,
	}, nil
}

// SettingsFromEngine builds the stored form of engine settings for userID.
func SettingsFromEngine(userID string, s cycle.Settings) *CycleSettings {
	return &CycleSettings{
		UserID:          userID,
		LastPeriodStart: cycle.FormatDate(s.LastPeriodStart),
		CycleLength:     s.CycleLength,
		MensesLength:    s.MensesLength,
	}
}

// MaxSymptomLogs is how many symptom logs are kept per user. Older entries
// are pruned when a new one is added.
const MaxSymptomLogs = 90

// SymptomLog is one day's self-reported symptoms.
type SymptomLog struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"-"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Mood      string    `json:"mood"`
	Pain      int       `json:"pain"`
	Energy    int       `json:"energy"`
	Phase     string    `json:"phase"` // empty if no settings at log time
	CreatedAt time.Time `json:"created_at"`
}

// MotivationalReminder is one generated reminder in a user's history.
type MotivationalReminder struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"-"`
	Mood      string    `json:"mood"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationKindPhaseStart marks a reminder sent on the first day of a phase.
const NotificationKindPhaseStart = "phase_start"

// Notification is a reminder produced by the daily scheduler.
type Notification struct {
	ID          int64      `json:"id"`
	UserID      string     `json:"-"`
	Kind        string     `json:"kind"`
	Phase       string     `json:"phase"`
	Message     string     `json:"message"`
	Date        string     `json:"date"` // YYYY-MM-DD
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Workouts lists the workouts done on a day: picks from the fixed list and
// free-text entries.
type Workouts struct {
	Fixed  []string `json:"fixed"`
	Custom []string `json:"custom"`
}

// FitnessLog is one user's fitness entry for one day. Nil measurements
// were not entered.
type FitnessLog struct {
	UserID    string    `json:"-"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Steps     *int      `json:"steps"`
	Water     *float64  `json:"water"` // litres
	Sleep     *float64  `json:"sleep"` // hours
	Calories  *int      `json:"calories"`
	Mood      string    `json:"mood"`
	Workouts  Workouts  `json:"workouts"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MentalHealthLog is one check-in. Fields the user did not touch are empty.
type MentalHealthLog struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"-"`
	Mood        string    `json:"mood"`
	StressLevel string    `json:"stress_level"`
	EnergyLevel string    `json:"energy_level"`
	CreatedAt   time.Time `json:"created_at"`
}
