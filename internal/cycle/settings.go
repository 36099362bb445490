package cycle

import (
	"errors"
	"fmt"
	"time"
)

// Domain limits for cycle settings.
const (
	MinCycleLength = 21
	MaxCycleLength = 40

	MinMensesLength = 2
	MaxMensesLength = 10

	DefaultCycleLength  = 28
	DefaultMensesLength = 5

	// LutealPhaseDays is the assumed fixed length of the luteal phase.
	// Ovulation is predicted this many days before the next period
	// regardless of cycle length.
	LutealPhaseDays = 14
)

// ErrInvalidSettings is returned when cycle settings are outside their
// domain. Use errors.Is to test for it; the wrapped message says which
// field is wrong.
var ErrInvalidSettings = errors.New("invalid cycle settings")

// Settings is the per-user input to the engine.
type Settings struct {
	LastPeriodStart time.Time // calendar date; time of day is ignored
	CycleLength     int       // days, [21, 40]
	MensesLength    int       // days, [2, 10], strictly less than CycleLength
}

// DefaultSettings returns settings with the default lengths and the given start date.
func DefaultSettings(lastPeriodStart time.Time) Settings {
	return Settings{
		LastPeriodStart: DateOf(lastPeriodStart),
		CycleLength:     DefaultCycleLength,
		MensesLength:    DefaultMensesLength,
	}
}

// Validate reports whether the settings can be used for a computation.
func (s Settings) Validate() error {
	if s.LastPeriodStart.IsZero() {
		return fmt.Errorf("%w: last period start is required", ErrInvalidSettings)
	}
	return validateLengths(s.CycleLength, s.MensesLength)
}

func validateLengths(cycleLength, mensesLength int) error {
	if cycleLength < MinCycleLength || cycleLength > MaxCycleLength {
		return fmt.Errorf("%w: cycle length must be between %d and %d, got %d",
			ErrInvalidSettings, MinCycleLength, MaxCycleLength, cycleLength)
	}
	if mensesLength < MinMensesLength || mensesLength > MaxMensesLength {
		return fmt.Errorf("%w: menses length must be between %d and %d, got %d",
			ErrInvalidSettings, MinMensesLength, MaxMensesLength, mensesLength)
	}
	if mensesLength >= cycleLength {
		return fmt.Errorf("%w: menses length %d must be less than cycle length %d",
			ErrInvalidSettings, mensesLength, cycleLength)
	}
	return nil
}
