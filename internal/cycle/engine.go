package cycle

import "time"

// Window is an inclusive range of calendar dates.
type Window struct {
	Start time.Time
	End   time.Time
}

// Computation is the derived state of a cycle for one reference date.
// It is never stored; recompute it from Settings whenever it is needed.
type Computation struct {
	// DaysSince is the signed number of calendar days from the last period
	// start to the reference date.
	DaysSince int

	// TodayOffset is the zero-based day within the current cycle,
	// always in [0, CycleLength).
	TodayOffset int

	// CycleDay is TodayOffset + 1, the way people count cycle days.
	CycleDay int

	// Phase is the phase containing TodayOffset.
	Phase Phase

	// Phases lists all four phases in cycle order.
	Phases []Phase

	// NextPeriod is LastPeriodStart + CycleLength days.
	//
	// This is the first boundary after the stored start date and does not
	// roll forward when several cycles have passed without the start date
	// being updated.
	NextPeriod time.Time

	// Ovulation is the predicted ovulation window, measured from
	// LastPeriodStart. Like NextPeriod it does not roll forward.
	Ovulation Window
}

// Compute derives the cycle state of settings on the calendar date of today.
//
// Invalid settings fail with an error wrapping ErrInvalidSettings before any
// computation happens.
func Compute(s Settings, today time.Time) (Computation, error) {
	if err := s.Validate(); err != nil {
		return Computation{}, err
	}

	b := boundariesFor(s.CycleLength, s.MensesLength)

	daysSince := DaysBetween(s.LastPeriodStart, today)
	offset := normalizeOffset(daysSince, s.CycleLength)

	return Computation{
		DaysSince:   daysSince,
		TodayOffset: offset,
		CycleDay:    offset + 1,
		Phase:       b.phase(b.classify(offset)),
		Phases:      b.phases(),
		NextPeriod:  AddDays(s.LastPeriodStart, s.CycleLength),
		Ovulation: Window{
			Start: AddDays(s.LastPeriodStart, b.ovulationStart),
			End:   AddDays(s.LastPeriodStart, b.ovulationEnd),
		},
	}, nil
}

// ComputeNow is Compute with the current local date.
func ComputeNow(s Settings) (Computation, error) {
	return Compute(s, time.Now())
}

// RingDay is one cell of the full-cycle visualization.
type RingDay struct {
	Offset  int       `json:"offset"`
	Day     int       `json:"day"`
	Phase   PhaseKind `json:"phase"`
	IsToday bool      `json:"is_today"`
}

// Ring returns one cell per day of the cycle, classified with
// PhaseForOffset. The cell marked IsToday always carries the same phase as
// Compute reports for today.
func Ring(s Settings, today time.Time) ([]RingDay, error) {
	c, err := Compute(s, today)
	if err != nil {
		return nil, err
	}

	days := make([]RingDay, s.CycleLength)
	for i := range days {
		p, err := PhaseForOffset(i, s.CycleLength, s.MensesLength)
		if err != nil {
			return nil, err
		}
		days[i] = RingDay{
			Offset:  i,
			Day:     i + 1,
			Phase:   p.Kind,
			IsToday: i == c.TodayOffset,
		}
	}
	return days, nil
}
