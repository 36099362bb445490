package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zapponejosh/wellness-api/internal/cycle"
	"github.com/zapponejosh/wellness-api/internal/database"
)

// Export is a dump of the web client's localStorage keys.
type Export struct {
	UserID       string          `json:"user_id"`
	LastDate     string          `json:"period_lastDate"`
	CycleLength  looseInt        `json:"period_cycle"`
	MensesLength looseInt        `json:"period_mensesLength"`
	Symptoms     []ExportSymptom `json:"period_symptoms"`
}

// ExportSymptom is one entry of period_symptoms. The client writes dates
// with Date.toDateString ("Mon Jan 15 2024").
type ExportSymptom struct {
	Date   string   `json:"date"`
	Mood   string   `json:"mood"`
	Pain   looseInt `json:"pain"`
	Energy looseInt `json:"energy"`
	Phase  string   `json:"phase"`
}

// looseInt accepts a JSON number or a numeric string; localStorage keeps
// everything as strings. Empty or non-numeric strings decode to zero.
type looseInt int

func (n *looseInt) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = 0
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var i int
		if err := json.Unmarshal(b, &i); err != nil {
			return fmt.Errorf("expected number or numeric string, got %s", b)
		}
		*n = looseInt(i)
		return nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		*n = 0
		return nil
	}
	*n = looseInt(i)
	return nil
}

var symptomDateLayouts = []string{
	cycle.DateLayout,
	"Mon Jan 02 2006",
	"Mon Jan 2 2006",
}

func parseSymptomDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range symptomDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Settings returns the stored settings for the export. Missing lengths
// fall back to the defaults the client uses.
func (e Export) Settings(userID string) (*database.CycleSettings, error) {
	start, err := cycle.ParseDate(strings.TrimSpace(e.LastDate))
	if err != nil {
		return nil, fmt.Errorf("period_lastDate: %w", err)
	}

	s := cycle.Settings{
		LastPeriodStart: start,
		CycleLength:     int(e.CycleLength),
		MensesLength:    int(e.MensesLength),
	}
	if s.CycleLength == 0 {
		s.CycleLength = cycle.DefaultCycleLength
	}
	if s.MensesLength == 0 {
		s.MensesLength = cycle.DefaultMensesLength
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	return database.SettingsFromEngine(userID, s), nil
}

// SymptomLogs converts the export's symptoms, oldest first. Entries with
// unreadable dates are skipped and counted. A missing or unknown phase is
// recomputed from settings when settings are available.
func (e Export) SymptomLogs(userID string, settings *cycle.Settings) (logs []database.SymptomLog, skipped int) {
	for i := len(e.Symptoms) - 1; i >= 0; i-- {
		in := e.Symptoms[i]

		date, err := parseSymptomDate(in.Date)
		if err != nil {
			skipped++
			continue
		}

		entry := database.SymptomLog{
			UserID: userID,
			Date:   cycle.FormatDate(date),
			Mood:   strings.TrimSpace(in.Mood),
			Pain:   clamp(int(in.Pain), 0, 10),
			Energy: clamp(int(in.Energy), 0, 10),
			Phase:  in.Phase,
		}
		if entry.Mood == "" {
			entry.Mood = "ok"
		}
		if !cycle.PhaseKind(entry.Phase).IsValid() {
			entry.Phase = ""
			if settings != nil {
				if c, err := cycle.Compute(*settings, date); err == nil {
					entry.Phase = string(c.Phase.Kind)
				}
			}
		}
		logs = append(logs, entry)
	}
	return logs, skipped
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
