package api

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zapponejosh/wellness-api/internal/cycle"
	"github.com/zapponejosh/wellness-api/internal/database"
)

// FixedWorkouts are the workouts offered as checkboxes. Anything else goes
// in the custom list.
var FixedWorkouts = []string{"Morning Yoga", "Cardio Session", "Strength Training", "Evening Walk"}

// StressLevels are the accepted mental health stress values.
var StressLevels = []string{"Low", "Moderate", "High"}

const (
	defaultFitnessMood = "😊"
	defaultFitnessDays = 7
)

// =============================================================================
// FITNESS
// =============================================================================

type workoutsRequest struct {
	Fixed  []string `json:"fixed" validate:"max=4"`
	Custom []string `json:"custom" validate:"max=20,dive,max=64"`
}

type fitnessRequest struct {
	Steps    *int            `json:"steps" validate:"omitnil,min=0,max=200000"`
	Water    *float64        `json:"water" validate:"omitnil,min=0,max=20"`
	Sleep    *float64        `json:"sleep" validate:"omitnil,min=0,max=24"`
	Calories *int            `json:"calories" validate:"omitnil,min=0,max=20000"`
	Mood     string          `json:"mood" validate:"omitempty,oneof=😊 😔 😤 😌 🥰"`
	Workouts workoutsRequest `json:"workouts"`
}

// fitnessDate reads the {date} path parameter.
func fitnessDate(r *http.Request) (string, error) {
	d, err := cycle.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		return "", fmt.Errorf("invalid date: use YYYY-MM-DD")
	}
	return cycle.FormatDate(d), nil
}

// ListFitness handles GET /api/v1/me/fitness
//
// Returns the entries from the last ?days days (default 7) ending today.
func (h *Handlers) ListFitness(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", defaultFitnessDays)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	if days < 1 || days > database.MaxFitnessRange {
		WriteBadRequest(w, fmt.Sprintf("days must be between 1 and %d", database.MaxFitnessRange))
		return
	}

	today, err := h.today(r)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	from, to := cycle.FormatDate(cycle.AddDays(today, -(days-1))), cycle.FormatDate(today)

	logs, err := h.db.ListFitnessLogs(r.Context(), UserID(r), from, to)
	if err != nil {
		h.serverError(w, r, "list fitness logs", err)
		return
	}

	WriteSuccess(w, map[string]any{
		"from":  from,
		"to":    to,
		"logs":  logs,
		"count": len(logs),
	})
}

// GetFitnessWeek handles GET /api/v1/me/fitness/week
//
// Steps per weekday, Sunday through Saturday, for the week containing
// today. Days without an entry count as zero.
func (h *Handlers) GetFitnessWeek(w http.ResponseWriter, r *http.Request) {
	today, err := h.today(r)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	start := cycle.AddDays(today, -int(today.Weekday()))
	end := cycle.AddDays(start, 6)

	logs, err := h.db.ListFitnessLogs(r.Context(), UserID(r), cycle.FormatDate(start), cycle.FormatDate(end))
	if err != nil {
		h.serverError(w, r, "list fitness week", err)
		return
	}

	steps := make(map[string]int, 7)
	for i := range 7 {
		steps[weekdayKey(cycle.AddDays(start, i))] = 0
	}
	total := 0
	for _, l := range logs {
		if l.Steps == nil {
			continue
		}
		d, err := cycle.ParseDate(l.Date)
		if err != nil {
			continue
		}
		steps[weekdayKey(d)] += *l.Steps
		total += *l.Steps
	}

	WriteSuccess(w, map[string]any{
		"week_start":  cycle.FormatDate(start),
		"week_end":    cycle.FormatDate(end),
		"steps":       steps,
		"total_steps": total,
	})
}

// weekdayKey returns "Sun", "Mon", ...
func weekdayKey(d time.Time) string {
	return d.Weekday().String()[:3]
}

// GetFitness handles GET /api/v1/me/fitness/{date}
func (h *Handlers) GetFitness(w http.ResponseWriter, r *http.Request) {
	date, err := fitnessDate(r)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	entry, err := h.db.GetFitnessLog(r.Context(), UserID(r), date)
	if database.IsNotFound(err) {
		WriteNotFound(w, "Nothing logged for "+date)
		return
	}
	if err != nil {
		h.serverError(w, r, "get fitness log", err)
		return
	}

	WriteSuccess(w, entry)
}

// PutFitness handles PUT /api/v1/me/fitness/{date}
//
// The body replaces the whole entry for that day. Omitted measurements are
// stored as not entered.
func (h *Handlers) PutFitness(w http.ResponseWriter, r *http.Request) {
	date, err := fitnessDate(r)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	var req fitnessRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, validationMessage(err), CodeValidation)
		return
	}

	fixed := make([]string, 0, len(req.Workouts.Fixed))
	for _, name := range req.Workouts.Fixed {
		if !slices.Contains(FixedWorkouts, name) {
			WriteError(w, http.StatusBadRequest,
				fmt.Sprintf("unknown workout %q; use one of: %s", name, strings.Join(FixedWorkouts, ", ")),
				CodeUnknownWorkout)
			return
		}
		if !slices.Contains(fixed, name) {
			fixed = append(fixed, name)
		}
	}
	custom := make([]string, 0, len(req.Workouts.Custom))
	for _, name := range req.Workouts.Custom {
		if name = strings.TrimSpace(name); name != "" {
			custom = append(custom, name)
		}
	}

	entry := &database.FitnessLog{
		UserID:   UserID(r),
		Date:     date,
		Steps:    req.Steps,
		Water:    req.Water,
		Sleep:    req.Sleep,
		Calories: req.Calories,
		Mood:     req.Mood,
		Workouts: database.Workouts{Fixed: fixed, Custom: custom},
	}
	if entry.Mood == "" {
		entry.Mood = defaultFitnessMood
	}

	if err := h.db.UpsertFitnessLog(r.Context(), entry); err != nil {
		h.serverError(w, r, "upsert fitness log", err)
		return
	}

	saved, err := h.db.GetFitnessLog(r.Context(), entry.UserID, date)
	if err != nil {
		h.serverError(w, r, "reload fitness log", err)
		return
	}
	WriteSuccess(w, saved)
}

// =============================================================================
// MENTAL HEALTH
// =============================================================================

type mentalHealthRequest struct {
	Mood        string `json:"mood" validate:"omitempty,oneof=😭 😟 😐 😊 🤩"`
	StressLevel string `json:"stress_level" validate:"omitempty,oneof=Low Moderate High"`
	EnergyLevel string `json:"energy_level" validate:"omitempty,oneof=🛌 😴 😐 😊 💃"`
}

// ListMentalHealth handles GET /api/v1/me/mental-health
//
// Check-ins come oldest first with stress counts. The mood of the latest
// symptom log is included so the two trackers can be read together.
func (h *Handlers) ListMentalHealth(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	logs, err := h.db.ListMentalHealthLogs(r.Context(), UserID(r), limit)
	if err != nil {
		h.serverError(w, r, "list mental health logs", err)
		return
	}

	stress := make(map[string]int, len(StressLevels))
	for _, level := range StressLevels {
		stress[level] = 0
	}
	for _, l := range logs {
		if l.StressLevel != "" {
			stress[l.StressLevel]++
		}
	}

	latest, err := h.db.ListSymptomLogs(r.Context(), UserID(r), 1)
	if err != nil {
		h.serverError(w, r, "latest symptom log", err)
		return
	}
	var lastSymptomMood map[string]string
	if len(latest) == 1 {
		lastSymptomMood = map[string]string{"date": latest[0].Date, "mood": latest[0].Mood}
	}

	WriteSuccess(w, map[string]any{
		"logs":              logs,
		"count":             len(logs),
		"stress_counts":     stress,
		"last_symptom_mood": lastSymptomMood,
	})
}

// CreateMentalHealth handles POST /api/v1/me/mental-health
func (h *Handlers) CreateMentalHealth(w http.ResponseWriter, r *http.Request) {
	var req mentalHealthRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, validationMessage(err), CodeValidation)
		return
	}
	if req.Mood == "" && req.StressLevel == "" && req.EnergyLevel == "" {
		WriteError(w, http.StatusBadRequest, "one of mood, stress_level or energy_level is required", CodeValidation)
		return
	}

	entry := &database.MentalHealthLog{
		UserID:      UserID(r),
		Mood:        req.Mood,
		StressLevel: req.StressLevel,
		EnergyLevel: req.EnergyLevel,
	}
	if err := h.db.AddMentalHealthLog(r.Context(), entry); err != nil {
		h.serverError(w, r, "add mental health log", err)
		return
	}
	entry.CreatedAt = h.now().UTC()

	WriteCreated(w, entry)
}
