package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/zapponejosh/wellness-api/internal/cycle"
	"github.com/zapponejosh/wellness-api/internal/database"
	"github.com/zapponejosh/wellness-api/internal/reminder"
)

// CycleView is the JSON form of a computation.
type CycleView struct {
	LastPeriodStart string        `json:"last_period_start"`
	CycleLength     int           `json:"cycle_length"`
	MensesLength    int           `json:"menses_length"`
	Today           string        `json:"today"`
	DaysSince       int           `json:"days_since"`
	TodayOffset     int           `json:"today_offset"`
	CycleDay        int           `json:"cycle_day"`
	Phase           cycle.Phase   `json:"phase"`
	Phases          []cycle.Phase `json:"phases"`
	NextPeriod      string        `json:"next_period"`
	Ovulation       WindowView    `json:"ovulation"`
}

// WindowView is an inclusive date range.
type WindowView struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func newCycleView(s cycle.Settings, today time.Time, c cycle.Computation) CycleView {
	return CycleView{
		LastPeriodStart: cycle.FormatDate(s.LastPeriodStart),
		CycleLength:     s.CycleLength,
		MensesLength:    s.MensesLength,
		Today:           cycle.FormatDate(cycle.DateOf(today)),
		DaysSince:       c.DaysSince,
		TodayOffset:     c.TodayOffset,
		CycleDay:        c.CycleDay,
		Phase:           c.Phase,
		Phases:          c.Phases,
		NextPeriod:      cycle.FormatDate(c.NextPeriod),
		Ovulation: WindowView{
			Start: cycle.FormatDate(c.Ovulation.Start),
			End:   cycle.FormatDate(c.Ovulation.End),
		},
	}
}

// settingsRequest is the body of PUT /me/cycle/settings. Zero lengths take
// the defaults before validation.
type settingsRequest struct {
	LastPeriodStart string `json:"last_period_start" validate:"required,datetime=2006-01-02"`
	CycleLength     int    `json:"cycle_length" validate:"required,min=21,max=40"`
	MensesLength    int    `json:"menses_length" validate:"required,min=2,max=10,ltfield=CycleLength"`
}

// =============================================================================
// STATELESS ENGINE
// =============================================================================

// ComputeCycle handles GET /api/v1/cycle/compute
func (h *Handlers) ComputeCycle(w http.ResponseWriter, r *http.Request) {
	lps := r.URL.Query().Get("last_period_start")
	if lps == "" {
		WriteBadRequest(w, "last_period_start is required")
		return
	}
	start, err := cycle.ParseDate(lps)
	if err != nil {
		WriteBadRequest(w, "last_period_start must be a YYYY-MM-DD date")
		return
	}
	cycleLength, err := queryInt(r, "cycle_length", cycle.DefaultCycleLength)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	mensesLength, err := queryInt(r, "menses_length", cycle.DefaultMensesLength)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	today, err := h.today(r)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	s := cycle.Settings{LastPeriodStart: start, CycleLength: cycleLength, MensesLength: mensesLength}
	c, err := cycle.Compute(s, today)
	if err != nil {
		WriteUnprocessable(w, err.Error(), CodeInvalidSettings)
		return
	}

	cycleComputations.WithLabelValues(string(c.Phase.Kind)).Inc()
	WriteSuccess(w, newCycleView(s, today, c))
}

// GetPhases handles GET /api/v1/cycle/phases
func (h *Handlers) GetPhases(w http.ResponseWriter, r *http.Request) {
	cycleLength, err := queryInt(r, "cycle_length", cycle.DefaultCycleLength)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	mensesLength, err := queryInt(r, "menses_length", cycle.DefaultMensesLength)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	phases, err := cycle.Phases(cycleLength, mensesLength)
	if err != nil {
		WriteUnprocessable(w, err.Error(), CodeInvalidSettings)
		return
	}

	WriteSuccess(w, map[string]any{
		"cycle_length":  cycleLength,
		"menses_length": mensesLength,
		"phases":        phases,
	})
}

// =============================================================================
// USER SETTINGS
// =============================================================================

// GetSettings handles GET /api/v1/me/cycle/settings
func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.db.GetCycleSettings(r.Context(), UserID(r))
	if err != nil {
		if database.IsNotFound(err) {
			WriteError(w, http.StatusNotFound, "Cycle settings not set", CodeSettingsMissing)
			return
		}
		h.serverError(w, r, "get settings", err)
		return
	}
	WriteSuccess(w, s)
}

// PutSettings handles PUT /api/v1/me/cycle/settings
func (h *Handlers) PutSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	if req.CycleLength == 0 {
		req.CycleLength = cycle.DefaultCycleLength
	}
	if req.MensesLength == 0 {
		req.MensesLength = cycle.DefaultMensesLength
	}

	if err := h.validate.Struct(&req); err != nil {
		WriteUnprocessable(w, validationMessage(err), CodeInvalidSettings)
		return
	}

	stored := &database.CycleSettings{
		UserID:          UserID(r),
		LastPeriodStart: req.LastPeriodStart,
		CycleLength:     req.CycleLength,
		MensesLength:    req.MensesLength,
	}
	// The engine has the final word on what it can compute with.
	eng, err := stored.Engine()
	if err == nil {
		err = eng.Validate()
	}
	if err != nil {
		WriteUnprocessable(w, err.Error(), CodeInvalidSettings)
		return
	}

	if err := h.db.UpsertCycleSettings(r.Context(), stored); err != nil {
		h.serverError(w, r, "upsert settings", err)
		return
	}

	saved, err := h.db.GetCycleSettings(r.Context(), stored.UserID)
	if err != nil {
		h.serverError(w, r, "reload settings", err)
		return
	}
	WriteSuccess(w, saved)
}

// loadSettings fetches the caller's settings as engine input. It writes the
// error response itself and returns ok=false when the handler should stop.
func (h *Handlers) loadSettings(w http.ResponseWriter, r *http.Request) (cycle.Settings, bool) {
	stored, err := h.db.GetCycleSettings(r.Context(), UserID(r))
	if err != nil {
		if database.IsNotFound(err) {
			WriteError(w, http.StatusNotFound, "Cycle settings not set", CodeSettingsMissing)
			return cycle.Settings{}, false
		}
		h.serverError(w, r, "get settings", err)
		return cycle.Settings{}, false
	}

	s, err := stored.Engine()
	if err == nil {
		err = s.Validate()
	}
	if err != nil {
		WriteUnprocessable(w, err.Error(), CodeInvalidSettings)
		return cycle.Settings{}, false
	}
	return s, true
}

// =============================================================================
// USER CYCLE
// =============================================================================

// GetMyCycle handles GET /api/v1/me/cycle
func (h *Handlers) GetMyCycle(w http.ResponseWriter, r *http.Request) {
	today, err := h.today(r)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	s, ok := h.loadSettings(w, r)
	if !ok {
		return
	}

	c, err := cycle.Compute(s, today)
	if err != nil {
		WriteUnprocessable(w, err.Error(), CodeInvalidSettings)
		return
	}

	cycleComputations.WithLabelValues(string(c.Phase.Kind)).Inc()
	WriteSuccess(w, newCycleView(s, today, c))
}

// GetRing handles GET /api/v1/me/cycle/ring
func (h *Handlers) GetRing(w http.ResponseWriter, r *http.Request) {
	today, err := h.today(r)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	s, ok := h.loadSettings(w, r)
	if !ok {
		return
	}

	days, err := cycle.Ring(s, today)
	if err != nil {
		WriteUnprocessable(w, err.Error(), CodeInvalidSettings)
		return
	}

	WriteSuccess(w, map[string]any{
		"today": cycle.FormatDate(today),
		"days":  days,
	})
}

// GetSuggestions handles GET /api/v1/me/cycle/suggestions
func (h *Handlers) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	today, err := h.today(r)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	s, ok := h.loadSettings(w, r)
	if !ok {
		return
	}

	c, err := cycle.Compute(s, today)
	if err != nil {
		WriteUnprocessable(w, err.Error(), CodeInvalidSettings)
		return
	}

	suggestions, err := h.catalog.Suggestions(c.Phase.Kind)
	if err != nil {
		h.serverError(w, r, "phase suggestions", err)
		return
	}

	WriteSuccess(w, map[string]any{
		"phase":       c.Phase,
		"cycle_day":   c.CycleDay,
		"suggestions": suggestions,
	})
}

type reminderRequest struct {
	Style string `json:"style" validate:"max=32"`
}

// CreatePhaseReminder handles POST /api/v1/me/cycle/reminder
func (h *Handlers) CreatePhaseReminder(w http.ResponseWriter, r *http.Request) {
	var req reminderRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			WriteBadRequest(w, err.Error())
			return
		}
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteBadRequest(w, validationMessage(err))
		return
	}
	style := reminder.StyleGentle
	if req.Style != "" {
		style = reminder.Style(req.Style)
	}

	today, err := h.today(r)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	s, ok := h.loadSettings(w, r)
	if !ok {
		return
	}
	c, err := cycle.Compute(s, today)
	if err != nil {
		WriteUnprocessable(w, err.Error(), CodeInvalidSettings)
		return
	}

	text, err := h.catalog.PhaseReminder(style, c.Phase.Kind)
	if err != nil {
		if errors.Is(err, reminder.ErrUnknownStyle) {
			WriteError(w, http.StatusBadRequest, "style must be gentle or health", CodeUnknownStyle)
			return
		}
		h.serverError(w, r, "phase reminder", err)
		return
	}

	WriteSuccess(w, map[string]any{
		"style":   style,
		"phase":   c.Phase,
		"message": text,
	})
}
