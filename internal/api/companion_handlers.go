package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/zapponejosh/wellness-api/internal/chat"
	"github.com/zapponejosh/wellness-api/internal/cycle"
	"github.com/zapponejosh/wellness-api/internal/database"
	"github.com/zapponejosh/wellness-api/internal/logger"
	"github.com/zapponejosh/wellness-api/internal/reminder"
)

// Defaults for fields left out of a symptom log.
const (
	defaultMood   = "ok"
	defaultPain   = 0
	defaultEnergy = 5
)

// =============================================================================
// SYMPTOMS
// =============================================================================

type symptomRequest struct {
	Date   string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Mood   string `json:"mood" validate:"max=32"`
	Pain   *int   `json:"pain" validate:"omitnil,min=0,max=10"`
	Energy *int   `json:"energy" validate:"omitnil,min=0,max=10"`
}

// ListSymptoms handles GET /api/v1/me/symptoms
func (h *Handlers) ListSymptoms(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", database.MaxSymptomLogs)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	logs, err := h.db.ListSymptomLogs(r.Context(), UserID(r), limit)
	if err != nil {
		h.serverError(w, r, "list symptom logs", err)
		return
	}

	WriteSuccess(w, map[string]any{
		"logs":  logs,
		"count": len(logs),
	})
}

// CreateSymptom handles POST /api/v1/me/symptoms
//
// The entry is stamped with the phase its date falls in when the user has
// usable cycle settings; otherwise the phase is left empty.
func (h *Handlers) CreateSymptom(w http.ResponseWriter, r *http.Request) {
	var req symptomRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, validationMessage(err), CodeValidation)
		return
	}

	date, err := h.today(r)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	if req.Date != "" {
		date, _ = cycle.ParseDate(req.Date) // format checked by the validator
	}

	entry := &database.SymptomLog{
		UserID: UserID(r),
		Date:   cycle.FormatDate(date),
		Mood:   strings.TrimSpace(req.Mood),
		Pain:   defaultPain,
		Energy: defaultEnergy,
	}
	if entry.Mood == "" {
		entry.Mood = defaultMood
	}
	if req.Pain != nil {
		entry.Pain = *req.Pain
	}
	if req.Energy != nil {
		entry.Energy = *req.Energy
	}

	phase, err := h.phaseOn(r, date)
	if err != nil {
		h.serverError(w, r, "phase for symptom log", err)
		return
	}
	entry.Phase = phase

	if err := h.db.AddSymptomLog(r.Context(), entry); err != nil {
		h.serverError(w, r, "add symptom log", err)
		return
	}
	entry.CreatedAt = time.Now().UTC()

	WriteCreated(w, entry)
}

// phaseOn returns the caller's phase on date, or "" when they have no
// usable settings.
func (h *Handlers) phaseOn(r *http.Request, date time.Time) (string, error) {
	stored, err := h.db.GetCycleSettings(r.Context(), UserID(r))
	if database.IsNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	s, err := stored.Engine()
	if err != nil {
		logger.Warn(r.Context(), "stored settings unusable", "error", err)
		return "", nil
	}
	c, err := cycle.Compute(s, date)
	if err != nil {
		logger.Warn(r.Context(), "stored settings unusable", "error", err)
		return "", nil
	}
	return string(c.Phase.Kind), nil
}

// =============================================================================
// MOTIVATION
// =============================================================================

type motivationRequest struct {
	Mood string `json:"mood" validate:"required,max=32"`
}

// GetMotivation handles GET /api/v1/me/motivation
func (h *Handlers) GetMotivation(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	history, err := h.db.ListMotivationalReminders(r.Context(), UserID(r), limit)
	if err != nil {
		h.serverError(w, r, "list motivational reminders", err)
		return
	}
	streak, err := h.db.GetReminderStreak(r.Context(), UserID(r))
	if err != nil {
		h.serverError(w, r, "get reminder streak", err)
		return
	}

	WriteSuccess(w, map[string]any{
		"moods":   reminder.Moods,
		"streak":  streak,
		"history": history,
	})
}

// CreateMotivation handles POST /api/v1/me/motivation
func (h *Handlers) CreateMotivation(w http.ResponseWriter, r *http.Request) {
	var req motivationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, validationMessage(err), CodeValidation)
		return
	}

	text, err := h.generator.Generate(req.Mood)
	if err != nil {
		if errors.Is(err, reminder.ErrUnknownMood) {
			WriteError(w, http.StatusBadRequest,
				"mood must be one of: "+strings.Join(reminder.Moods, ", "), CodeUnknownMood)
			return
		}
		h.serverError(w, r, "generate reminder", err)
		return
	}

	mood := strings.ToLower(strings.TrimSpace(req.Mood))
	rec := &database.MotivationalReminder{
		UserID: UserID(r),
		Mood:   mood,
		Text:   text,
	}
	streak, err := h.db.AddMotivationalReminder(r.Context(), rec)
	if err != nil {
		h.serverError(w, r, "save motivational reminder", err)
		return
	}
	rec.CreatedAt = time.Now().UTC()
	remindersGenerated.WithLabelValues(mood).Inc()

	WriteCreated(w, map[string]any{
		"reminder": rec,
		"streak":   streak,
	})
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

// ListNotifications handles GET /api/v1/me/notifications
func (h *Handlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	notes, err := h.db.ListNotifications(r.Context(), UserID(r), limit)
	if err != nil {
		h.serverError(w, r, "list notifications", err)
		return
	}

	WriteSuccess(w, map[string]any{
		"notifications": notes,
		"count":         len(notes),
	})
}

// =============================================================================
// CHAT
// =============================================================================

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// Chat handles POST /chat and POST /api/v1/chat
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		chatRequests.WithLabelValues("bad_request").Inc()
		WriteBadRequest(w, err.Error())
		return
	}

	switch err := chat.ValidateMessage(req.Message); {
	case errors.Is(err, chat.ErrEmptyMessage):
		chatRequests.WithLabelValues("bad_request").Inc()
		WriteError(w, http.StatusBadRequest, "Message is required", CodeMessageRequired)
		return
	case errors.Is(err, chat.ErrMessageTooLong):
		chatRequests.WithLabelValues("bad_request").Inc()
		WriteError(w, http.StatusBadRequest, "Message is too long", CodeMessageTooLong)
		return
	}

	if h.chat == nil {
		chatRequests.WithLabelValues("unavailable").Inc()
		WriteError(w, http.StatusServiceUnavailable, "Chat is not configured", CodeChatUnavailable)
		return
	}

	reply, err := h.chat.Reply(r.Context(), req.Message)
	if err != nil {
		chatRequests.WithLabelValues("upstream_error").Inc()
		logger.Error(r.Context(), "chat reply failed", err)
		WriteError(w, http.StatusBadGateway, "AI failed to respond", CodeAIError)
		return
	}

	chatRequests.WithLabelValues("ok").Inc()
	WriteSuccess(w, chatResponse{Reply: reply})
}
