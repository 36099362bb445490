package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/zapponejosh/wellness-api/internal/config"
	"github.com/zapponejosh/wellness-api/internal/cycle"
	"github.com/zapponejosh/wellness-api/internal/database"
	"github.com/zapponejosh/wellness-api/internal/logger"
	"github.com/zapponejosh/wellness-api/internal/reminder"
)

// maxBodyBytes caps request bodies. The largest legitimate body is a chat
// message of 4000 characters.
const maxBodyBytes = 64 << 10

// Replier answers a single chat message.
type Replier interface {
	Reply(ctx context.Context, message string) (string, error)
}

// Deps are the collaborators handlers need. Chat and Redis are optional.
type Deps struct {
	DB        *database.DB
	Config    *config.Config
	Logger    *slog.Logger
	Catalog   *reminder.Catalog
	Generator *reminder.Generator
	Chat      Replier       // nil disables the chat proxy
	Redis     *redis.Client // nil skips the Redis health check
}

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	db        *database.DB
	cfg       *config.Config
	logger    *slog.Logger
	catalog   *reminder.Catalog
	generator *reminder.Generator
	chat      Replier
	redis     *redis.Client
	validate  *validator.Validate
	now       func() time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(d Deps) *Handlers {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names in validation errors.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handlers{
		db:        d.DB,
		cfg:       d.Config,
		logger:    d.Logger,
		catalog:   d.Catalog,
		generator: d.Generator,
		chat:      d.Chat,
		redis:     d.Redis,
		validate:  v,
		now:       time.Now,
	}
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{"database": "ok"}
	healthy := true

	if err := h.db.Health(ctx); err != nil {
		h.logger.Error("health check failed", slog.String("component", "database"), slog.Any("error", err))
		checks["database"] = "unavailable"
		healthy = false
	}

	if h.redis != nil {
		checks["redis"] = "ok"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			h.logger.Error("health check failed", slog.String("component", "redis"), slog.Any("error", err))
			checks["redis"] = "unavailable"
			healthy = false
		}
	}

	if !healthy {
		WriteJSON(w, http.StatusServiceUnavailable, Response{
			Success: false,
			Data:    map[string]any{"status": "unhealthy", "checks": checks},
			Error:   &ErrorInfo{Message: "Service unhealthy", Code: CodeUnhealthy},
		})
		return
	}

	WriteSuccess(w, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// decodeJSON decodes a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("request body is empty")
	}
	defer r.Body.Close()

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// validationMessage flattens validator errors into one readable line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "min":
			parts = append(parts, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param()))
		case "ltfield":
			parts = append(parts, fmt.Sprintf("%s must be less than %s", fe.Field(), fe.Param()))
		case "datetime":
			parts = append(parts, fe.Field()+" must be a YYYY-MM-DD date")
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// today returns the reference date for a request: the "today" query
// parameter if present, else the current date in the configured zone.
func (h *Handlers) today(r *http.Request) (time.Time, error) {
	if s := r.URL.Query().Get("today"); s != "" {
		t, err := cycle.ParseDate(s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid today parameter: use YYYY-MM-DD")
		}
		return t, nil
	}
	return cycle.DateOf(h.now().In(h.cfg.Location())), nil
}

// queryInt reads an integer query parameter, returning def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter: must be an integer", name)
	}
	return n, nil
}

// serverError logs err with request context and writes a generic 500.
func (h *Handlers) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logger.Error(r.Context(), msg, err, slog.String("path", r.URL.Path))
	WriteInternalError(w, "Internal server error")
}
