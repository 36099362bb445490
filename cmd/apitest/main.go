// Command apitest runs a smoke test suite against a running wellness API.
//
// Usage:
//
//	go run ./cmd/apitest -url http://localhost:8080 -secret $JWT_SECRET
//
// Without -token or -secret the suite relies on the development auth
// bypass. The suite writes settings and logs for its user, so point it at
// a scratch user (-user) on shared servers.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/zapponejosh/wellness-api/internal/api"
	"github.com/zapponejosh/wellness-api/internal/auth"
	"github.com/zapponejosh/wellness-api/internal/cycle"
)

// =============================================================================
// Response Types - Match the actual API response structure
// =============================================================================

type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *api.ErrorInfo  `json:"error,omitempty"`
}

// HealthResponse is the response for /health
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// RingResponse is the response for /me/cycle/ring
type RingResponse struct {
	Today string          `json:"today"`
	Days  []cycle.RingDay `json:"days"`
}

// =============================================================================
// Test Runner
// =============================================================================

type TestRunner struct {
	baseURL      string
	token        string
	client       *http.Client
	out          io.Writer
	verbose      bool
	successCount int
	errorCount   int
	errors       []string
}

func NewTestRunner(baseURL, token string, out io.Writer, verbose bool) *TestRunner {
	return &TestRunner{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		out:     out,
		verbose: verbose,
	}
}

func (tr *TestRunner) Run() {
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintln(tr.out, "Wellness API Test Suite")
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintf(tr.out, "Base URL: %s\n", tr.baseURL)

	// Run test groups
	tr.testHealth()
	tr.testStatelessEngine()
	tr.testSettings()
	tr.testUserCycle()
	tr.testCompanion()
	tr.testWellness()
	tr.testChat()

	// Print summary
	tr.printSummary()
}

// =============================================================================
// Test Groups
// =============================================================================

func (tr *TestRunner) testHealth() {
	tr.printSection("Health Check")

	var health HealthResponse
	if status, err := tr.call(http.MethodGet, "/health", nil, &health); err != nil {
		tr.recordError("Health", err.Error())
		return
	} else if status != http.StatusOK || health.Status != "healthy" {
		tr.recordError("Health", fmt.Sprintf("status %d, health %q", status, health.Status))
		return
	}
	tr.recordSuccess("Health check passed")
	if tr.verbose {
		fmt.Fprintf(tr.out, "    Checks: %v\n", health.Checks)
	}

	resp, err := tr.do(http.MethodGet, "/metrics", nil)
	if err != nil {
		tr.recordError("Metrics", err.Error())
		return
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode == http.StatusOK && bytes.Contains(body, []byte("wellness_http_request_duration_seconds")) {
		tr.recordSuccess("Metrics exported")
	} else {
		tr.recordError("Metrics", fmt.Sprintf("status %d, request histogram missing", resp.StatusCode))
	}
}

func (tr *TestRunner) testStatelessEngine() {
	tr.printSection("Stateless Engine")

	var c api.CycleView
	_, err := tr.call(http.MethodGet, "/api/v1/cycle/compute?last_period_start=2024-01-01&today=2024-01-15", nil, &c)
	switch {
	case err != nil:
		tr.recordError("Compute", err.Error())
	case c.CycleDay != 15 || c.Phase.Kind != cycle.Ovulation || c.NextPeriod != "2024-01-29":
		tr.recordError("Compute", fmt.Sprintf("got day %d phase %s next %s", c.CycleDay, c.Phase.Kind, c.NextPeriod))
	default:
		tr.recordSuccess("28/5 cycle, day 15 is ovulation")
	}

	// Negative offsets wrap backwards.
	_, err = tr.call(http.MethodGet, "/api/v1/cycle/compute?last_period_start=2024-01-10&today=2024-01-09", nil, &c)
	if err != nil {
		tr.recordError("Compute (before start)", err.Error())
	} else if c.TodayOffset != 27 || c.Phase.Kind != cycle.Luteal {
		tr.recordError("Compute (before start)", fmt.Sprintf("offset %d phase %s", c.TodayOffset, c.Phase.Kind))
	} else {
		tr.recordSuccess("Day before start wraps to the last luteal day")
	}

	tr.expectError(http.MethodGet, "/api/v1/cycle/compute?last_period_start=2024-01-01&cycle_length=10&menses_length=10", nil,
		http.StatusUnprocessableEntity, api.CodeInvalidSettings)

	var phases struct {
		Phases []cycle.Phase `json:"phases"`
	}
	if _, err := tr.call(http.MethodGet, "/api/v1/cycle/phases", nil, &phases); err != nil {
		tr.recordError("Phases", err.Error())
	} else if len(phases.Phases) != 4 {
		tr.recordError("Phases", fmt.Sprintf("got %d phases", len(phases.Phases)))
	} else {
		tr.recordSuccess("Four phases returned")
	}
}

func (tr *TestRunner) testSettings() {
	tr.printSection("Settings")

	body := map[string]any{"last_period_start": "2024-01-01", "cycle_length": 28, "menses_length": 5}
	if _, err := tr.call(http.MethodPut, "/api/v1/me/cycle/settings", body, nil); err != nil {
		tr.recordError("Put settings", err.Error())
		return
	}
	tr.recordSuccess("Settings saved")

	var s struct {
		LastPeriodStart string `json:"last_period_start"`
		CycleLength     int    `json:"cycle_length"`
	}
	if _, err := tr.call(http.MethodGet, "/api/v1/me/cycle/settings", nil, &s); err != nil {
		tr.recordError("Get settings", err.Error())
	} else if s.LastPeriodStart != "2024-01-01" || s.CycleLength != 28 {
		tr.recordError("Get settings", fmt.Sprintf("got %+v", s))
	} else {
		tr.recordSuccess("Settings read back")
	}

	tr.expectError(http.MethodPut, "/api/v1/me/cycle/settings",
		map[string]any{"last_period_start": "2024-01-01", "cycle_length": 50},
		http.StatusUnprocessableEntity, api.CodeInvalidSettings)
}

func (tr *TestRunner) testUserCycle() {
	tr.printSection("User Cycle")

	var c api.CycleView
	if _, err := tr.call(http.MethodGet, "/api/v1/me/cycle?today=2024-01-20", nil, &c); err != nil {
		tr.recordError("Cycle", err.Error())
		return
	}
	tr.recordSuccess(fmt.Sprintf("Day %d, %s", c.CycleDay, c.Phase.Label))

	var ring RingResponse
	if _, err := tr.call(http.MethodGet, "/api/v1/me/cycle/ring?today=2024-01-20", nil, &ring); err != nil {
		tr.recordError("Ring", err.Error())
	} else {
		var today []cycle.RingDay
		for _, d := range ring.Days {
			if d.IsToday {
				today = append(today, d)
			}
		}
		if len(ring.Days) != 28 || len(today) != 1 || today[0].Phase != c.Phase.Kind {
			tr.recordError("Ring", fmt.Sprintf("%d days, today cells %v, cycle phase %s", len(ring.Days), today, c.Phase.Kind))
		} else {
			tr.recordSuccess("Ring agrees with the headline phase")
		}
	}

	var sug struct {
		Suggestions []string `json:"suggestions"`
	}
	if _, err := tr.call(http.MethodGet, "/api/v1/me/cycle/suggestions?today=2024-01-20", nil, &sug); err != nil {
		tr.recordError("Suggestions", err.Error())
	} else if len(sug.Suggestions) == 0 {
		tr.recordError("Suggestions", "none returned")
	} else {
		tr.recordSuccess(fmt.Sprintf("%d suggestions", len(sug.Suggestions)))
	}

	var rem struct {
		Message string `json:"message"`
	}
	if _, err := tr.call(http.MethodPost, "/api/v1/me/cycle/reminder?today=2024-01-20", map[string]string{"style": "health"}, &rem); err != nil {
		tr.recordError("Phase reminder", err.Error())
	} else {
		tr.recordSuccess("Phase reminder: " + rem.Message)
	}
}

func (tr *TestRunner) testCompanion() {
	tr.printSection("Symptoms & Motivation")

	var entry struct {
		ID    int64  `json:"id"`
		Phase string `json:"phase"`
	}
	if _, err := tr.call(http.MethodPost, "/api/v1/me/symptoms",
		map[string]any{"date": "2024-01-02", "mood": "ok", "pain": 3, "energy": 6}, &entry); err != nil {
		tr.recordError("Log symptom", err.Error())
	} else if entry.Phase != string(cycle.Menstruation) {
		tr.recordError("Log symptom", fmt.Sprintf("phase %q", entry.Phase))
	} else {
		tr.recordSuccess("Symptom logged with phase")
	}

	var logs struct {
		Count int `json:"count"`
	}
	if _, err := tr.call(http.MethodGet, "/api/v1/me/symptoms", nil, &logs); err != nil {
		tr.recordError("List symptoms", err.Error())
	} else if logs.Count < 1 || logs.Count > 90 {
		tr.recordError("List symptoms", fmt.Sprintf("count %d", logs.Count))
	} else {
		tr.recordSuccess(fmt.Sprintf("%d symptom logs", logs.Count))
	}

	var mot struct {
		Reminder struct {
			Text string `json:"text"`
		} `json:"reminder"`
		Streak int `json:"streak"`
	}
	if _, err := tr.call(http.MethodPost, "/api/v1/me/motivation", map[string]string{"mood": "motivated"}, &mot); err != nil {
		tr.recordError("Motivation", err.Error())
	} else if strings.Contains(mot.Reminder.Text, "{") || mot.Streak < 1 {
		tr.recordError("Motivation", fmt.Sprintf("text %q streak %d", mot.Reminder.Text, mot.Streak))
	} else {
		tr.recordSuccess(fmt.Sprintf("Reminder (streak %d): %s", mot.Streak, mot.Reminder.Text))
	}

	tr.expectError(http.MethodPost, "/api/v1/me/motivation", map[string]string{"mood": "bored"},
		http.StatusBadRequest, api.CodeUnknownMood)

	if _, err := tr.call(http.MethodGet, "/api/v1/me/notifications", nil, nil); err != nil {
		tr.recordError("Notifications", err.Error())
	} else {
		tr.recordSuccess("Notifications listed")
	}
}

func (tr *TestRunner) testWellness() {
	tr.printSection("Fitness & Mental Health")

	var day struct {
		Date  string `json:"date"`
		Steps *int   `json:"steps"`
	}
	if _, err := tr.call(http.MethodPut, "/api/v1/me/fitness/2024-01-03", map[string]any{
		"steps":    8000,
		"water":    1.5,
		"workouts": map[string]any{"fixed": []string{"Evening Walk"}},
	}, &day); err != nil {
		tr.recordError("Log fitness", err.Error())
	} else if day.Steps == nil || *day.Steps != 8000 {
		tr.recordError("Log fitness", fmt.Sprintf("steps %v", day.Steps))
	} else {
		tr.recordSuccess("Fitness day saved")
	}

	var week struct {
		TotalSteps int `json:"total_steps"`
	}
	if _, err := tr.call(http.MethodGet, "/api/v1/me/fitness/week?today=2024-01-03", nil, &week); err != nil {
		tr.recordError("Fitness week", err.Error())
	} else if week.TotalSteps < 8000 {
		tr.recordError("Fitness week", fmt.Sprintf("total %d", week.TotalSteps))
	} else {
		tr.recordSuccess(fmt.Sprintf("Week total: %d steps", week.TotalSteps))
	}

	tr.expectError(http.MethodPut, "/api/v1/me/fitness/2024-01-03",
		map[string]any{"workouts": map[string]any{"fixed": []string{"Juggling"}}},
		http.StatusBadRequest, api.CodeUnknownWorkout)

	if _, err := tr.call(http.MethodPost, "/api/v1/me/mental-health",
		map[string]string{"mood": "😐", "stress_level": "Moderate"}, nil); err != nil {
		tr.recordError("Mental health check-in", err.Error())
	} else {
		tr.recordSuccess("Mental health check-in saved")
	}

	var mh struct {
		Count        int            `json:"count"`
		StressCounts map[string]int `json:"stress_counts"`
	}
	if _, err := tr.call(http.MethodGet, "/api/v1/me/mental-health", nil, &mh); err != nil {
		tr.recordError("Mental health history", err.Error())
	} else if mh.Count < 1 || mh.StressCounts["Moderate"] < 1 {
		tr.recordError("Mental health history", fmt.Sprintf("count %d stress %v", mh.Count, mh.StressCounts))
	} else {
		tr.recordSuccess(fmt.Sprintf("%d mental health check-ins", mh.Count))
	}

	tr.expectError(http.MethodPost, "/api/v1/me/mental-health", map[string]string{},
		http.StatusBadRequest, api.CodeValidation)
}

func (tr *TestRunner) testChat() {
	tr.printSection("Chat")

	tr.expectError(http.MethodPost, "/api/v1/chat", map[string]string{"message": "  "},
		http.StatusBadRequest, api.CodeMessageRequired)

	// A configured server answers; an unconfigured one says so. Either is healthy.
	status, err := tr.call(http.MethodPost, "/api/v1/chat", map[string]string{"message": "Say hi in three words."}, nil)
	switch {
	case err == nil:
		tr.recordSuccess("Chat replied")
	case status == http.StatusServiceUnavailable:
		tr.recordSuccess("Chat not configured (503)")
	default:
		tr.recordError("Chat", err.Error())
	}
}

// =============================================================================
// Helper Methods
// =============================================================================

func (tr *TestRunner) do(method, path string, body any) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, tr.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if tr.token != "" {
		req.Header.Set("Authorization", "Bearer "+tr.token)
	}
	return tr.client.Do(req)
}

// call sends a request and decodes the envelope. Unsuccessful envelopes
// are returned as errors; target may be nil.
func (tr *TestRunner) call(method, path string, body, target any) (int, error) {
	apiResp, status, err := tr.envelope(method, path, body)
	if err != nil {
		return status, err
	}

	if !apiResp.Success {
		errMsg := "unknown error"
		if apiResp.Error != nil {
			errMsg = fmt.Sprintf("%s (%s)", apiResp.Error.Message, apiResp.Error.Code)
		}
		return status, fmt.Errorf("API error %d: %s", status, errMsg)
	}

	if target != nil {
		if err := json.Unmarshal(apiResp.Data, target); err != nil {
			return status, fmt.Errorf("parse data: %w", err)
		}
	}
	return status, nil
}

func (tr *TestRunner) envelope(method, path string, body any) (*APIResponse, int, error) {
	resp, err := tr.do(method, path, body)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read error: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("parse error: %w", err)
	}
	return &apiResp, resp.StatusCode, nil
}

// expectError checks that a request fails with the given status and code.
func (tr *TestRunner) expectError(method, path string, body any, status int, code string) {
	name := fmt.Sprintf("%s %s", method, path)

	apiResp, got, err := tr.envelope(method, path, body)
	if err != nil {
		tr.recordError(name, err.Error())
		return
	}
	if got != status || apiResp.Success || apiResp.Error == nil || apiResp.Error.Code != code {
		tr.recordError(name, fmt.Sprintf("got %d %+v, want %d %s", got, apiResp.Error, status, code))
		return
	}
	tr.recordSuccess(fmt.Sprintf("Rejected with %d %s", status, code))
}

func (tr *TestRunner) printSection(name string) {
	fmt.Fprintln(tr.out)
	fmt.Fprintf(tr.out, "--- %s ---\n", name)
	fmt.Fprintln(tr.out)
}

func (tr *TestRunner) recordSuccess(msg string) {
	tr.successCount++
	fmt.Fprintf(tr.out, "  ✓ %s\n", msg)
}

func (tr *TestRunner) recordError(context, msg string) {
	tr.errorCount++
	errStr := fmt.Sprintf("%s: %s", context, msg)
	tr.errors = append(tr.errors, errStr)
	fmt.Fprintf(tr.out, "  ✗ %s\n", errStr)
}

func (tr *TestRunner) printSummary() {
	fmt.Fprintln(tr.out)
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintln(tr.out, "Summary")
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintf(tr.out, "  Passed: %d\n", tr.successCount)
	fmt.Fprintf(tr.out, "  Failed: %d\n", tr.errorCount)
	fmt.Fprintln(tr.out)

	if tr.errorCount > 0 {
		fmt.Fprintln(tr.out, "Failures:")
		for _, err := range tr.errors {
			fmt.Fprintf(tr.out, "  • %s\n", err)
		}
		fmt.Fprintln(tr.out)
	}

	if tr.errorCount == 0 {
		fmt.Fprintln(tr.out, "All tests passed! ✓")
	} else {
		fmt.Fprintf(tr.out, "Tests completed with %d failure(s)\n", tr.errorCount)
	}
}

// =============================================================================
// Main
// =============================================================================

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the API")
	token := flag.String("token", "", "Bearer token")
	secret := flag.String("secret", "", "JWT secret to issue a token with (instead of -token)")
	user := flag.String("user", "apitest", "User ID for issued tokens")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	if *token == "" && *secret != "" {
		t, err := auth.NewVerifier(*secret).Issue(*user, time.Hour)
		if err != nil {
			fmt.Printf("Error: issue token: %v\n", err)
			os.Exit(1)
		}
		*token = t
	}

	// Check if server is reachable
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(*baseURL + "/health")
	if err != nil {
		fmt.Printf("Error: Cannot connect to %s\n", *baseURL)
		fmt.Println("Make sure the API server is running.")
		os.Exit(1)
	}
	resp.Body.Close()

	runner := NewTestRunner(*baseURL, *token, os.Stdout, *verbose)
	runner.Run()

	// Exit with error code if tests failed
	if runner.errorCount > 0 {
		os.Exit(1)
	}
}
