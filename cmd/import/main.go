// Command import loads a web client localStorage export into the SQLite
// database.
//
// Usage:
//
//	go run ./cmd/import -json export.json -db data/wellness.db
//
// This tool:
// 1. Parses the export (period_lastDate, period_cycle, period_mensesLength,
// period_symptoms)
// 2. Creates/opens the SQLite database and runs migrations
// 3. Upserts the user's cycle settings
// 4. Appends the symptom logs, oldest first
//
// Settings are replaced on every run; symptom logs are appended, so running
// the same export twice duplicates them. Only the newest 90 logs are kept.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/zapponejosh/wellness-api/internal/cycle"
	"github.com/zapponejosh/wellness-api/internal/database"
)

func main() {
	// Parse command line flags
	jsonPath := flag.String("json", "export.json", "Path to localStorage export")
	dbPath := flag.String("db", "data/wellness.db", "Path to SQLite database")
	userID := flag.String("user", "", "User ID (overrides user_id in the export)")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	// Setup logger
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	// Run import
	if err := run(*jsonPath, *dbPath, *userID, logger); err != nil {
		logger.Error("import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("import complete")
}

func run(jsonPath, dbPath, userID string, logger *slog.Logger) error {
	ctx := context.Background()
	startTime := time.Now()

	// =========================================================================
	// Step 1: Read and parse JSON
	// =========================================================================
	logger.Info("reading export", slog.String("path", jsonPath))

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("read export: %w", err)
	}

	var export Export
	if err := json.Unmarshal(data, &export); err != nil {
		return fmt.Errorf("parse export: %w", err)
	}

	if userID == "" {
		userID = export.UserID
	}
	if userID == "" {
		return fmt.Errorf("no user id: pass -user or set user_id in the export")
	}

	var (
		settings *database.CycleSettings
		engine   *cycle.Settings
	)
	if export.LastDate != "" {
		settings, err = export.Settings(userID)
		if err != nil {
			return fmt.Errorf("cycle settings: %w", err)
		}
		s, _ := settings.Engine() // validated by export.Settings
		engine = &s
	} else {
		logger.Warn("export has no period_lastDate; skipping settings")
	}

	logs, skipped := export.SymptomLogs(userID, engine)
	logger.Info("parsed export",
		slog.String("user_id", userID),
		slog.Bool("settings", settings != nil),
		slog.Int("symptom_logs", len(logs)),
		slog.Int("skipped", skipped),
	)

	// =========================================================================
	// Step 2: Open database and run migrations
	// =========================================================================
	logger.Info("opening database", slog.String("path", dbPath))

	db, err := database.Open(database.DefaultConfig(dbPath), logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	migrated, err := db.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("migrations complete", slog.Int("applied", migrated))

	// =========================================================================
	// Step 3: Import
	// =========================================================================
	stats, err := importExport(ctx, db, settings, logs, logger)
	if err != nil {
		return err
	}
	stats.Skipped = skipped

	// Print summary
	fmt.Println()
	fmt.Println("=== Import Summary ===")
	fmt.Printf("User:                %s\n", userID)
	fmt.Printf("Settings imported:   %t\n", stats.Settings)
	fmt.Printf("Symptom logs:        %d\n", stats.SymptomLogs)
	fmt.Printf("Skipped entries:     %d\n", stats.Skipped)
	fmt.Printf("Time elapsed:        %v\n", time.Since(startTime).Round(time.Millisecond))

	return nil
}

// ImportStats tracks import statistics.
type ImportStats struct {
	Settings    bool
	SymptomLogs int
	Skipped     int
}

// importExport writes settings and logs for one user.
func importExport(ctx context.Context, db *database.DB, settings *database.CycleSettings, logs []database.SymptomLog, logger *slog.Logger) (ImportStats, error) {
	var stats ImportStats

	if settings != nil {
		if err := db.UpsertCycleSettings(ctx, settings); err != nil {
			return stats, fmt.Errorf("upsert settings: %w", err)
		}
		stats.Settings = true
	}

	for i := range logs {
		if err := db.AddSymptomLog(ctx, &logs[i]); err != nil {
			return stats, fmt.Errorf("add symptom log %d (%s): %w", i+1, logs[i].Date, err)
		}
		stats.SymptomLogs++

		if (i+1)%25 == 0 {
			logger.Debug("import progress",
				slog.Int("logs", i+1),
				slog.Int("total", len(logs)),
			)
		}
	}

	return stats, nil
}
