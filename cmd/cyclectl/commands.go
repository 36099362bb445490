package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/zapponejosh/wellness-api/internal/auth"
	"github.com/zapponejosh/wellness-api/internal/cli"
	"github.com/zapponejosh/wellness-api/internal/cycle"
	"github.com/zapponejosh/wellness-api/internal/reminder"
)

// =============================================================================
// status
// =============================================================================

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cycle day, phase and predictions",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	today, err := referenceDate()
	if err != nil {
		return err
	}

	c, err := cycle.Compute(s, today)
	if err != nil {
		return err
	}

	catalog, err := reminder.LoadCatalog()
	if err != nil {
		return err
	}
	suggestions, err := catalog.Suggestions(c.Phase.Kind)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprint(cmd.OutOrStdout(), cli.RenderStatus(s, today, c, suggestions))
	return nil
}

// =============================================================================
// ring
// =============================================================================

var flagPerRow int

var ringCmd = &cobra.Command{
	Use:   "ring",
	Short: "Show every day of the cycle colored by phase",
	RunE:  runRing,
}

func runRing(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	today, err := referenceDate()
	if err != nil {
		return err
	}

	days, err := cycle.Ring(s, today)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprint(cmd.OutOrStdout(), cli.RenderRing(days, flagPerRow))
	return nil
}

// =============================================================================
// table
// =============================================================================

var flagDays int

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Forecast phases for the coming days",
	RunE:  runTable,
}

func runTable(cmd *cobra.Command, _ []string) error {
	if flagDays < 1 || flagDays > 366 {
		return fmt.Errorf("--days must be between 1 and 366, got %d", flagDays)
	}

	s, err := loadSettings()
	if err != nil {
		return err
	}
	from, err := referenceDate()
	if err != nil {
		return err
	}

	rows, err := cli.Forecast(s, from, flagDays)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderForecast(rows))
	return nil
}

// =============================================================================
// settings
// =============================================================================

var (
	flagStart  string
	flagCycle  int
	flagMenses int
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the saved cycle settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Save cycle settings",
	RunE:  runSettingsSet,
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  Settings file:     %s\n", flagConfig)
	fmt.Fprintf(out, "  Last period start: %s\n", cycle.FormatDate(s.LastPeriodStart))
	fmt.Fprintf(out, "  Cycle length:      %d days\n", s.CycleLength)
	fmt.Fprintf(out, "  Menses length:     %d days\n", s.MensesLength)
	return nil
}

func runSettingsSet(cmd *cobra.Command, _ []string) error {
	// Start from what is saved so single flags can be changed.
	s, err := cli.LoadSettings(flagConfig)
	if err != nil && !errors.Is(err, cli.ErrNoSettings) {
		return err
	}
	if errors.Is(err, cli.ErrNoSettings) {
		s = cycle.Settings{CycleLength: cycle.DefaultCycleLength, MensesLength: cycle.DefaultMensesLength}
	}

	if cmd.Flags().Changed("start") {
		start, err := cycle.ParseDate(flagStart)
		if err != nil {
			return fmt.Errorf("--start: %w", err)
		}
		s.LastPeriodStart = start
	}
	if cmd.Flags().Changed("cycle") {
		s.CycleLength = flagCycle
	}
	if cmd.Flags().Changed("menses") {
		s.MensesLength = flagMenses
	}

	if err := cli.SaveSettings(flagConfig, s); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "  Saved to %s\n", flagConfig)
	return nil
}

// =============================================================================
// token
// =============================================================================

var (
	flagUser string
	flagTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for a local API server (reads JWT_SECRET)",
	RunE:  runToken,
}

func runToken(cmd *cobra.Command, _ []string) error {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if flagUser == "" {
		return errors.New("--user is required")
	}

	token, err := auth.NewVerifier(secret).Issue(flagUser, flagTTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func init() {
	ringCmd.Flags().IntVar(&flagPerRow, "per-row", 7, "Days per row")
	tableCmd.Flags().IntVarP(&flagDays, "days", "n", 28, "Number of days to forecast")

	settingsSetCmd.Flags().StringVar(&flagStart, "start", "", "Last period start (YYYY-MM-DD)")
	settingsSetCmd.Flags().IntVar(&flagCycle, "cycle", cycle.DefaultCycleLength, "Cycle length in days")
	settingsSetCmd.Flags().IntVar(&flagMenses, "menses", cycle.DefaultMensesLength, "Menses length in days")
	settingsCmd.AddCommand(settingsSetCmd)

	tokenCmd.Flags().StringVarP(&flagUser, "user", "u", "", "User ID (token subject)")
	tokenCmd.Flags().DurationVar(&flagTTL, "ttl", 24*time.Hour, "Token lifetime")

	rootCmd.AddCommand(statusCmd, ringCmd, tableCmd, settingsCmd, tokenCmd)
}
