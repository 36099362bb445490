// Command cyclectl runs the cycle engine offline against a local settings
// file.
//
// Usage:
//
//	cyclectl settings set --start 2024-01-01 --cycle 28 --menses 5
//	cyclectl status
//	cyclectl ring --today 2024-01-15
//	cyclectl table --days 35
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/zapponejosh/wellness-api/internal/cli"
	"github.com/zapponejosh/wellness-api/internal/cycle"
)

var (
	flagConfig string
	flagToday  string
)

var rootCmd = &cobra.Command{
	Use:           "cyclectl",
	Short:         "Cycle phase predictions from the command line",
	Long:          "Compute cycle day, phase and predictions from a local settings file.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runStatus,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", cli.DefaultSettingsPath(), "Settings file")
	rootCmd.PersistentFlags().StringVarP(&flagToday, "today", "t", "", "Reference date (YYYY-MM-DD), default today")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "  error: %v\n", err)
		os.Exit(1)
	}
}

// loadSettings reads the settings file named by --config.
func loadSettings() (cycle.Settings, error) {
	s, err := cli.LoadSettings(flagConfig)
	if errors.Is(err, cli.ErrNoSettings) {
		return s, fmt.Errorf("no settings at %s; run: cyclectl settings set --start YYYY-MM-DD", flagConfig)
	}
	return s, err
}

// referenceDate returns --today, or the current local date.
func referenceDate() (time.Time, error) {
	if flagToday == "" {
		return cycle.DateOf(time.Now()), nil
	}
	d, err := cycle.ParseDate(flagToday)
	if err != nil {
		return time.Time{}, fmt.Errorf("--today: %w", err)
	}
	return d, nil
}
