package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/zapponejosh/wellness-api/internal/cycle"
)

// ErrNoSettings is returned by LoadSettings when the file does not exist.
var ErrNoSettings = errors.New("no cycle settings saved")

// File is the on-disk settings file.
type File struct {
	Cycle CycleSection `toml:"cycle"`
}

// CycleSection holds the engine settings.
type CycleSection struct {
	LastPeriodStart string `toml:"last_period_start"` // YYYY-MM-DD
	CycleLength     int    `toml:"cycle_length"`
	MensesLength    int    `toml:"menses_length"`
}

// Settings converts the file into validated engine settings. Zero lengths
// take the defaults.
func (f File) Settings() (cycle.Settings, error) {
	start, err := cycle.ParseDate(f.Cycle.LastPeriodStart)
	if err != nil {
		return cycle.Settings{}, fmt.Errorf("%w: %v", cycle.ErrInvalidSettings, err)
	}

	s := cycle.DefaultSettings(start)
	if f.Cycle.CycleLength != 0 {
		s.CycleLength = f.Cycle.CycleLength
	}
	if f.Cycle.MensesLength != 0 {
		s.MensesLength = f.Cycle.MensesLength
	}
	if err := s.Validate(); err != nil {
		return cycle.Settings{}, err
	}
	return s, nil
}

// FileFromSettings builds a settings file from engine settings.
func FileFromSettings(s cycle.Settings) File {
	return File{Cycle: CycleSection{
		LastPeriodStart: cycle.FormatDate(s.LastPeriodStart),
		CycleLength:     s.CycleLength,
		MensesLength:    s.MensesLength,
	}}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "wellness")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "wellness")
}

// DefaultSettingsPath returns the default settings file location.
func DefaultSettingsPath() string {
	return filepath.Join(ConfigDir(), "cycle.toml")
}

// LoadSettings reads and validates the settings file at path.
func LoadSettings(path string) (cycle.Settings, error) {
	var f File
	if _, err := toml.DecodeFile(path, &f); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cycle.Settings{}, ErrNoSettings
		}
		return cycle.Settings{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f.Settings()
}

// SaveSettings validates s and writes it to path, creating parent
// directories as needed.
func SaveSettings(path string, s cycle.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating settings file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(FileFromSettings(s)); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}
