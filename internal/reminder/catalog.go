// Package reminder holds the user-facing copy for cycle phases and moods,
// generates motivational reminders, and runs the daily phase reminder job.
package reminder

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/zapponejosh/wellness-api/internal/cycle"
)

//go:embed catalog.yaml
var catalogYAML []byte

var (
	// ErrUnknownStyle is returned for a reminder style other than gentle or health.
	ErrUnknownStyle = errors.New("unknown reminder style")

	// ErrUnknownMood is returned for a mood with no templates.
	ErrUnknownMood = errors.New("unknown mood")

	// ErrUnknownPhase is returned for a phase key the catalog doesn't cover.
	ErrUnknownPhase = errors.New("unknown phase")
)

// Style selects the tone of a phase reminder.
type Style string

const (
	StyleGentle Style = "gentle"
	StyleHealth Style = "health"
)

// Styles returns the supported reminder styles.
func Styles() []Style {
	return []Style{StyleGentle, StyleHealth}
}

// Moods lists the moods with motivational templates, in display order.
var Moods = []string{"happy", "sad", "tired", "motivated", "anxious"}

// PhaseCopy is the text attached to one phase.
type PhaseCopy struct {
	Suggestions []string         `yaml:"suggestions"`
	Reminders   map[Style]string `yaml:"reminders"`
}

// WordPools fill the placeholders in mood templates.
type WordPools struct {
	Nouns        []string `yaml:"nouns"`
	Actions      []string `yaml:"actions"`
	MicroActions []string `yaml:"micro_actions"`
	Emojis       []string `yaml:"emojis"`
}

// Catalog is the parsed copy catalog.
type Catalog struct {
	Phases map[cycle.PhaseKind]PhaseCopy `yaml:"phases"`
	Moods  map[string][]string           `yaml:"moods"`
	Words  WordPools                     `yaml:"words"`
}

// LoadCatalog parses the catalog embedded in the binary.
func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(catalogYAML)
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	var errs []error

	for _, kind := range cycle.Kinds() {
		p, ok := c.Phases[kind]
		if !ok {
			errs = append(errs, fmt.Errorf("phase %q missing", kind))
			continue
		}
		if len(p.Suggestions) == 0 {
			errs = append(errs, fmt.Errorf("phase %q has no suggestions", kind))
		}
		for _, style := range Styles() {
			if p.Reminders[style] == "" {
				errs = append(errs, fmt.Errorf("phase %q has no %s reminder", kind, style))
			}
		}
	}

	for _, mood := range Moods {
		if len(c.Moods[mood]) == 0 {
			errs = append(errs, fmt.Errorf("mood %q has no templates", mood))
		}
	}

	w := c.Words
	if len(w.Nouns) == 0 || len(w.Actions) == 0 || len(w.MicroActions) == 0 || len(w.Emojis) == 0 {
		errs = append(errs, errors.New("every word pool needs at least one entry"))
	}

	return errors.Join(errs...)
}

// Suggestions returns the self-care suggestions for a phase.
func (c *Catalog) Suggestions(kind cycle.PhaseKind) ([]string, error) {
	p, ok := c.Phases[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPhase, kind)
	}
	return p.Suggestions, nil
}

// PhaseReminder returns the reminder text for a phase in the given style.
func (c *Catalog) PhaseReminder(style Style, kind cycle.PhaseKind) (string, error) {
	if style != StyleGentle && style != StyleHealth {
		return "", fmt.Errorf("%w: %q", ErrUnknownStyle, style)
	}
	p, ok := c.Phases[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPhase, kind)
	}
	return p.Reminders[style], nil
}
