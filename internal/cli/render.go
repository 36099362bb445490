// Package cli renders cycle data for the terminal and stores the settings
// file used by cyclectl.
package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/zapponejosh/wellness-api/internal/cycle"
)

// Theme colors
var (
	ColorBorder    = lipgloss.Color("#3F3A3A")
	ColorText      = lipgloss.Color("#FFF7F5")
	ColorTextMuted = lipgloss.Color("#8C8584")
	ColorAccent    = lipgloss.Color("#E0689B")

	phaseColors = map[cycle.PhaseKind]lipgloss.Color{
		cycle.Menstruation: lipgloss.Color("#D14D6A"),
		cycle.Follicular:   lipgloss.Color("#7FB069"),
		cycle.Ovulation:    lipgloss.Color("#E8A33D"),
		cycle.Luteal:       lipgloss.Color("#8B7EC8"),
	}
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	labelStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Width(16)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)
)

// PhaseStyle returns the style used for a phase's cells and labels.
func PhaseStyle(kind cycle.PhaseKind) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(phaseColors[kind])
}

// RenderTitle renders a centered title in a rounded box.
func RenderTitle(title string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(44).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(titleStyle.Render(title))
}

// RenderStatus renders the headline computation followed by the phase's
// suggestions, if any.
func RenderStatus(s cycle.Settings, today time.Time, c cycle.Computation, suggestions []string) string {
	var b strings.Builder

	line := func(label, value string) {
		b.WriteString("  ")
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}

	b.WriteString(RenderTitle("CYCLE STATUS"))
	b.WriteString("\n\n")

	line("Today", cycle.FormatDate(today))
	line("Cycle day", fmt.Sprintf("%d of %d", c.CycleDay, s.CycleLength))
	b.WriteString("  ")
	b.WriteString(labelStyle.Render("Phase"))
	b.WriteString(PhaseStyle(c.Phase.Kind).Bold(true).Render(c.Phase.Label))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  (%s, days %d-%d)", c.Phase.Kind, c.Phase.Start+1, c.Phase.End+1)))
	b.WriteString("\n")
	line("Next period", cycle.FormatDate(c.NextPeriod))
	line("Ovulation", fmt.Sprintf("%s to %s", cycle.FormatDate(c.Ovulation.Start), cycle.FormatDate(c.Ovulation.End)))

	if c.DaysSince >= s.CycleLength {
		b.WriteString("\n  ")
		b.WriteString(mutedStyle.Render("Predictions count from " + cycle.FormatDate(s.LastPeriodStart) +
			"; update your last period start to move them forward."))
		b.WriteString("\n")
	}

	if len(suggestions) > 0 {
		b.WriteString("\n  ")
		b.WriteString(headerStyle.Render("Suggestions"))
		b.WriteString("\n")
		for _, sug := range suggestions {
			b.WriteString("    • ")
			b.WriteString(valueStyle.Render(sug))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// RenderRing lays the cycle out as rows of perRow day cells colored by
// phase, with today highlighted, followed by a legend.
func RenderRing(days []cycle.RingDay, perRow int) string {
	if perRow <= 0 {
		perRow = 7
	}

	var b strings.Builder
	for i, d := range days {
		if i%perRow == 0 {
			b.WriteString("  ")
		}

		cell := fmt.Sprintf(" %2d ", d.Day)
		style := PhaseStyle(d.Phase)
		if d.IsToday {
			cell = fmt.Sprintf("[%2d]", d.Day)
			style = style.Bold(true).Reverse(true)
		}
		b.WriteString(style.Render(cell))

		if i%perRow == perRow-1 || i == len(days)-1 {
			b.WriteString("\n")
		}
	}

	b.WriteString("\n  ")
	for i, k := range cycle.Kinds() {
		if i > 0 {
			b.WriteString(mutedStyle.Render("  "))
		}
		b.WriteString(PhaseStyle(k).Render("■ " + k.Label()))
	}
	b.WriteString("\n")

	return b.String()
}

// TableRow is one date in a forecast table.
type TableRow struct {
	Date     time.Time
	CycleDay int
	Phase    cycle.Phase
}

// Forecast computes one row per day starting at from.
func Forecast(s cycle.Settings, from time.Time, days int) ([]TableRow, error) {
	rows := make([]TableRow, 0, days)
	for i := 0; i < days; i++ {
		d := cycle.AddDays(from, i)
		c, err := cycle.Compute(s, d)
		if err != nil {
			return nil, err
		}
		rows = append(rows, TableRow{Date: d, CycleDay: c.CycleDay, Phase: c.Phase})
	}
	return rows, nil
}

// RenderForecast renders forecast rows as a bordered table.
func RenderForecast(rows []TableRow) string {
	data := make([][]string, len(rows))
	for i, r := range rows {
		data[i] = []string{
			cycle.FormatDate(r.Date),
			r.Date.Weekday().String()[:3],
			fmt.Sprintf("%d", r.CycleDay),
			r.Phase.Label,
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorBorder)).
		Headers("DATE", "DAY", "CYCLE DAY", "PHASE").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return base.Bold(true).Foreground(ColorAccent)
			}
			if col == 3 && row >= 0 && row < len(rows) {
				return base.Inherit(PhaseStyle(rows[row].Phase.Kind))
			}
			if col == 2 {
				return base.Align(lipgloss.Right).Foreground(ColorText)
			}
			return base.Foreground(ColorText)
		})

	return t.String()
}
