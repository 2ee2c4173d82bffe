package report

import (
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/xmlvalid/validator/aggregate"
)

type styles struct {
	valid   lipgloss.Style
	invalid lipgloss.Style
	errored lipgloss.Style
	skipped lipgloss.Style
	footer  lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{valid: plain, invalid: plain, errored: plain, skipped: plain, footer: plain}
	}
	return styles{
		valid:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		invalid: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		errored: lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		skipped: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		footer:  lipgloss.NewStyle().Bold(true),
	}
}

// timeUnit picks a sensible rounding for the footer duration.
func timeUnit(s aggregate.Summary) time.Duration {
	if s.Duration >= time.Second {
		return 10 * time.Millisecond
	}
	return time.Millisecond
}
