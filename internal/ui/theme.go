package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bamsammich/snapdiff/internal/config"
)

// Theme holds the report palette.
type Theme struct {
	Green  lipgloss.Color
	Yellow lipgloss.Color
	Red    lipgloss.Color
	Mauve  lipgloss.Color
	Muted  lipgloss.Color
	Bright lipgloss.Color
}

// DefaultTheme returns the Catppuccin Mocha palette.
func DefaultTheme() Theme {
	return Theme{
		Green:  lipgloss.Color("#a6e3a1"),
		Yellow: lipgloss.Color("#f9e2af"),
		Red:    lipgloss.Color("#f38ba8"),
		Mauve:  lipgloss.Color("#cba6f7"),
		Muted:  lipgloss.Color("#5a6278"),
		Bright: lipgloss.Color("#cdd6f4"),
	}
}

// Apply returns t with the colors set in tc overridden.
func (t Theme) Apply(tc config.ThemeConfig) Theme {
	if tc.Green != nil {
		t.Green = lipgloss.Color(*tc.Green)
	}
	if tc.Yellow != nil {
		t.Yellow = lipgloss.Color(*tc.Yellow)
	}
	if tc.Red != nil {
		t.Red = lipgloss.Color(*tc.Red)
	}
	if tc.Mauve != nil {
		t.Mauve = lipgloss.Color(*tc.Mauve)
	}
	if tc.Muted != nil {
		t.Muted = lipgloss.Color(*tc.Muted)
	}
	if tc.Bright != nil {
		t.Bright = lipgloss.Color(*tc.Bright)
	}
	return t
}

type paint func(string) string

func plain(s string) string { return s }

// reportStyles are the painters used by RenderReport.
type reportStyles struct {
	header      paint
	added       paint
	modified    paint
	typeChanged paint
	deleted     paint
	size        paint
	count       paint
	transfer    paint
	remove      paint
}

func (t Theme) styles(r *lipgloss.Renderer, color bool) reportStyles {
	if !color {
		return reportStyles{plain, plain, plain, plain, plain, plain, plain, plain, plain}
	}
	render := func(st lipgloss.Style) paint {
		return func(s string) string { return st.Render(s) }
	}
	style := func(c lipgloss.Color) paint {
		return render(r.NewStyle().Foreground(c))
	}
	bold := func(c lipgloss.Color) paint {
		return render(r.NewStyle().Bold(true).Foreground(c))
	}
	return reportStyles{
		header:      bold(t.Mauve),
		added:       style(t.Green),
		modified:    style(t.Yellow),
		typeChanged: style(t.Yellow),
		deleted:     style(t.Red),
		size:        style(t.Muted),
		count:       bold(t.Bright),
		transfer:    bold(t.Green),
		remove:      bold(t.Red),
	}
}
