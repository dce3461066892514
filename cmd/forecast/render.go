package main

import (
	"fmt"
	"strings"

	"scenario_forecast/pkg/core/projection"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorText   = lipgloss.Color("#FFFCF0")
	colorBorder = lipgloss.Color("#282726")
	colorAccent = lipgloss.Color("#3AA99F")
	colorMuted  = lipgloss.Color("#6F6E69")
	colorGreen  = lipgloss.Color("#879A39")
	colorRed    = lipgloss.Color("#D14D41")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorText).
			Align(lipgloss.Center)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)

// renderTitle renders a centered title bar in a bordered box.
func renderTitle(title string) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

func renderMuted(s string) string {
	return mutedStyle.Render(s)
}

// renderMetrics lists the headline metrics, EBITDA colored by sign.
func renderMetrics(m projection.KeyMetrics) string {
	ebitda := lipgloss.NewStyle().Foreground(colorGreen)
	if m.EBITDA12M < 0 {
		ebitda = lipgloss.NewStyle().Foreground(colorRed)
	}

	lines := []string{
		labelStyle.Render("Revenue (horizon)  ") + fmt.Sprintf("%.2f", m.Revenue12M),
		labelStyle.Render("EBITDA (horizon)   ") + ebitda.Render(fmt.Sprintf("%.2f", m.EBITDA12M)),
		labelStyle.Render("EBITDA margin last ") + fmt.Sprintf("%.2f%%", m.EBITDAMarginLast*100),
	}
	return strings.Join(lines, "\n")
}
