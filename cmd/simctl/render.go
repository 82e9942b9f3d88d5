package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tbourn/go-boardgame-planner/internal/domain"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)

	headStyle = lipgloss.NewStyle().Bold(true)

	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))

	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5F5F87")).
			Padding(0, 1)
)

// scoreStyle colors the balance score: green from 7, yellow from 4, red below.
func scoreStyle(score float64) lipgloss.Style {
	c := "#FF5F5F"
	switch {
	case score >= 7:
		c = "#5FD75F"
	case score >= 4:
		c = "#FFD75F"
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Bold(true)
}

func render(rule *domain.Rule, req domain.SimulationRequest, results []domain.GameResult, report domain.BalanceReport) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Rule %d", rule.ID)))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%d games, %d players, %d turn limit", req.SimulationCount, req.PlayerCount, req.MaxTurns)))
	b.WriteString("\n\n")

	b.WriteString(headStyle.Render(fmt.Sprintf("%-4s %-10s %5s %5s  %s", "game", "winner", "turns", "min", "scores")))
	b.WriteString("\n")
	for _, g := range results {
		if g.Failed {
			b.WriteString(failStyle.Render(fmt.Sprintf("%-4d %-10s %s", g.GameID, "failed", g.Error)))
			b.WriteString("\n")
			continue
		}
		b.WriteString(fmt.Sprintf("%-4d %-10s %5d %5d  %s\n", g.GameID, g.Winner, g.TotalTurns, g.DurationMinutes, scoreLine(g.Score)))
	}
	b.WriteString("\n")

	var body strings.Builder
	body.WriteString("balance score ")
	body.WriteString(scoreStyle(report.BalanceScore).Render(fmt.Sprintf("%.1f / 10", report.BalanceScore)))
	body.WriteString("\n")
	body.WriteString(report.SimulationSummary)
	if len(report.IssuesDetected) > 0 {
		body.WriteString("\n\n")
		body.WriteString(headStyle.Render("issues"))
		for _, s := range report.IssuesDetected {
			body.WriteString("\n- " + s)
		}
	}
	if len(report.Recommendations) > 0 {
		body.WriteString("\n\n")
		body.WriteString(headStyle.Render("recommendations"))
		for _, s := range report.Recommendations {
			body.WriteString("\n- " + s)
		}
	}
	b.WriteString(boxStyle.Render(body.String()))
	return b.String()
}

func scoreLine(scores map[string]float64) string {
	names := make([]string, 0, len(scores))
	for n := range scores {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, fmt.Sprintf("%s=%g", n, scores[n]))
	}
	return strings.Join(parts, " ")
}
