package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"aird/internal/report"
)

var (
	richTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A"))
	richPass  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A"))
	richFail  = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935"))
	richMuted = lipgloss.NewStyle().Foreground(lipgloss.Color("#9aa5b1"))
	richBox   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// RichSummary renders a terminal-friendly summary of rep, used when stdout
// is a TTY and the markdown format was requested (spec.md §6: this summary
// then goes to stderr, stdout stays empty for machine consumers).
func RichSummary(rep report.Report) string {
	var b strings.Builder
	b.WriteString(richTitle.Render("AI-Ready Data Assessment"))
	b.WriteString("\n")
	b.WriteString(richMuted.Render(rep.CreatedAt))
	b.WriteString("\n\n")

	summaryLine := fmt.Sprintf(
		"L1 %s  L2 %s  L3 %s  (%d tests)",
		pctBadge(rep.Summary.L1Pass, rep.Summary.L1Pct),
		pctBadge(rep.Summary.L2Pass, rep.Summary.L2Pct),
		pctBadge(rep.Summary.L3Pass, rep.Summary.L3Pct),
		rep.Summary.TotalTests,
	)
	b.WriteString(richBox.Render(summaryLine))
	b.WriteString("\n")

	for _, fs := range rep.FactorSummary {
		b.WriteString(fmt.Sprintf("  %-12s L1 %5.1f%%  L2 %5.1f%%  L3 %5.1f%%\n",
			fs.Factor, fs.Summary.L1Pct, fs.Summary.L2Pct, fs.Summary.L3Pct))
	}
	return b.String()
}

func pctBadge(count int, pct float64) string {
	text := fmt.Sprintf("%d (%.1f%%)", count, pct)
	if pct >= 80 {
		return richPass.Render(text)
	}
	return richFail.Render(text)
}
