package report

import (
	"fmt"
	"strings"
)

// Markdown renders rep as a human-readable markdown document, grounded on
// original_source/agent/report.py's report_to_markdown.
func Markdown(rep Report) string {
	var b strings.Builder
	b.WriteString("# AI-Ready Data Assessment Report\n\n")
	fmt.Fprintf(&b, "**Created:** %s\n\n", rep.CreatedAt)
	if rep.ConnectionFingerprint != "" {
		fmt.Fprintf(&b, "**Connection:** %s\n\n", rep.ConnectionFingerprint)
	}

	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- Total tests: %d\n", rep.Summary.TotalTests)
	fmt.Fprintf(&b, "- L1 pass: %d (%.1f%%)\n", rep.Summary.L1Pass, rep.Summary.L1Pct)
	fmt.Fprintf(&b, "- L2 pass: %d (%.1f%%)\n", rep.Summary.L2Pass, rep.Summary.L2Pct)
	fmt.Fprintf(&b, "- L3 pass: %d (%.1f%%)\n\n", rep.Summary.L3Pass, rep.Summary.L3Pct)

	if len(rep.FactorSummary) > 0 {
		b.WriteString("## By Factor\n")
		for _, fs := range rep.FactorSummary {
			fmt.Fprintf(&b, "- **%s**: L1 %.1f%% / L2 %.1f%% / L3 %.1f%% (%d tests)\n",
				fs.Factor, fs.Summary.L1Pct, fs.Summary.L2Pct, fs.Summary.L3Pct, fs.Summary.TotalTests)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Results\n\n")
	for _, r := range rep.Results {
		status := "FAIL"
		if r.Verdict.L1Pass {
			status = "PASS"
		}
		fmt.Fprintf(&b, "- **%s** (%s/%s): %s\n", r.TestID, r.Factor, r.Requirement, status)
	}

	for _, dp := range rep.DataProducts {
		fmt.Fprintf(&b, "\n## Data Product: %s\n", dp.Name)
		fmt.Fprintf(&b, "- Total tests: %d\n", dp.Summary.TotalTests)
		fmt.Fprintf(&b, "- L1 pass: %d (%.1f%%)\n", dp.Summary.L1Pass, dp.Summary.L1Pct)
	}

	return b.String()
}
