package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jimmy2822/homebrew-goxel/common"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	passStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	partialStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// RenderConsole formats the report for a terminal. The report itself
// is never modified.
func RenderConsole(report *common.RunReport) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Goxel Benchmark Report"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("run %s at %s", report.RunID, report.Timestamp.Format("2006-01-02 15:04:05"))))
	b.WriteString("\n")
	if report.System.Platform != "" {
		b.WriteString(dimStyle.Render(fmt.Sprintf("%s, %s (%d cores), %.0f MB RAM, %s",
			report.System.Platform, report.System.CPUModel, report.System.CPUCores,
			report.System.MemTotalMB, report.System.GoVersion)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Results"))
	b.WriteString("\n")
	for _, r := range report.Results {
		b.WriteString(fmt.Sprintf("  %s %s/%s", statusGlyph(r.Status), r.Name, r.Mode))
		if m, ok := r.Metrics[common.MetricAvgLatency]; ok {
			b.WriteString(fmt.Sprintf("  avg %.2f%s", m.Value, m.Unit))
		}
		if m, ok := r.Metrics[common.MetricThroughput]; ok {
			b.WriteString(fmt.Sprintf("  %.1f %s", m.Value, m.Unit))
		}
		if m, ok := r.Metrics[common.MetricSuccessRate]; ok {
			b.WriteString(fmt.Sprintf("  %.1f%% ok", m.Value))
		}
		b.WriteString("\n")
	}

	if len(report.Comparisons) > 0 {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("CLI vs Daemon"))
		b.WriteString("\n")
		for _, c := range report.Comparisons {
			line := fmt.Sprintf("  %-20s %-13s %10.2f -> %-10.2f %s",
				c.TestName, c.MetricName, c.BaselineValue, c.CandidateValue, c.Unit)
			if c.ImprovementRatio != nil {
				line += fmt.Sprintf("  %.1fx", *c.ImprovementRatio)
			} else {
				line += dimStyle.Render("  n/a")
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	if len(report.Regressions) > 0 {
		b.WriteString("\n")
		b.WriteString(failStyle.Render("Regressions"))
		b.WriteString("\n")
		for _, r := range report.Regressions {
			b.WriteString("  " + failStyle.Render("✗ "+r.String()))
			b.WriteString("\n")
		}
	}
	for _, s := range report.SkippedBaseline {
		b.WriteString(dimStyle.Render("  skipped: " + s))
		b.WriteString("\n")
	}

	if len(report.Evaluation.Details) > 0 {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("Targets"))
		b.WriteString("\n")
		for _, d := range report.Evaluation.Details {
			glyph := passStyle.Render("✓")
			if !d.Passed {
				glyph = failStyle.Render("✗")
			}
			b.WriteString(fmt.Sprintf("  %s %-20s target %-12s actual %s\n", glyph, d.Metric, d.Target, d.Actual))
		}
		verdict := passStyle.Render("PASS")
		if !report.Evaluation.OverallPass {
			verdict = failStyle.Render("FAIL")
		}
		b.WriteString(fmt.Sprintf("\n%s (%d met, %d failed)\n",
			verdict, report.Evaluation.TargetsMet, report.Evaluation.TargetsFailed))
	}
	return b.String()
}

func statusGlyph(status string) string {
	switch status {
	case "pass":
		return passStyle.Render("✓")
	case "partial":
		return partialStyle.Render("~")
	default:
		return failStyle.Render("✗")
	}
}
