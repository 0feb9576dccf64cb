package renderer

import (
	"fmt"
	"strings"

	"github.com/pmtools/progfin"
)

// SnapshotMarkdown renders one EVM snapshot as a markdown report.
func SnapshotMarkdown(s *progfin.EVMSnapshot) string {
	var b strings.Builder

	h1(&b, "EVM Snapshot %s on %s", s.ID, s.Date)
	line(&b, "Program %s, period %s.", s.ProgramID, s.ReportingPeriod)
	line(&b, "Health: **%s** (score %d), trend %s.", s.HealthStatus, s.HealthScore, s.Trend)

	h2(&b, "Measures")
	table(&b, []string{"Measure", "Value"}, [][]string{
		{"Planned Value", s.Measures.PV.String()},
		{"Earned Value", s.Measures.EV.String()},
		{"Actual Cost", s.Measures.AC.String()},
		{"Budget at Completion", s.Measures.BAC.String()},
	})

	h2(&b, "Metrics")
	table(&b, []string{"Metric", "Value"}, [][]string{
		{"Cost Variance", s.Metrics.CV.SignedString()},
		{"Schedule Variance", s.Metrics.SV.SignedString()},
		{"CPI", s.Metrics.CPI.String()},
		{"SPI", s.Metrics.SPI.String()},
		{"EAC", s.Metrics.EAC.String()},
		{"ETC", s.Metrics.ETC.String()},
		{"VAC", s.Metrics.VAC.SignedString()},
		{"TCPI", s.Metrics.TCPI.String()},
	})

	h2(&b, "Progress")
	line(&b, "Work complete: %s of BAC earned, %s planned.", s.PercentComplete, s.PercentSchedule)

	return b.String()
}

// HistoryMarkdown renders a program's snapshot history as one table.
func HistoryMarkdown(programID string, snaps []*progfin.EVMSnapshot) string {
	var b strings.Builder

	h1(&b, "Snapshot History for %s", programID)
	if len(snaps) == 0 {
		line(&b, "No snapshots recorded.")
		return b.String()
	}

	rows := make([][]string, 0, len(snaps))
	for _, s := range snaps {
		rows = append(rows, []string{
			s.Date.String(), s.ReportingPeriod,
			s.Metrics.CPI.String(), s.Metrics.SPI.String(),
			fmt.Sprintf("%d", s.HealthScore), s.HealthStatus.String(), s.Trend.String(),
		})
	}
	table(&b, []string{"Date", "Period", "CPI", "SPI", "Score", "Health", "Trend"}, rows)

	return b.String()
}

// ComparisonMarkdown renders a period-over-period snapshot comparison.
func ComparisonMarkdown(c *progfin.SnapshotComparison) string {
	var b strings.Builder

	h1(&b, "Snapshot Comparison")
	line(&b, "Baseline %s against current %s.", c.BaselineID, c.CurrentID)

	health := "unknown (baseline predates health scoring)"
	if c.HealthDeltaKnown {
		health = fmt.Sprintf("%+d points", c.HealthDelta)
	}

	table(&b, []string{"Dimension", "Delta", "Trend"}, [][]string{
		{"CPI", c.CPIDelta.String(), c.CPITrend.String()},
		{"SPI", c.SPIDelta.String(), c.SPITrend.String()},
		{"Health score", health, ""},
	})

	return b.String()
}
