package renderer

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pmtools/progfin"
	"github.com/yuin/goldmark"
)

// mustParse feeds the report through a markdown parser so structural
// breakage (unterminated tables, bad headings) fails the test.
func mustParse(t *testing.T, md string) {
	t.Helper()
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		t.Fatalf("markdown does not parse: %v\n%s", err, md)
	}
	if !strings.Contains(buf.String(), "<h1>") {
		t.Errorf("report has no top heading:\n%s", md)
	}
}

func usd(v float64) progfin.Money { return progfin.M(v, "USD") }

func sampleSnapshot() *progfin.EVMSnapshot {
	m := progfin.Measures{PV: usd(100000), EV: usd(110000), AC: usd(95000), BAC: usd(200000)}
	x := progfin.Compute(m)
	h := progfin.Health(m, x)
	return &progfin.EVMSnapshot{
		ID:              "SNAP-0001",
		ProgramID:       "PRG-1",
		Date:            progfin.NewDate(2026, time.August, 24),
		ReportingPeriod: "2026-Q3",
		Measures:        m,
		Metrics:         x,
		PercentComplete: 55,
		PercentSchedule: 50,
		HealthScore:     h.Score,
		HealthStatus:    h.Status,
	}
}

func TestSnapshotMarkdown(t *testing.T) {
	md := SnapshotMarkdown(sampleSnapshot())
	mustParse(t, md)

	for _, want := range []string{"SNAP-0001", "PRG-1", "2026-Q3", "$110,000.00", "1.1579"} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q:\n%s", want, md)
		}
	}
}

func TestHistoryMarkdown(t *testing.T) {
	md := HistoryMarkdown("PRG-1", []*progfin.EVMSnapshot{sampleSnapshot()})
	mustParse(t, md)
	if !strings.Contains(md, "| Date |") {
		t.Errorf("report missing history table:\n%s", md)
	}

	empty := HistoryMarkdown("PRG-1", nil)
	mustParse(t, empty)
	if !strings.Contains(empty, "No snapshots") {
		t.Errorf("empty report = %q", empty)
	}
}

func TestComparisonMarkdown(t *testing.T) {
	cmp := &progfin.SnapshotComparison{
		BaselineID: "SNAP-0001", CurrentID: "SNAP-0002",
		CPITrend: progfin.TrendImproving, SPITrend: progfin.TrendStable,
		HealthDelta: 15, HealthDeltaKnown: true,
	}
	md := ComparisonMarkdown(cmp)
	mustParse(t, md)
	if !strings.Contains(md, "+15 points") {
		t.Errorf("report missing health delta:\n%s", md)
	}

	cmp.HealthDeltaKnown = false
	md = ComparisonMarkdown(cmp)
	if !strings.Contains(md, "unknown") {
		t.Errorf("report must flag unknown baseline score:\n%s", md)
	}
}

func TestForecastMarkdown(t *testing.T) {
	m := progfin.Measures{PV: usd(100000), EV: usd(80000), AC: usd(110000), BAC: usd(200000)}
	f := &progfin.ProgramForecast{
		ProgramID: "PRG-1",
		AsOf:      progfin.NewDate(2026, time.August, 24),
		Measures:  m,
		Metrics:   progfin.Compute(m),
		Cost:      progfin.ForecastCost(m, progfin.MethodCPI),
		Completion: progfin.ForecastCompletionDate(
			progfin.NewDate(2026, time.December, 31), progfin.Compute(m).SPI, progfin.NewDate(2026, time.August, 24)),
		Scenarios: progfin.Scenarios(m),
		Required:  progfin.CalculateRequiredPerformance(m, progfin.Money{}),
	}

	md := ForecastMarkdown(f)
	mustParse(t, md)
	for _, want := range []string{"Scenarios", "Pessimistic", "Required Performance"} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q:\n%s", want, md)
		}
	}
}

func TestReconciliationMarkdown(t *testing.T) {
	run := &progfin.ReconciliationRun{
		ProgramID: "PRG-1",
		Matched:   []progfin.MatchedPair{{TransactionID: "TXN-0001", FlowID: "CF-0001", Variance: usd(0.5)}},
		Report:    "1 matched",
	}
	mustParse(t, RunMarkdown(run))

	report := &progfin.ReconciliationReport{
		ProgramID: "PRG-1",
		From:      progfin.NewDate(2026, time.June, 1),
		To:        progfin.NewDate(2026, time.August, 24),
		Rate:      95.5, Status: progfin.ReportReviewNeeded,
		Recommendations: []string{"review 2 unreconciled transactions"},
	}
	md := ReportMarkdown(report)
	mustParse(t, md)
	if !strings.Contains(md, "review_needed") {
		t.Errorf("report missing status:\n%s", md)
	}
}

func TestDiscrepanciesMarkdown(t *testing.T) {
	r := &progfin.DiscrepancyReport{
		ProgramID:  "PRG-1",
		Duplicates: []progfin.DuplicateTransactions{{FirstID: "TXN-1", SecondID: "TXN-2", Amount: usd(250), Date: progfin.NewDate(2026, time.March, 1)}},
		Orphans:    []progfin.OrphanedTransaction{{TransactionID: "TXN-3"}},
	}
	md := DiscrepanciesMarkdown(r)
	mustParse(t, md)
	if !strings.Contains(md, "(none)") {
		t.Errorf("orphan without reference should render placeholder:\n%s", md)
	}

	clean := DiscrepanciesMarkdown(&progfin.DiscrepancyReport{ProgramID: "PRG-1"})
	mustParse(t, clean)
	if !strings.Contains(clean, "No discrepancies") {
		t.Errorf("clean report = %q", clean)
	}
}
