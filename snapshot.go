package progfin

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Trend classifies the direction a program's performance is moving.
type Trend int

const (
	TrendStable Trend = iota
	TrendImproving
	TrendDeclining
)

func (t Trend) String() string {
	switch t {
	case TrendImproving:
		return "improving"
	case TrendDeclining:
		return "declining"
	case TrendStable:
		return "stable"
	default:
		return "unknown"
	}
}

// ParseTrend parses a string into a Trend.
func ParseTrend(s string) (Trend, error) {
	switch s {
	case "improving":
		return TrendImproving, nil
	case "declining":
		return TrendDeclining, nil
	case "stable":
		return TrendStable, nil
	default:
		return 0, fmt.Errorf("unknown trend: %q", s)
	}
}

func (t Trend) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Trend) UnmarshalText(b []byte) error {
	v, err := ParseTrend(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// EVMSnapshot is one immutable capture of a program's EVM state. Snapshots
// are created only by [SnapshotStore.Create] and never updated; re-analysis
// of a period means a new row, not a mutation of an old one. Hard deletion
// exists only as an explicit administrative action.
type EVMSnapshot struct {
	ID              string       `json:"snapshotId"`
	ProgramID       string       `json:"programId"`
	ProjectID       string       `json:"projectId,omitempty"`
	Date            Date         `json:"snapshotDate"`
	ReportingPeriod string       `json:"reportingPeriod"` // e.g. "2026-Q3"
	Measures        Measures     `json:"measures"`
	Metrics         Metrics      `json:"metrics"`
	PercentComplete Percent      `json:"percentComplete"`         // EV share of BAC
	PercentSchedule Percent      `json:"percentScheduleComplete"` // PV share of BAC
	HealthScore     int          `json:"healthScore"`
	HealthStatus    HealthStatus `json:"healthStatus"`
	Trend           Trend        `json:"trend"`
	CalculatedBy    string       `json:"calculatedBy"`
	CalculatedAt    time.Time    `json:"calculatedDate"`
	Notes           string       `json:"notes,omitempty"`
}

// SnapshotStore creates and queries immutable EVM snapshots.
type SnapshotStore struct {
	Store    RowStore
	Provider ProgramDataProvider

	// Now is the clock used for CalculatedAt; nil means time.Now.
	Now func() time.Time
}

func (s *SnapshotStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// listCap bounds every read projection; history beyond it needs pagination
// at the caller.
const listCap = 1000

var (
	trendGood = decimal.NewFromFloat(1.05)
	trendBad  = decimal.NewFromFloat(0.9)
)

// deriveTrend classifies a snapshot's direction from its health and indices.
func deriveTrend(health HealthAssessment, x Metrics) Trend {
	switch {
	case health.Status == Healthy && (x.CPI.GreaterThanOrEqual(trendGood) || x.SPI.GreaterThanOrEqual(trendGood)):
		return TrendImproving
	case health.Status == Critical || (x.CPI.LessThan(trendBad) && x.SPI.LessThan(trendBad)):
		return TrendDeclining
	default:
		return TrendStable
	}
}

// Create aggregates the program's base measures as of the given date,
// derives metrics, health, and trend, and appends a new immutable snapshot
// row. A zero date means today.
func (s *SnapshotStore) Create(ctx context.Context, programID string, on Date, actor string) (*EVMSnapshot, error) {
	if programID == "" {
		return nil, validationf("program id must not be empty")
	}
	if on.IsZero() {
		on = DateOf(s.now())
	}

	m, err := s.Provider.Aggregates(ctx, programID, on)
	if err != nil {
		return nil, &ComputationError{Msg: fmt.Sprintf("fetching aggregates for program %q", programID), Err: err}
	}

	x := Compute(m)
	health := Health(m, x)

	var pctComplete, pctSchedule Percent
	if m.BAC.IsPositive() {
		pctComplete = Percent(m.EV.Dec().Div(m.BAC.Dec()).Mul(hundred).Round(2).InexactFloat64())
		pctSchedule = Percent(m.PV.Dec().Div(m.BAC.Dec()).Mul(hundred).Round(2).InexactFloat64())
	}

	id, err := s.Store.NextID(ctx, TableSnapshots)
	if err != nil {
		return nil, err
	}

	snap := &EVMSnapshot{
		ID:              id,
		ProgramID:       programID,
		Date:            on,
		ReportingPeriod: on.ReportingPeriod(),
		Measures:        m,
		Metrics:         x,
		PercentComplete: pctComplete,
		PercentSchedule: pctSchedule,
		HealthScore:     health.Score,
		HealthStatus:    health.Status,
		Trend:           deriveTrend(health, x),
		CalculatedBy:    actor,
		CalculatedAt:    s.now(),
		// The textual score is kept alongside the first-class field so that
		// tools still parsing notes keep working on new rows.
		Notes: fmt.Sprintf("health %s, score: %d", health.Status, health.Score),
	}

	if err := s.Store.AppendSnapshot(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// List returns a program's snapshots sorted by date ascending, capped at
// 1,000 rows.
func (s *SnapshotStore) List(ctx context.Context, programID string) ([]*EVMSnapshot, error) {
	rows, err := s.Store.Snapshots(ctx, func(x *EVMSnapshot) bool {
		return x.ProgramID == programID
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	if len(rows) > listCap {
		rows = rows[len(rows)-listCap:]
	}
	return rows, nil
}

// Latest returns a program's most recent snapshot.
func (s *SnapshotStore) Latest(ctx context.Context, programID string) (*EVMSnapshot, error) {
	rows, err := s.List(ctx, programID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &NotFoundError{Table: TableSnapshots, ID: programID}
	}
	return rows[len(rows)-1], nil
}

// History returns a program's snapshots from the last given number of
// months, sorted by date ascending and capped at 1,000 rows.
func (s *SnapshotStore) History(ctx context.Context, programID string, months int) ([]*EVMSnapshot, error) {
	cutoff := DateOf(s.now()).AddMonth(-months)
	rows, err := s.Store.Snapshots(ctx, func(x *EVMSnapshot) bool {
		return x.ProgramID == programID && !x.Date.Before(cutoff)
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	if len(rows) > listCap {
		rows = rows[len(rows)-listCap:]
	}
	return rows, nil
}

// Delete hard-deletes a snapshot row. This is an administrative action; the
// normal lifecycle never removes history.
func (s *SnapshotStore) Delete(ctx context.Context, id string) error {
	return s.Store.DeleteSnapshot(ctx, id)
}

// SnapshotComparison is the period-over-period delta between two snapshots.
type SnapshotComparison struct {
	BaselineID string          `json:"baselineId"`
	CurrentID  string          `json:"currentId"`
	CPIDelta   decimal.Decimal `json:"cpiDelta"`
	SPIDelta   decimal.Decimal `json:"spiDelta"`
	CPITrend   Trend           `json:"cpiTrend"`
	SPITrend   Trend           `json:"spiTrend"`
	// HealthDelta is current minus baseline score. It is only meaningful
	// when HealthDeltaKnown is true: rows predating the health-score field
	// whose notes carry no parseable score are excluded from delta math.
	HealthDelta      int  `json:"healthDelta"`
	HealthDeltaKnown bool `json:"healthDeltaKnown"`
}

// trendThreshold is the absolute index delta below which a change is noise.
var trendThreshold = decimal.NewFromFloat(0.02)

func classifyDelta(delta decimal.Decimal) Trend {
	switch {
	case delta.GreaterThan(trendThreshold):
		return TrendImproving
	case delta.LessThan(trendThreshold.Neg()):
		return TrendDeclining
	default:
		return TrendStable
	}
}

var scoreRE = regexp.MustCompile(`score:\s*(\d+)`)

// healthScore returns a snapshot's health score. Recent rows carry it as a
// first-class field; for legacy rows the "score: N" token is parsed out of
// the free-text notes as a fallback.
func healthScore(s *EVMSnapshot) (int, bool) {
	if s.HealthScore > 0 {
		return s.HealthScore, true
	}
	if m := scoreRE.FindStringSubmatch(s.Notes); m != nil {
		var n int
		fmt.Sscanf(m[1], "%d", &n)
		return n, true
	}
	return 0, false
}

// Compare returns the period-over-period deltas between a baseline and a
// current snapshot. Index trends are classified by a ±0.02 absolute
// threshold.
func (s *SnapshotStore) Compare(ctx context.Context, baselineID, currentID string) (*SnapshotComparison, error) {
	baseline, err := s.Store.Snapshot(ctx, baselineID)
	if err != nil {
		return nil, err
	}
	current, err := s.Store.Snapshot(ctx, currentID)
	if err != nil {
		return nil, err
	}

	cpiDelta := current.Metrics.CPI.Sub(baseline.Metrics.CPI)
	spiDelta := current.Metrics.SPI.Sub(baseline.Metrics.SPI)

	cmp := &SnapshotComparison{
		BaselineID: baselineID,
		CurrentID:  currentID,
		CPIDelta:   cpiDelta,
		SPIDelta:   spiDelta,
		CPITrend:   classifyDelta(cpiDelta),
		SPITrend:   classifyDelta(spiDelta),
	}

	baseScore, baseOK := healthScore(baseline)
	curScore, curOK := healthScore(current)
	if baseOK && curOK {
		cmp.HealthDelta = curScore - baseScore
		cmp.HealthDeltaKnown = true
	}
	return cmp, nil
}
