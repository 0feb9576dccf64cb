package progfin

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func newSnapshotStore(provider *fakeProvider) (*SnapshotStore, *MemStore) {
	store := NewMemStore()
	return &SnapshotStore{Store: store, Provider: provider, Now: testClock}, store
}

func TestSnapshotCreate(t *testing.T) {
	provider := &fakeProvider{Measures: Measures{
		PV: usd(100000), EV: usd(110000), AC: usd(95000), BAC: usd(200000),
	}}
	s, _ := newSnapshotStore(provider)

	snap, err := s.Create(context.Background(), "PRG-1", NewDate(2026, time.August, 24), "analyst")
	if err != nil {
		t.Fatal(err)
	}

	if got, want := snap.ID, "SNAP-0001"; got != want {
		t.Errorf("id = %s, want %s", got, want)
	}
	if got, want := snap.ReportingPeriod, "2026-Q3"; got != want {
		t.Errorf("period = %s, want %s", got, want)
	}
	if got, want := snap.PercentComplete.String(), "55.00%"; got != want {
		t.Errorf("percent complete = %s, want %s", got, want)
	}
	if got, want := snap.HealthStatus, Healthy; got != want {
		t.Errorf("health = %s, want %s", got, want)
	}
	if got, want := snap.Trend, TrendImproving; got != want {
		t.Errorf("trend = %s, want %s", got, want)
	}
	if got, want := snap.CalculatedBy, "analyst"; got != want {
		t.Errorf("calculated by = %s, want %s", got, want)
	}
	if !strings.Contains(snap.Notes, "score: 100") {
		t.Errorf("notes = %q, want textual score", snap.Notes)
	}
}

func TestSnapshotCreateZeroDateMeansToday(t *testing.T) {
	provider := &fakeProvider{Measures: Measures{
		PV: usd(100), EV: usd(100), AC: usd(100), BAC: usd(1000),
	}}
	s, _ := newSnapshotStore(provider)

	snap, err := s.Create(context.Background(), "PRG-1", Date{}, "analyst")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := snap.Date, testDay; got != want {
		t.Errorf("date = %s, want clock day %s", got, want)
	}
}

func TestSnapshotCreateProviderFailure(t *testing.T) {
	provider := &fakeProvider{Err: errors.New("export unavailable")}
	s, _ := newSnapshotStore(provider)

	_, err := s.Create(context.Background(), "PRG-1", testDay, "analyst")
	var ce *ComputationError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want *ComputationError", err)
	}
	if !strings.Contains(err.Error(), "export unavailable") {
		t.Errorf("err = %v, want wrapped cause", err)
	}
}

func TestSnapshotImmutability(t *testing.T) {
	provider := &fakeProvider{Measures: Measures{
		PV: usd(100), EV: usd(100), AC: usd(100), BAC: usd(1000),
	}}
	s, store := newSnapshotStore(provider)

	snap, err := s.Create(context.Background(), "PRG-1", testDay, "analyst")
	if err != nil {
		t.Fatal(err)
	}

	// Mutating the returned row must not leak into the store.
	snap.HealthScore = 1
	stored, err := store.Snapshot(context.Background(), snap.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.HealthScore == 1 {
		t.Error("snapshot row mutated through a read copy")
	}
}

func TestSnapshotListAndLatest(t *testing.T) {
	provider := &fakeProvider{Measures: Measures{
		PV: usd(100), EV: usd(100), AC: usd(100), BAC: usd(1000),
	}}
	s, _ := newSnapshotStore(provider)
	ctx := context.Background()

	// Created out of order; listings must sort by date.
	for _, d := range []Date{testDay, testDay.AddMonth(-2), testDay.AddMonth(-1)} {
		if _, err := s.Create(ctx, "PRG-1", d, "analyst"); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.Create(ctx, "PRG-2", testDay, "analyst"); err != nil {
		t.Fatal(err)
	}

	rows, err := s.List(ctx, "PRG-1")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(rows), 3; got != want {
		t.Fatalf("len = %d, want %d", got, want)
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].Date.Before(rows[i-1].Date) {
			t.Errorf("rows out of order: %s before %s", rows[i].Date, rows[i-1].Date)
		}
	}

	latest, err := s.Latest(ctx, "PRG-1")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := latest.Date, testDay; got != want {
		t.Errorf("latest = %s, want %s", got, want)
	}

	if _, err := s.Latest(ctx, "PRG-404"); err == nil {
		t.Error("Latest on unknown program should fail")
	}
}

func TestSnapshotHistoryWindow(t *testing.T) {
	provider := &fakeProvider{Measures: Measures{
		PV: usd(100), EV: usd(100), AC: usd(100), BAC: usd(1000),
	}}
	s, _ := newSnapshotStore(provider)
	ctx := context.Background()

	for _, d := range []Date{testDay.AddMonth(-8), testDay.AddMonth(-2), testDay} {
		if _, err := s.Create(ctx, "PRG-1", d, "analyst"); err != nil {
			t.Fatal(err)
		}
	}

	rows, err := s.History(ctx, "PRG-1", 3)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(rows), 2; got != want {
		t.Errorf("len = %d, want %d", got, want)
	}
}

func TestSnapshotDelete(t *testing.T) {
	provider := &fakeProvider{Measures: Measures{
		PV: usd(100), EV: usd(100), AC: usd(100), BAC: usd(1000),
	}}
	s, _ := newSnapshotStore(provider)
	ctx := context.Background()

	snap, err := s.Create(ctx, "PRG-1", testDay, "analyst")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, snap.ID); err != nil {
		t.Fatal(err)
	}
	var nf *NotFoundError
	if _, err := s.Store.Snapshot(ctx, snap.ID); !errors.As(err, &nf) {
		t.Errorf("err = %v, want *NotFoundError", err)
	}
}

func TestSnapshotCompare(t *testing.T) {
	provider := &fakeProvider{Measures: Measures{
		PV: usd(100000), EV: usd(80000), AC: usd(100000), BAC: usd(200000),
	}}
	s, _ := newSnapshotStore(provider)
	ctx := context.Background()

	baseline, err := s.Create(ctx, "PRG-1", testDay.AddMonth(-1), "analyst")
	if err != nil {
		t.Fatal(err)
	}

	// The program recovers: CPI 0.8 to 1.0, SPI 0.8 to 0.81.
	provider.Measures = Measures{PV: usd(100000), EV: usd(81000), AC: usd(81000), BAC: usd(200000)}
	current, err := s.Create(ctx, "PRG-1", testDay, "analyst")
	if err != nil {
		t.Fatal(err)
	}

	cmp, err := s.Compare(ctx, baseline.ID, current.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := cmp.CPIDelta.String(), "0.2"; got != want {
		t.Errorf("CPI delta = %s, want %s", got, want)
	}
	if got, want := cmp.CPITrend, TrendImproving; got != want {
		t.Errorf("CPI trend = %s, want %s", got, want)
	}
	// A 0.01 SPI move is below the noise threshold.
	if got, want := cmp.SPITrend, TrendStable; got != want {
		t.Errorf("SPI trend = %s, want %s", got, want)
	}
	if !cmp.HealthDeltaKnown {
		t.Fatal("both snapshots carry scores, delta must be known")
	}
	if cmp.HealthDelta <= 0 {
		t.Errorf("health delta = %d, want positive", cmp.HealthDelta)
	}
}

func TestSnapshotCompareLegacyScores(t *testing.T) {
	store := NewMemStore()
	s := &SnapshotStore{Store: store, Provider: &fakeProvider{}, Now: testClock}
	ctx := context.Background()

	current := &EVMSnapshot{ID: "SNAP-C", ProgramID: "PRG-1", Date: testDay, HealthScore: 85}
	if err := store.AppendSnapshot(ctx, current); err != nil {
		t.Fatal(err)
	}

	t.Run("parseable notes fall back", func(t *testing.T) {
		legacy := &EVMSnapshot{
			ID: "SNAP-A", ProgramID: "PRG-1", Date: testDay.AddMonth(-1),
			Notes: "migrated row, score: 60",
		}
		if err := store.AppendSnapshot(ctx, legacy); err != nil {
			t.Fatal(err)
		}
		cmp, err := s.Compare(ctx, legacy.ID, current.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !cmp.HealthDeltaKnown {
			t.Fatal("score parsed from notes must count")
		}
		if got, want := cmp.HealthDelta, 25; got != want {
			t.Errorf("health delta = %d, want %d", got, want)
		}
	})

	t.Run("unparseable notes are excluded", func(t *testing.T) {
		legacy := &EVMSnapshot{
			ID: "SNAP-B", ProgramID: "PRG-1", Date: testDay.AddMonth(-1),
			Notes: "migrated row, no assessment",
		}
		if err := store.AppendSnapshot(ctx, legacy); err != nil {
			t.Fatal(err)
		}
		cmp, err := s.Compare(ctx, legacy.ID, current.ID)
		if err != nil {
			t.Fatal(err)
		}
		if cmp.HealthDeltaKnown {
			t.Error("unknown baseline score must not produce a delta")
		}
	})
}
