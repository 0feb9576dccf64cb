package progfin

import (
	"testing"
	"time"
)

func TestDateQuarterAndPeriod(t *testing.T) {
	tests := []struct {
		date    Date
		quarter int
		period  string
	}{
		{NewDate(2026, time.January, 15), 1, "2026-Q1"},
		{NewDate(2026, time.March, 31), 1, "2026-Q1"},
		{NewDate(2026, time.April, 1), 2, "2026-Q2"},
		{NewDate(2026, time.August, 24), 3, "2026-Q3"},
		{NewDate(2026, time.December, 31), 4, "2026-Q4"},
	}
	for _, tc := range tests {
		if got := tc.date.Quarter(); got != tc.quarter {
			t.Errorf("%s Quarter() = %d, want %d", tc.date, got, tc.quarter)
		}
		if got := tc.date.ReportingPeriod(); got != tc.period {
			t.Errorf("%s ReportingPeriod() = %s, want %s", tc.date, got, tc.period)
		}
	}
}

func TestFiscalYear(t *testing.T) {
	tests := []struct {
		date Date
		fy   int
	}{
		{NewDate(2026, time.October, 1), 2026},
		{NewDate(2026, time.December, 31), 2026},
		{NewDate(2027, time.January, 1), 2026},
		{NewDate(2027, time.September, 30), 2026},
		{NewDate(2026, time.September, 30), 2025},
	}
	for _, tc := range tests {
		if got := tc.date.FiscalYear(); got != tc.fy {
			t.Errorf("%s FiscalYear() = %d, want %d", tc.date, got, tc.fy)
		}
	}

	if got, want := FiscalYearStart(2026), NewDate(2026, time.October, 1); got != want {
		t.Errorf("FiscalYearStart(2026) = %s, want %s", got, want)
	}
	if got, want := FiscalYearEnd(2026), NewDate(2027, time.September, 30); got != want {
		t.Errorf("FiscalYearEnd(2026) = %s, want %s", got, want)
	}
}

func TestParseDate(t *testing.T) {
	t.Run("iso", func(t *testing.T) {
		got, err := ParseDate("2026-08-24")
		if err != nil {
			t.Fatal(err)
		}
		if want := NewDate(2026, time.August, 24); got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})
	t.Run("lenient iso", func(t *testing.T) {
		got, err := ParseDate("2026-8-4")
		if err != nil {
			t.Fatal(err)
		}
		if want := NewDate(2026, time.August, 4); got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})
	t.Run("relative", func(t *testing.T) {
		got, err := ParseDate("-2w")
		if err != nil {
			t.Fatal(err)
		}
		if want := Today().Add(-14); got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})
	t.Run("today shorthand", func(t *testing.T) {
		got, err := ParseDate("0d")
		if err != nil {
			t.Fatal(err)
		}
		if want := Today(); got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})
	t.Run("garbage", func(t *testing.T) {
		if _, err := ParseDate("not-a-date"); err == nil {
			t.Error("want error")
		}
	})
}

func TestDateArithmetic(t *testing.T) {
	d := NewDate(2026, time.January, 31)

	if got, want := d.Add(1), NewDate(2026, time.February, 1); got != want {
		t.Errorf("Add(1) = %s, want %s", got, want)
	}
	if got, want := d.DaysUntil(NewDate(2026, time.February, 10)), 10; got != want {
		t.Errorf("DaysUntil = %d, want %d", got, want)
	}
	if got, want := NewDate(2026, time.March, 10).DaysUntil(d), -38; got != want {
		t.Errorf("DaysUntil backwards = %d, want %d", got, want)
	}
	if !d.Before(NewDate(2026, time.February, 1)) {
		t.Error("Before failed")
	}
	if !NewDate(2026, time.February, 1).After(d) {
		t.Error("After failed")
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2026, time.August, 24)
	b, err := d.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(b), `"2026-08-24"`; got != want {
		t.Errorf("marshal = %s, want %s", got, want)
	}

	var back Date
	if err := back.UnmarshalJSON(b); err != nil {
		t.Fatal(err)
	}
	if back != d {
		t.Errorf("round trip = %s, want %s", back, d)
	}

	var zero Date
	b, err = zero.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(b), `""`; got != want {
		t.Errorf("zero marshal = %s, want %s", got, want)
	}
	var backZero Date
	if err := backZero.UnmarshalJSON([]byte(`""`)); err != nil {
		t.Fatal(err)
	}
	if !backZero.IsZero() {
		t.Errorf("zero round trip = %s, want zero", backZero)
	}
}
