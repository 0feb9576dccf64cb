package progfin

import (
	"strings"
	"testing"
)

func TestComputeAheadProgram(t *testing.T) {
	m := Measures{PV: usd(100000), EV: usd(110000), AC: usd(95000), BAC: usd(200000)}
	x := Compute(m)

	if got, want := x.CV, usd(15000); !got.Equal(want) {
		t.Errorf("CV = %s, want %s", got, want)
	}
	if got, want := x.SV, usd(10000); !got.Equal(want) {
		t.Errorf("SV = %s, want %s", got, want)
	}
	if got, want := x.CPI.String(), "1.1579"; got != want {
		t.Errorf("CPI = %s, want %s", got, want)
	}
	if got, want := x.SPI.String(), "1.1"; got != want {
		t.Errorf("SPI = %s, want %s", got, want)
	}
	if got, want := x.EAC, usd(172727.27); !got.Equal(want) {
		t.Errorf("EAC = %s, want %s", got, want)
	}
	if got, want := x.ETC, usd(77727.27); !got.Equal(want) {
		t.Errorf("ETC = %s, want %s", got, want)
	}
	if got, want := x.VAC, usd(27272.73); !got.Equal(want) {
		t.Errorf("VAC = %s, want %s", got, want)
	}
	if got, want := x.TCPI.String(), "0.8571"; got != want {
		t.Errorf("TCPI = %s, want %s", got, want)
	}
}

func TestComputeStrugglingProgram(t *testing.T) {
	m := Measures{PV: usd(100000), EV: usd(80000), AC: usd(110000), BAC: usd(200000)}
	x := Compute(m)

	if got, want := x.CV, usd(-30000); !got.Equal(want) {
		t.Errorf("CV = %s, want %s", got, want)
	}
	if got, want := x.CPI.String(), "0.7273"; got != want {
		t.Errorf("CPI = %s, want %s", got, want)
	}
	if got, want := x.SPI.String(), "0.8"; got != want {
		t.Errorf("SPI = %s, want %s", got, want)
	}
	if got, want := x.EAC, usd(275000); !got.Equal(want) {
		t.Errorf("EAC = %s, want %s", got, want)
	}
	if got, want := x.VAC, usd(-75000); !got.Equal(want) {
		t.Errorf("VAC = %s, want %s", got, want)
	}
	if got, want := x.TCPI.String(), "1.3333"; got != want {
		t.Errorf("TCPI = %s, want %s", got, want)
	}
}

func TestComputeZeroSentinels(t *testing.T) {
	t.Run("zero actual cost", func(t *testing.T) {
		x := Compute(Measures{PV: usd(100), EV: usd(100), AC: usd(0), BAC: usd(200)})
		if !x.CPI.IsZero() {
			t.Errorf("CPI = %s, want 0", x.CPI)
		}
		// degenerate CPI degrades EAC to the bounded worst case BAC+|AC|.
		if got, want := x.EAC, usd(200); !got.Equal(want) {
			t.Errorf("EAC = %s, want %s", got, want)
		}
	})
	t.Run("zero planned value", func(t *testing.T) {
		x := Compute(Measures{PV: usd(0), EV: usd(100), AC: usd(100), BAC: usd(200)})
		if !x.SPI.IsZero() {
			t.Errorf("SPI = %s, want 0", x.SPI)
		}
	})
	t.Run("exhausted budget", func(t *testing.T) {
		x := Compute(Measures{PV: usd(100), EV: usd(100), AC: usd(250), BAC: usd(200)})
		if !x.TCPI.IsZero() {
			t.Errorf("TCPI = %s, want 0", x.TCPI)
		}
	})
	t.Run("all zero", func(t *testing.T) {
		x := Compute(Measures{PV: usd(0), EV: usd(0), AC: usd(0), BAC: usd(0)})
		if !x.CPI.IsZero() || !x.SPI.IsZero() || !x.TCPI.IsZero() {
			t.Errorf("indices = %s/%s/%s, want all 0", x.CPI, x.SPI, x.TCPI)
		}
	})
}

func TestHealthPerfectProgram(t *testing.T) {
	m := Measures{PV: usd(100000), EV: usd(100000), AC: usd(100000), BAC: usd(200000)}
	h := Health(m, Compute(m))

	if got, want := h.Score, 100; got != want {
		t.Errorf("score = %d, want %d", got, want)
	}
	if got, want := h.Status, Healthy; got != want {
		t.Errorf("status = %s, want %s", got, want)
	}
	if len(h.Indicators) != 0 {
		t.Errorf("indicators = %v, want none", h.Indicators)
	}
}

func TestHealthCriticalProgram(t *testing.T) {
	// CPI and SPI at 0.8, an 11% projected overrun, and a TCPI of 1.2.
	m := Measures{PV: usd(100000), EV: usd(80000), AC: usd(100000), BAC: usd(200000)}
	h := Health(m, Compute(m))

	if got, want := h.Score, 0; got != want {
		t.Errorf("score = %d, want %d", got, want)
	}
	if got, want := h.Status, Critical; got != want {
		t.Errorf("status = %s, want %s", got, want)
	}
}

func TestHealthWarningProgram(t *testing.T) {
	// CPI 0.9 costs 15 points, the implied 11% overrun at completion 20 more.
	m := Measures{PV: usd(90000), EV: usd(90000), AC: usd(100000), BAC: usd(10000000)}
	h := Health(m, Compute(m))

	if got, want := h.Score, 65; got != want {
		t.Errorf("score = %d, want %d", got, want)
	}
	if got, want := h.Status, Warning; got != want {
		t.Errorf("status = %s, want %s", got, want)
	}

	var hasOverrun bool
	for _, ind := range h.Indicators {
		if strings.HasPrefix(ind, "cost overrun") {
			hasOverrun = true
		}
	}
	if !hasOverrun {
		t.Errorf("indicators = %v, want a cost overrun entry", h.Indicators)
	}
}

func TestHealthFavorableIndicators(t *testing.T) {
	m := Measures{PV: usd(100000), EV: usd(110000), AC: usd(95000), BAC: usd(200000)}
	h := Health(m, Compute(m))

	if got, want := h.Score, 100; got != want {
		t.Errorf("score = %d, want %d", got, want)
	}
	var underBudget, ahead bool
	for _, ind := range h.Indicators {
		if strings.HasPrefix(ind, "under-budget") {
			underBudget = true
		}
		if strings.HasPrefix(ind, "ahead-of-schedule") {
			ahead = true
		}
	}
	if !underBudget || !ahead {
		t.Errorf("indicators = %v, want under-budget and ahead-of-schedule", h.Indicators)
	}
}

func TestHealthStatusRoundTrip(t *testing.T) {
	for _, s := range []HealthStatus{Healthy, Warning, Critical} {
		got, err := ParseHealthStatus(s.String())
		if err != nil {
			t.Fatalf("ParseHealthStatus(%q): %v", s, err)
		}
		if got != s {
			t.Errorf("ParseHealthStatus(%q) = %s", s, got)
		}
	}
	if _, err := ParseHealthStatus("fine"); err == nil {
		t.Error("ParseHealthStatus(fine) should fail")
	}
}
