package progfin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFeedProviderAggregates(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"totals":{"pv":100000,"ev":110000,"ac":"95000.50","bac":200000}}`))
	}))
	defer srv.Close()

	p := &FeedProvider{
		URL:      srv.URL + "/export/{program}/{date}",
		Currency: "USD",
		Paths: FeedPaths{
			PV:  "$.totals.pv",
			EV:  "$.totals.ev",
			AC:  "$.totals.ac",
			BAC: "$.totals.bac",
		},
	}

	m, err := p.Aggregates(context.Background(), "PRG-1", NewDate(2026, time.August, 24))
	if err != nil {
		t.Fatal(err)
	}

	if got, want := gotPath, "/export/PRG-1/2026-08-24"; got != want {
		t.Errorf("path = %s, want placeholders substituted %s", got, want)
	}
	if got, want := m.PV, usd(100000); !got.Equal(want) {
		t.Errorf("PV = %s, want %s", got, want)
	}
	// String-typed numbers in the export still parse.
	if got, want := m.AC, usd(95000.50); !got.Equal(want) {
		t.Errorf("AC = %s, want %s", got, want)
	}
	if got, want := m.BAC.Currency(), "USD"; got != want {
		t.Errorf("currency = %s, want %s", got, want)
	}
}

func TestFeedProviderBadPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"totals":{"pv":1}}`))
	}))
	defer srv.Close()

	p := &FeedProvider{
		URL:      srv.URL,
		Currency: "USD",
		Paths:    FeedPaths{PV: "$.totals.pv", EV: "$.totals.ev", AC: "$.totals.ac", BAC: "$.totals.bac"},
	}
	if _, err := p.Aggregates(context.Background(), "PRG-1", Today()); err == nil {
		t.Error("missing fields should fail")
	}
}

func TestFeedProviderHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	p := &FeedProvider{URL: srv.URL, Currency: "USD"}
	_, err := p.Aggregates(context.Background(), "PRG-1", Today())
	if err == nil {
		t.Fatal("want error on 403")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("err = %v, want status in message", err)
	}
}
