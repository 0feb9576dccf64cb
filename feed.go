package progfin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

// FeedProvider is a ProgramDataProvider over an HTTP JSON export, typically
// the spreadsheet export the program plan lives in. The four base measures
// are pulled out of the response with configurable JSONPath expressions, so
// the loose coupling to the export's shape is explicit and per-deployment.
type FeedProvider struct {
	// URL is the export endpoint. The placeholders {program} and {date} are
	// substituted per request.
	URL string

	// Paths extracts each measure from the response document.
	Paths FeedPaths

	// Currency is stamped on the returned measures.
	Currency string

	// Client is the HTTP client to use; nil means http.DefaultClient.
	Client *http.Client
}

// FeedPaths holds one JSONPath expression per base measure, e.g.
// "$.totals.pv".
type FeedPaths struct {
	PV  string `toml:"pv"`
	EV  string `toml:"ev"`
	AC  string `toml:"ac"`
	BAC string `toml:"bac"`
}

// Aggregates fetches the program's export and extracts PV/EV/AC/BAC.
func (p *FeedProvider) Aggregates(ctx context.Context, programID string, asOf Date) (Measures, error) {
	addr := strings.NewReplacer("{program}", programID, "{date}", asOf.String()).Replace(p.URL)

	var doc any
	if err := p.jwget(ctx, addr, &doc); err != nil {
		return Measures{}, fmt.Errorf("fetching program feed %q: %w", addr, err)
	}

	pv, err := p.extract(doc, p.Paths.PV, "pv")
	if err != nil {
		return Measures{}, err
	}
	ev, err := p.extract(doc, p.Paths.EV, "ev")
	if err != nil {
		return Measures{}, err
	}
	ac, err := p.extract(doc, p.Paths.AC, "ac")
	if err != nil {
		return Measures{}, err
	}
	bac, err := p.extract(doc, p.Paths.BAC, "bac")
	if err != nil {
		return Measures{}, err
	}

	return Measures{PV: pv, EV: ev, AC: ac, BAC: bac}, nil
}

// extract evaluates one JSONPath expression and coerces the result to Money.
func (p *FeedProvider) extract(doc any, path, field string) (Money, error) {
	jval, err := jsonpath.Get(path, doc)
	if err != nil {
		return Money{}, fmt.Errorf("extracting %s with path %q: %w", field, path, err)
	}
	// jsonpath may return a single value or a one-element list depending on
	// the expression; accept both.
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	switch v := jval.(type) {
	case float64:
		return M(v, p.Currency), nil
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return Money{}, fmt.Errorf("extracting %s with path %q: %q is not a number", field, path, v)
		}
		return M(d, p.Currency), nil
	default:
		return Money{}, fmt.Errorf("extracting %s with path %q: unexpected value %v", field, path, jval)
	}
}

// jwget performs an HTTP GET request and unmarshals the JSON response into
// the provided data structure.
func (p *FeedProvider) jwget(ctx context.Context, addr string, data any) error {
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot http GET %v/%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return err
	}
	return json.Unmarshal(buf.Bytes(), data)
}

var _ ProgramDataProvider = (*FeedProvider)(nil)
