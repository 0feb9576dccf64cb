package progfin

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Metrics are the derived EVM metrics. They are never persisted standalone
// and never mutated: always recompute them from the base measures with
// [Compute].
//
// Monetary fields are rounded to 2 decimals, ratio fields (CPI, SPI, TCPI)
// to 4. The asymmetric precision is part of the contract: snapshots must
// round-trip byte-stable through the store.
type Metrics struct {
	CV        Money           `json:"cv"`        // cost variance, EV-AC
	SV        Money           `json:"sv"`        // schedule variance, EV-PV
	CVPercent decimal.Decimal `json:"cvPercent"` // CV as a percentage of AC
	SVPercent decimal.Decimal `json:"svPercent"` // SV as a percentage of PV
	CPI       decimal.Decimal `json:"cpi"`       // cost performance index, EV/AC
	SPI       decimal.Decimal `json:"spi"`       // schedule performance index, EV/PV
	EAC       Money           `json:"eac"`       // estimate at completion
	ETC       Money           `json:"etc"`       // estimate to complete
	VAC       Money           `json:"vac"`       // variance at completion, BAC-EAC
	TCPI      decimal.Decimal `json:"tcpi"`      // to-complete performance index
}

var hundred = decimal.NewFromInt(100)

// Compute derives the full EVM metric set from the four base measures.
//
// Division guards return an explicit zero sentinel, never NaN or Infinity:
// CPI is 0 when AC is 0, SPI is 0 when PV is 0, and TCPI is 0 when the
// remaining budget BAC-AC is not positive (the target is infeasible, not
// infinitely hard). A non-positive CPI degrades EAC to the bounded
// worst-case BAC+|AC|.
func Compute(m Measures) Metrics {
	pv, ev, ac, bac := m.PV.Dec(), m.EV.Dec(), m.AC.Dec(), m.BAC.Dec()
	cry := m.BAC.Currency()

	cv := ev.Sub(ac)
	sv := ev.Sub(pv)

	cpi := decimal.Zero
	cvPct := decimal.Zero
	if ac.IsPositive() {
		cpi = ev.Div(ac)
		cvPct = cv.Div(ac).Mul(hundred)
	}
	spi := decimal.Zero
	svPct := decimal.Zero
	if pv.IsPositive() {
		spi = ev.Div(pv)
		svPct = sv.Div(pv).Mul(hundred)
	}

	// EAC from the unrounded CPI; rounding happens once, at the end.
	var eac decimal.Decimal
	if cpi.Sign() <= 0 {
		eac = bac.Add(ac.Abs())
	} else {
		eac = bac.Div(cpi)
	}

	// Spent money cannot be "unspent": ETC is monotonic non-negative.
	etc := eac.Sub(ac)
	if etc.IsNegative() {
		etc = decimal.Zero
	}

	vac := bac.Sub(eac)

	remaining := bac.Sub(ac)
	tcpi := decimal.Zero
	if remaining.IsPositive() {
		tcpi = bac.Sub(ev).Div(remaining)
	}

	return Metrics{
		CV:        M(cv.Round(2), cry),
		SV:        M(sv.Round(2), cry),
		CVPercent: cvPct.Round(2),
		SVPercent: svPct.Round(2),
		CPI:       cpi.Round(4),
		SPI:       spi.Round(4),
		EAC:       M(eac.Round(2), cry),
		ETC:       M(etc.Round(2), cry),
		VAC:       M(vac.Round(2), cry),
		TCPI:      tcpi.Round(4),
	}
}

// HealthStatus is the three-band classification of a health score.
type HealthStatus int

const (
	Healthy  HealthStatus = iota // score >= 70
	Warning                      // score >= 50
	Critical                     // otherwise
)

func (s HealthStatus) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Warning:
		return "warning"
	case Critical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseHealthStatus parses a string into a HealthStatus.
func ParseHealthStatus(s string) (HealthStatus, error) {
	switch s {
	case "healthy":
		return Healthy, nil
	case "warning":
		return Warning, nil
	case "critical":
		return Critical, nil
	default:
		return 0, fmt.Errorf("unknown health status: %q", s)
	}
}

func (s HealthStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *HealthStatus) UnmarshalText(b []byte) error {
	v, err := ParseHealthStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// HealthAssessment is the scored view of a metric set.
type HealthAssessment struct {
	Status     HealthStatus `json:"status"`
	Score      int          `json:"score"`
	Indicators []string     `json:"indicators,omitempty"`
}

// health score bands.
var (
	cpiCritical  = decimal.NewFromFloat(0.85)
	cpiWarning   = decimal.NewFromFloat(0.95)
	indexGood    = decimal.NewFromFloat(1.05)
	tcpiHard     = decimal.NewFromFloat(1.05)
	tcpiVeryHard = decimal.NewFromFloat(1.15)
	vacWarnPct   = decimal.NewFromFloat(0.05)
	vacBadPct    = decimal.NewFromFloat(0.10)
)

// Health scores a metric set on a 0-100 scale and classifies it. The score
// starts at 100 and loses points for weak cost and schedule indices, a
// projected overrun at completion, and a hard to-complete target.
//
// Indicator strings are stable: downstream reports and alerts match on the
// leading token ("cost overrun", "schedule slip", "under-budget",
// "ahead-of-schedule", "difficult TCPI target").
func Health(m Measures, x Metrics) HealthAssessment {
	score := 100
	var indicators []string

	switch {
	case x.CPI.LessThan(cpiCritical):
		score -= 30
	case x.CPI.LessThan(cpiWarning):
		score -= 15
	}
	if x.CPI.LessThan(cpiWarning) {
		indicators = append(indicators, fmt.Sprintf("cost overrun: CPI %s below 0.95", x.CPI))
	}

	switch {
	case x.SPI.LessThan(cpiCritical):
		score -= 30
	case x.SPI.LessThan(cpiWarning):
		score -= 15
	}
	if x.SPI.LessThan(cpiWarning) {
		indicators = append(indicators, fmt.Sprintf("schedule slip: SPI %s below 0.95", x.SPI))
	}

	bac := m.BAC.Dec()
	switch {
	case x.VAC.Dec().LessThan(bac.Mul(vacBadPct).Neg()):
		score -= 20
		indicators = append(indicators, fmt.Sprintf("projected cost overrun at completion: VAC %s", x.VAC.SignedString()))
	case x.VAC.Dec().LessThan(bac.Mul(vacWarnPct).Neg()):
		score -= 10
		indicators = append(indicators, fmt.Sprintf("projected cost overrun at completion: VAC %s", x.VAC.SignedString()))
	}

	switch {
	case x.TCPI.GreaterThan(tcpiVeryHard):
		score -= 20
	case x.TCPI.GreaterThan(tcpiHard):
		score -= 10
	}
	if x.TCPI.GreaterThan(tcpiHard) {
		indicators = append(indicators, fmt.Sprintf("difficult TCPI target: %s efficiency required on remaining work", x.TCPI))
	}

	// favorable indicators carry no score change.
	if x.CPI.GreaterThan(indexGood) {
		indicators = append(indicators, fmt.Sprintf("under-budget: CPI %s", x.CPI))
	}
	if x.SPI.GreaterThan(indexGood) {
		indicators = append(indicators, fmt.Sprintf("ahead-of-schedule: SPI %s", x.SPI))
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	status := Critical
	switch {
	case score >= 70:
		status = Healthy
	case score >= 50:
		status = Warning
	}

	return HealthAssessment{Status: status, Score: score, Indicators: indicators}
}
