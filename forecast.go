package progfin

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// EACMethod selects the estimate-at-completion methodology.
type EACMethod int

const (
	// MethodCPI assumes the cost efficiency to date continues: EAC = BAC/CPI.
	MethodCPI EACMethod = iota
	// MethodCPISPI compounds cost and schedule efficiency on the remaining
	// work: EAC = AC + (BAC-EV)/(CPI*SPI).
	MethodCPISPI
	// MethodBottomUp assumes no further drift on remaining work:
	// EAC = AC + (BAC-EV).
	MethodBottomUp
)

func (m EACMethod) String() string {
	switch m {
	case MethodCPI:
		return "cpi"
	case MethodCPISPI:
		return "cpi-spi"
	case MethodBottomUp:
		return "bottom-up"
	default:
		return "unknown"
	}
}

// ParseEACMethod parses a string into an EACMethod.
func ParseEACMethod(s string) (EACMethod, error) {
	switch s {
	case "cpi":
		return MethodCPI, nil
	case "cpi-spi":
		return MethodCPISPI, nil
	case "bottom-up":
		return MethodBottomUp, nil
	default:
		return 0, fmt.Errorf("unknown EAC method: %q", s)
	}
}

// Forecast is a completion-cost projection under one methodology.
type Forecast struct {
	Method EACMethod `json:"method"`
	EAC    Money     `json:"eac"`
	ETC    Money     `json:"etc"`
	VAC    Money     `json:"vac"`
}

// ForecastCost projects the estimate at completion under the given method.
// Degenerate indices never divide by zero: a non-positive CPI (or CPI*SPI
// product) falls back to a bounded worst case instead.
func ForecastCost(m Measures, method EACMethod) Forecast {
	return forecastCost(m, method, decimal.NewFromInt(1), decimal.NewFromInt(1))
}

// forecastCost is ForecastCost with index adjustment factors, used by
// Scenarios to stress the observed CPI/SPI.
func forecastCost(m Measures, method EACMethod, cpiFactor, spiFactor decimal.Decimal) Forecast {
	pv, ev, ac, bac := m.PV.Dec(), m.EV.Dec(), m.AC.Dec(), m.BAC.Dec()
	cry := m.BAC.Currency()

	// Indices stay unrounded here so the CPI method reproduces the EAC of
	// [Compute] exactly.
	cpi := decimal.Zero
	if ac.IsPositive() {
		cpi = ev.Div(ac)
	}
	spi := decimal.Zero
	if pv.IsPositive() {
		spi = ev.Div(pv)
	}
	cpi = cpi.Mul(cpiFactor)
	spi = spi.Mul(spiFactor)

	var eac decimal.Decimal
	switch method {
	case MethodCPI:
		if cpi.Sign() <= 0 {
			eac = bac.Add(ac.Abs())
		} else {
			eac = bac.Div(cpi)
		}
	case MethodCPISPI:
		product := cpi.Mul(spi)
		if product.Sign() <= 0 {
			// compound worst case: remaining work at face value plus the
			// full remaining budget as overrun allowance.
			eac = ac.Add(bac.Sub(ev)).Add(bac.Sub(ac).Abs())
		} else {
			eac = ac.Add(bac.Sub(ev).Div(product))
		}
	case MethodBottomUp:
		eac = ac.Add(bac.Sub(ev))
	}

	etc := eac.Sub(ac)
	if etc.IsNegative() {
		etc = decimal.Zero
	}

	return Forecast{
		Method: method,
		EAC:    M(eac.Round(2), cry),
		ETC:    M(etc.Round(2), cry),
		VAC:    M(bac.Sub(eac).Round(2), cry),
	}
}

// CompletionForecast projects the completion date from schedule efficiency.
type CompletionForecast struct {
	PlannedEnd   Date `json:"plannedEnd"`
	ForecastDate Date `json:"forecastDate"`
	VarianceDays int  `json:"varianceDays"`
	OnTime       bool `json:"onTime"`
}

// ForecastCompletionDate stretches the remaining schedule by the inverse of
// SPI. A non-positive SPI means the program is stalled; the forecast then
// returns the explicit sentinel plannedEnd+1 year with a 365-day variance
// instead of a division-driven blowup. Finishing early is always on time:
// only a slip beyond 7 days clears the OnTime flag.
func ForecastCompletionDate(plannedEnd Date, spi decimal.Decimal, today Date) CompletionForecast {
	remainingDays := today.DaysUntil(plannedEnd)
	if remainingDays < 0 {
		remainingDays = 0
	}

	if spi.Sign() <= 0 {
		return CompletionForecast{
			PlannedEnd:   plannedEnd,
			ForecastDate: plannedEnd.Add(365),
			VarianceDays: 365,
			OnTime:       false,
		}
	}

	stretched := decimal.NewFromInt(int64(remainingDays)).Div(spi)
	forecastDate := today.Add(int(stretched.Round(0).IntPart()))
	varianceDays := plannedEnd.DaysUntil(forecastDate)

	return CompletionForecast{
		PlannedEnd:   plannedEnd,
		ForecastDate: forecastDate,
		VarianceDays: varianceDays,
		OnTime:       varianceDays <= 7,
	}
}

// ConfidenceLevel grades how much a forecast can be trusted, based on the
// stability of recent CPI observations.
type ConfidenceLevel int

const (
	ConfidenceLow ConfidenceLevel = iota
	ConfidenceMedium
	ConfidenceHigh
)

func (c ConfidenceLevel) String() string {
	switch c {
	case ConfidenceLow:
		return "low"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceHigh:
		return "high"
	default:
		return "unknown"
	}
}

func (c ConfidenceLevel) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// AssessConfidence grades forecast confidence from snapshot history: it
// needs at least 2 snapshots in the 3 months before asOf, then grades the
// population standard deviation of their CPIs (<0.05 high, <0.15 medium,
// otherwise low).
func AssessConfidence(history []*EVMSnapshot, asOf Date) ConfidenceLevel {
	windowStart := asOf.AddMonth(-3)
	var cpis []float64
	for _, s := range history {
		if s.Date.Before(windowStart) || s.Date.After(asOf) {
			continue
		}
		cpis = append(cpis, s.Metrics.CPI.InexactFloat64())
	}
	if len(cpis) < 2 {
		return ConfidenceLow
	}

	var sum float64
	for _, v := range cpis {
		sum += v
	}
	mean := sum / float64(len(cpis))
	var sq float64
	for _, v := range cpis {
		sq += (v - mean) * (v - mean)
	}
	stddev := math.Sqrt(sq / float64(len(cpis)))

	switch {
	case stddev < 0.05:
		return ConfidenceHigh
	case stddev < 0.15:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// ScenarioSet bundles the three standard what-if projections.
type ScenarioSet struct {
	Optimistic  Forecast `json:"optimistic"`
	Likely      Forecast `json:"likely"`
	Pessimistic Forecast `json:"pessimistic"`
}

var (
	optimisticFactor  = decimal.NewFromFloat(1.1)
	pessimisticFactor = decimal.NewFromFloat(0.9)
	one               = decimal.NewFromInt(1)
)

// Scenarios projects optimistic, likely, and pessimistic completion costs.
// The optimistic case lifts both indices by 10% and runs the CPI method; the
// pessimistic case cuts both by 10% and runs the compounding CPI*SPI method.
// The formula asymmetry is a deliberate conservative bias: the downside
// compounds, the upside does not.
func Scenarios(m Measures) ScenarioSet {
	return ScenarioSet{
		Optimistic:  forecastCost(m, MethodCPI, optimisticFactor, optimisticFactor),
		Likely:      forecastCost(m, MethodCPI, one, one),
		Pessimistic: forecastCost(m, MethodCPISPI, pessimisticFactor, pessimisticFactor),
	}
}

// RequiredPerformance states the future cost efficiency needed to hit a
// budget target.
type RequiredPerformance struct {
	TCPIToBAC    decimal.Decimal `json:"tcpiToBAC"`    // efficiency to finish on BAC
	TCPIToTarget decimal.Decimal `json:"tcpiToTarget"` // efficiency to finish on the custom target
	Impossible   bool            `json:"impossible"`   // remaining budget is exhausted
	Feasible     bool            `json:"feasible"`
	Message      string          `json:"message"`
}

var (
	tcpiAchievable  = decimal.NewFromFloat(1.1)
	tcpiChallenging = decimal.NewFromFloat(1.2)
)

// CalculateRequiredPerformance computes the TCPI against BAC and against an
// optional custom target EAC (pass the zero Money to target BAC itself).
// A non-positive remaining budget is the impossible sentinel: both indices
// are 0 and the target is flagged infeasible.
func CalculateRequiredPerformance(m Measures, targetEAC Money) RequiredPerformance {
	ac, ev, bac := m.AC.Dec(), m.EV.Dec(), m.BAC.Dec()
	work := bac.Sub(ev)

	remainingBAC := bac.Sub(ac)
	rp := RequiredPerformance{}
	if remainingBAC.Sign() <= 0 {
		rp.Impossible = true
	} else {
		rp.TCPIToBAC = work.Div(remainingBAC).Round(4)
	}

	target := targetEAC.Dec()
	if targetEAC.IsZero() {
		target = bac
	}
	remainingTarget := target.Sub(ac)
	if remainingTarget.Sign() <= 0 {
		rp.Impossible = true
	} else {
		rp.TCPIToTarget = work.Div(remainingTarget).Round(4)
	}

	rp.Feasible = !rp.Impossible && rp.TCPIToTarget.LessThanOrEqual(tcpiAchievable)

	switch {
	case rp.Impossible:
		rp.Message = "target is infeasible: remaining budget is exhausted"
	case rp.TCPIToTarget.LessThanOrEqual(one):
		rp.Message = "no efficiency improvement needed to hit the target"
	case rp.TCPIToTarget.LessThanOrEqual(tcpiAchievable):
		rp.Message = fmt.Sprintf("achievable: requires %s efficiency on remaining work", rp.TCPIToTarget)
	case rp.TCPIToTarget.LessThanOrEqual(tcpiChallenging):
		rp.Message = fmt.Sprintf("challenging: requires %s efficiency on remaining work", rp.TCPIToTarget)
	default:
		rp.Message = fmt.Sprintf("very challenging: requires %s efficiency on remaining work", rp.TCPIToTarget)
	}

	return rp
}

// ForecastEngine bundles cost, date, confidence, and scenario projections
// for a program into one report, reading measures and history through the
// snapshot store.
type ForecastEngine struct {
	Snapshots *SnapshotStore
}

// ProgramForecast is the full forecast report for a program.
type ProgramForecast struct {
	ProgramID  string              `json:"programId"`
	AsOf       Date                `json:"asOf"`
	Measures   Measures            `json:"measures"`
	Metrics    Metrics             `json:"metrics"`
	Cost       Forecast            `json:"cost"`
	Completion CompletionForecast  `json:"completion"`
	Confidence ConfidenceLevel     `json:"confidence"`
	Scenarios  ScenarioSet         `json:"scenarios"`
	Required   RequiredPerformance `json:"required"`
}

// Report builds the full forecast for a program as of a date.
func (e *ForecastEngine) Report(ctx context.Context, programID string, asOf, plannedEnd Date, method EACMethod) (*ProgramForecast, error) {
	m, err := e.Snapshots.Provider.Aggregates(ctx, programID, asOf)
	if err != nil {
		return nil, &ComputationError{Msg: fmt.Sprintf("fetching aggregates for program %q", programID), Err: err}
	}
	x := Compute(m)

	history, err := e.Snapshots.History(ctx, programID, 3)
	if err != nil {
		return nil, err
	}

	return &ProgramForecast{
		ProgramID:  programID,
		AsOf:       asOf,
		Measures:   m,
		Metrics:    x,
		Cost:       ForecastCost(m, method),
		Completion: ForecastCompletionDate(plannedEnd, x.SPI, asOf),
		Confidence: AssessConfidence(history, asOf),
		Scenarios:  Scenarios(m),
		Required:   CalculateRequiredPerformance(m, Money{}),
	}, nil
}
