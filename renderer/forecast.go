package renderer

import (
	"strings"

	"github.com/pmtools/progfin"
)

// ForecastMarkdown renders a full program forecast as a markdown report.
func ForecastMarkdown(f *progfin.ProgramForecast) string {
	var b strings.Builder

	h1(&b, "Forecast for %s on %s", f.ProgramID, f.AsOf)
	line(&b, "Method: %s, confidence: **%s**.", f.Cost.Method, f.Confidence)

	h2(&b, "Cost")
	table(&b, []string{"Projection", "Value"}, [][]string{
		{"Estimate at Completion", f.Cost.EAC.String()},
		{"Estimate to Complete", f.Cost.ETC.String()},
		{"Variance at Completion", f.Cost.VAC.SignedString()},
	})

	h2(&b, "Completion")
	onTime := "late"
	if f.Completion.OnTime {
		onTime = "on time"
	}
	line(&b, "Planned end %s, forecast %s (%+d days, %s).",
		f.Completion.PlannedEnd, f.Completion.ForecastDate, f.Completion.VarianceDays, onTime)

	h2(&b, "Scenarios")
	table(&b, []string{"Scenario", "Method", "EAC", "VAC"}, [][]string{
		{"Optimistic", f.Scenarios.Optimistic.Method.String(), f.Scenarios.Optimistic.EAC.String(), f.Scenarios.Optimistic.VAC.SignedString()},
		{"Likely", f.Scenarios.Likely.Method.String(), f.Scenarios.Likely.EAC.String(), f.Scenarios.Likely.VAC.SignedString()},
		{"Pessimistic", f.Scenarios.Pessimistic.Method.String(), f.Scenarios.Pessimistic.EAC.String(), f.Scenarios.Pessimistic.VAC.SignedString()},
	})

	h2(&b, "Required Performance")
	line(&b, "TCPI to BAC: %s. %s", f.Required.TCPIToBAC, f.Required.Message)

	return b.String()
}
