// Package analysis derives comparison metrics from simulated days.
package analysis

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"microgrid-dispatch/internal/sim"
	"microgrid-dispatch/internal/strategy"
)

// DaySummary describes one policy's day beyond the raw totals.
type DaySummary struct {
	Policy strategy.Kind `json:"policy"`

	TotalCost float64 `json:"total_cost"`
	TotalCo2  float64 `json:"total_co2_kg"`

	PeakGridImportKw float64 `json:"peak_grid_import_kw"`
	MeanHourlyCost   float64 `json:"mean_hourly_cost"`
	StdHourlyCost    float64 `json:"std_hourly_cost"`
	P95HourlyCost    float64 `json:"p95_hourly_cost"`

	// SelfSufficiencyPct is the share of load served without grid or diesel.
	SelfSufficiencyPct float64 `json:"self_sufficiency_pct"`
	// SolarUtilisationPct is the share of generated solar that was not curtailed.
	SolarUtilisationPct float64 `json:"solar_utilisation_pct"`
	// EquivalentCycles is discharged energy over capacity.
	EquivalentCycles float64 `json:"equivalent_cycles"`
}

// Summarize computes a DaySummary. capacityKwh is the battery the day ran with.
func Summarize(run *sim.DaySimulation, capacityKwh float64) DaySummary {
	s := DaySummary{}
	if run == nil {
		return s
	}
	s.Policy = run.Policy
	s.TotalCost = run.Totals.Cost
	s.TotalCo2 = run.Totals.Co2Kg
	if len(run.Hourly) == 0 {
		return s
	}

	costs := make([]float64, len(run.Hourly))
	grid := make([]float64, len(run.Hourly))
	load := make([]float64, len(run.Hourly))
	solar := make([]float64, len(run.Hourly))
	for i, f := range run.Hourly {
		costs[i] = f.Cost
		grid[i] = f.GridImportKw
		load[i] = f.LoadKw
		solar[i] = f.SolarGenKw
	}

	s.PeakGridImportKw = floats.Max(grid)
	s.MeanHourlyCost, s.StdHourlyCost = stat.MeanStdDev(costs, nil)
	sorted := append([]float64(nil), costs...)
	sort.Float64s(sorted)
	s.P95HourlyCost = stat.Quantile(0.95, stat.LinInterp, sorted, nil)

	if totalLoad := floats.Sum(load); totalLoad > 0 {
		external := 0.0
		for _, f := range run.Hourly {
			external += f.GridToLoadKw + f.DieselToLoadKw + f.UnmetLoadKw
		}
		s.SelfSufficiencyPct = clampPct((totalLoad - external) / totalLoad * 100)
	}
	if totalSolar := floats.Sum(solar); totalSolar > 0 {
		s.SolarUtilisationPct = clampPct((totalSolar - run.Totals.CurtailedKwh) / totalSolar * 100)
	}
	if capacityKwh > 0 {
		s.EquivalentCycles = run.Totals.BattToLoadKwh / capacityKwh
	}
	return s
}

// ComparisonSummary is the headline outcome of a compared day.
type ComparisonSummary struct {
	Baseline DaySummary `json:"baseline"`
	Smart    DaySummary `json:"smart"`

	CostSavings      float64 `json:"cost_savings"`
	CostSavingsPct   float64 `json:"cost_savings_pct"`
	Co2SavingsKg     float64 `json:"co2_savings_kg"`
	Co2SavingsPct    float64 `json:"co2_savings_pct"`
	DieselAvoidedKwh float64 `json:"diesel_avoided_kwh"`
}

// SummarizeComparison uses only the comparison's precomputed totals.
func SummarizeComparison(cmp *sim.Comparison, capacityKwh float64) ComparisonSummary {
	if cmp == nil {
		return ComparisonSummary{}
	}
	out := ComparisonSummary{
		Baseline:         Summarize(cmp.Baseline, capacityKwh),
		Smart:            Summarize(cmp.Smart, capacityKwh),
		CostSavings:      cmp.Delta.Cost,
		Co2SavingsKg:     cmp.Delta.Co2Kg,
		DieselAvoidedKwh: cmp.Delta.DieselKwh,
	}
	if cmp.Baseline != nil && cmp.Baseline.Totals.Cost > 0 {
		out.CostSavingsPct = cmp.Delta.Cost / cmp.Baseline.Totals.Cost * 100
	}
	if cmp.Baseline != nil && cmp.Baseline.Totals.Co2Kg > 0 {
		out.Co2SavingsPct = cmp.Delta.Co2Kg / cmp.Baseline.Totals.Co2Kg * 100
	}
	return out
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
