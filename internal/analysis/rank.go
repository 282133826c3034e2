package analysis

import (
	"fmt"
	"sort"

	"microgrid-dispatch/internal/model"
	"microgrid-dispatch/internal/sim"
)

// Preset is a named battery to evaluate.
type Preset struct {
	Name    string
	Battery model.BatteryConfig
}

type RankedPreset struct {
	Name    string              `json:"name"`
	Battery model.BatteryConfig `json:"battery"`
	ComparisonSummary
}

// RankPresets compares every preset on the same inputs and sorts descending by
// smart-over-baseline cost savings. Ties keep name order.
func RankPresets(e *sim.Engine, inputs model.DayInputs, cfg sim.Config, presets []Preset) ([]RankedPreset, error) {
	out := make([]RankedPreset, 0, len(presets))
	for _, p := range presets {
		c := cfg
		c.Battery = p.Battery
		cmp, err := e.Compare(inputs, c)
		if err != nil {
			return nil, fmt.Errorf("preset %s: %w", p.Name, err)
		}
		out = append(out, RankedPreset{
			Name:              p.Name,
			Battery:           p.Battery,
			ComparisonSummary: SummarizeComparison(cmp, p.Battery.CapacityKwh),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CostSavings != out[j].CostSavings {
			return out[i].CostSavings > out[j].CostSavings
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
