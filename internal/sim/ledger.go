package sim

import (
	"microgrid-dispatch/internal/model"
	"microgrid-dispatch/internal/strategy"
)

// Totals are the day-level sums of a DaySimulation. They are the only
// figures that should be shown as a "total".
type Totals struct {
	Cost           float64 `json:"cost"`
	GridKwh        float64 `json:"grid_kwh"`
	GridToBattKwh  float64 `json:"grid_to_batt_kwh"`
	DieselKwh      float64 `json:"diesel_kwh"`
	SolarToLoadKwh float64 `json:"solar_to_load_kwh"`
	SolarToBattKwh float64 `json:"solar_to_batt_kwh"`
	BattToLoadKwh  float64 `json:"batt_to_load_kwh"`
	CurtailedKwh   float64 `json:"curtailed_kwh"`
	UnmetKwh       float64 `json:"unmet_kwh"`
	Co2Kg          float64 `json:"co2_kg"`
	FinalSocKwh    float64 `json:"final_soc_kwh"`
}

func (t *Totals) add(f model.HourFlows) {
	t.Cost += f.Cost
	t.GridKwh += f.GridImportKw
	t.GridToBattKwh += f.GridToBattKw
	t.DieselKwh += f.DieselToLoadKw
	t.SolarToLoadKwh += f.SolarToLoadKw
	t.SolarToBattKwh += f.SolarToBattKw
	t.BattToLoadKwh += f.BattToLoadKw
	t.CurtailedKwh += f.CurtailedKw
	t.UnmetKwh += f.UnmetLoadKw
	t.Co2Kg += f.Co2Kg
	t.FinalSocKwh = f.SocKwh
}

// DaySimulation is one policy's 24-hour trace. Hourly is the primary
// artifact for "what happened".
type DaySimulation struct {
	Policy strategy.Kind     `json:"policy"`
	Hourly []model.HourFlows `json:"hourly"`
	Totals Totals            `json:"totals"`
}
