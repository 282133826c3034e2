package model

// HourFlows captures what happened in one simulated hour.
// All power quantities are kW averaged over the hour, so they double as kWh.
type HourFlows struct {
	Hour int `json:"hour"`

	SolarGenKw float64 `json:"solar_gen_kw"`
	LoadKw     float64 `json:"load_kw"`

	SolarToLoadKw  float64 `json:"solar_to_load_kw"`
	SolarToBattKw  float64 `json:"solar_to_batt_kw"`
	BattToLoadKw   float64 `json:"batt_to_load_kw"`
	GridToLoadKw   float64 `json:"grid_to_load_kw"`
	GridToBattKw   float64 `json:"grid_to_batt_kw"`
	DieselToLoadKw float64 `json:"diesel_to_load_kw"`
	CurtailedKw    float64 `json:"curtailed_kw"`

	GridImportKw float64 `json:"grid_import_kw"`
	UnmetLoadKw  float64 `json:"unmet_load_kw"`

	SocKwh float64 `json:"soc_kwh"`
	SocPct float64 `json:"soc_pct"`

	Cost  float64 `json:"cost"`
	Co2Kg float64 `json:"co2_kg"`

	Tariff float64 `json:"tariff"`
	IsPeak bool    `json:"is_peak"`

	Action Action `json:"action"`
}

// BatteryChargeKw is the total input-side power put into the battery this hour.
func (f HourFlows) BatteryChargeKw() float64 {
	return f.SolarToBattKw + f.GridToBattKw
}
