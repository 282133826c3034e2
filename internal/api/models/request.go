package models

import (
	"microgrid-dispatch/internal/config"
	"microgrid-dispatch/internal/profile"
)

// SimulateRequest is the body of POST /api/v1/simulate. Sections are decoded
// on top of the server's configuration, so any field left out keeps the
// server value.
type SimulateRequest struct {
	// BatteryPreset names a file in the battery directory, without extension.
	BatteryPreset string `json:"battery_preset,omitempty"`
	// Battery fields override the preset (or the server battery) when non-zero.
	Battery config.BatteryConfig `json:"battery"`
	Tariff  config.TariffConfig  `json:"tariff"`
	Grid    config.GridConfig    `json:"grid"`
	Smart   config.SmartConfig   `json:"smart"`
	Profile config.ProfileConfig `json:"profile"`
	// Samples replaces the synthetic profile with a recorded day.
	Samples *profile.Samples `json:"samples,omitempty"`
	Options SimulateOptions  `json:"options"`
}

// SimulateOptions contains optional response parameters
type SimulateOptions struct {
	IncludeHourly bool `json:"include_hourly,omitempty"` // default: false
}

// NewSimulateRequest prefills every overridable section from base.
func NewSimulateRequest(base *config.Config) SimulateRequest {
	c := base.Clone()
	return SimulateRequest{
		Tariff:  c.Tariff,
		Grid:    c.Grid,
		Smart:   c.Smart,
		Profile: c.Profile,
	}
}

// TraceQuery selects a policy trace and an output format.
type TraceQuery struct {
	Mode   string `form:"mode"`   // "baseline" or "smart", default: smart
	Format string `form:"format"` // "json" or "csv", default: json
}

// StreamQuery configures GET /api/v1/simulations/:id/stream
type StreamQuery struct {
	Mode       string `form:"mode"`
	IntervalMs int    `form:"interval_ms"` // 0 = server default
}

// StreamCommand is a client-to-server websocket message.
type StreamCommand struct {
	Type string `json:"type"` // "set_mode", "reset"
	Mode string `json:"mode,omitempty"`
}

// RankQuery represents a request to rank battery presets
type RankQuery struct {
	Weather         string  `form:"weather"`
	LoadProfile     string  `form:"load_profile"`
	SolarCapacityKw float64 `form:"solar_capacity_kw"`
	Limit           int     `form:"limit"` // default: all
}
