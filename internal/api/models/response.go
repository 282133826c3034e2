package models

import (
	"time"

	"microgrid-dispatch/internal/analysis"
	"microgrid-dispatch/internal/config"
	"microgrid-dispatch/internal/model"
	"microgrid-dispatch/internal/sim"
)

// SimulationResponse represents one stored baseline-vs-smart comparison
type SimulationResponse struct {
	ID        string                     `json:"id"`
	CreatedAt time.Time                  `json:"created_at"`
	ExpiresAt time.Time                  `json:"expires_at"`
	Summary   analysis.ComparisonSummary `json:"summary"`
	Baseline  sim.Totals                 `json:"baseline"`
	Smart     sim.Totals                 `json:"smart"`
	Delta     sim.Delta                  `json:"delta"`
	Hourly    *HourlyTraces              `json:"hourly,omitempty"`
}

// HourlyTraces carries both per-hour ledgers.
type HourlyTraces struct {
	Baseline []model.HourFlows `json:"baseline"`
	Smart    []model.HourFlows `json:"smart"`
}

// TraceResponse is one policy's hourly ledger plus its totals.
type TraceResponse struct {
	ID     string            `json:"id"`
	Mode   string            `json:"mode"`
	Hours  []model.HourFlows `json:"hours"`
	Totals sim.Totals        `json:"totals"`
}

// LiveResponse is a single precomputed hour.
type LiveResponse struct {
	ID   string          `json:"id"`
	Mode string          `json:"mode"`
	Hour model.HourFlows `json:"hour"`
}

// StreamMessage is a server-to-client websocket message.
type StreamMessage struct {
	Type   string           `json:"type"` // "hour", "done", "error"
	Mode   string           `json:"mode,omitempty"`
	Hour   *model.HourFlows `json:"hour,omitempty"`
	Totals *sim.Totals      `json:"totals,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// BatteryInfo represents one battery preset
type BatteryInfo struct {
	ID    string               `json:"id"`
	Name  string               `json:"name"`
	Specs config.BatteryConfig `json:"specs"`
}

// PolicyInfo describes a dispatch policy
type PolicyInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// ParameterInfo describes a policy parameter
type ParameterInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Default     any    `json:"default"`
}

// TariffInfo is the server's time-of-use tariff, the prices the smart policy arbitrages.
type TariffInfo struct {
	BasePrice  float64 `json:"base_price"`
	PeakFactor float64 `json:"peak_factor"`
	PeakPrice  float64 `json:"peak_price"`
	PeakHours  []int   `json:"peak_hours"`
}

// PolicyCatalog is the body of GET /api/v1/policies.
type PolicyCatalog struct {
	Policies []PolicyInfo `json:"policies"`
	Tariff   TariffInfo   `json:"tariff"`
}

// WeatherInfo is a weather condition and its solar multiplier.
type WeatherInfo struct {
	Name       string  `json:"name"`
	Multiplier float64 `json:"multiplier"`
}

// ProfileCatalog lists the synthetic profile options.
type ProfileCatalog struct {
	Weathers     []WeatherInfo `json:"weathers"`
	LoadProfiles []string      `json:"load_profiles"`
}

// RankResponse lists presets by cost savings, best first.
type RankResponse struct {
	Ranked []analysis.RankedPreset `json:"ranked"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
