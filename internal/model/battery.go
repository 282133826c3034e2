package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidBattery is returned when a battery configuration violates a physical invariant.
var ErrInvalidBattery = errors.New("invalid battery config")

// Round-trip efficiency is clamped into this range before being split,
// so that √η never degenerates to 0 or exactly 1.
const (
	minRoundTripEfficiency = 0.01
	maxRoundTripEfficiency = 0.999
)

// BatteryConfig defines the physical parameters used to build a BatteryState.
// Units:
// - CapacityKwh: kWh
// - MaxChargeKw / MaxDischargeKw: kW (one-hour steps, so kW == kWh per step)
// - InitialSocPct / MinSocPct: percent of capacity, 0..100
// - RoundTripEfficiency: fraction (0, 1]
type BatteryConfig struct {
	CapacityKwh         float64 `json:"capacity_kwh"`
	InitialSocPct       float64 `json:"initial_soc_pct"`
	MinSocPct           float64 `json:"min_soc_pct"`
	RoundTripEfficiency float64 `json:"round_trip_efficiency"`
	MaxChargeKw         float64 `json:"max_charge_kw"`
	MaxDischargeKw      float64 `json:"max_discharge_kw"`
}

func (c BatteryConfig) Validate() error {
	if c.CapacityKwh <= 0 || math.IsNaN(c.CapacityKwh) || math.IsInf(c.CapacityKwh, 0) {
		return fmt.Errorf("%w: capacity_kwh must be > 0", ErrInvalidBattery)
	}
	if c.RoundTripEfficiency <= 0 || c.RoundTripEfficiency > 1 || math.IsNaN(c.RoundTripEfficiency) {
		return fmt.Errorf("%w: round_trip_efficiency must be in (0, 1]", ErrInvalidBattery)
	}
	if c.MinSocPct < 0 || c.MinSocPct > 100 || math.IsNaN(c.MinSocPct) {
		return fmt.Errorf("%w: min_soc_pct must be in [0, 100]", ErrInvalidBattery)
	}
	if c.InitialSocPct < c.MinSocPct || c.InitialSocPct > 100 || math.IsNaN(c.InitialSocPct) {
		return fmt.Errorf("%w: initial_soc_pct must be within [min_soc_pct, 100]", ErrInvalidBattery)
	}
	if c.MaxChargeKw < 0 || math.IsNaN(c.MaxChargeKw) {
		return fmt.Errorf("%w: max_charge_kw must be >= 0", ErrInvalidBattery)
	}
	if c.MaxDischargeKw < 0 || math.IsNaN(c.MaxDischargeKw) {
		return fmt.Errorf("%w: max_discharge_kw must be >= 0", ErrInvalidBattery)
	}
	return nil
}

// BatteryState is the mutable battery owned by exactly one day simulation.
// Invariant: MinSocKwh <= SocKwh <= CapacityKwh.
type BatteryState struct {
	CapacityKwh    float64
	SocKwh         float64
	MinSocKwh      float64
	ChargeEff      float64
	DischargeEff   float64
	MaxChargeKw    float64
	MaxDischargeKw float64
}

// NewBatteryState validates cfg and returns a fresh state at the configured initial SOC.
func NewBatteryState(cfg BatteryConfig) (*BatteryState, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	eff := SplitEfficiency(cfg.RoundTripEfficiency)
	return &BatteryState{
		CapacityKwh:    cfg.CapacityKwh,
		SocKwh:         cfg.CapacityKwh * cfg.InitialSocPct / 100,
		MinSocKwh:      cfg.CapacityKwh * cfg.MinSocPct / 100,
		ChargeEff:      eff,
		DischargeEff:   eff,
		MaxChargeKw:    cfg.MaxChargeKw,
		MaxDischargeKw: cfg.MaxDischargeKw,
	}, nil
}

// SplitEfficiency divides a round-trip efficiency symmetrically between the
// charge and discharge legs.
func SplitEfficiency(roundTrip float64) float64 {
	return math.Sqrt(clamp(roundTrip, minRoundTripEfficiency, maxRoundTripEfficiency))
}

// Charge stores up to requestedKw for one hour, limited by the charge rate and
// by the headroom left under capacity (accounting for charge losses).
// It returns the input-side power that was actually accepted.
func (b *BatteryState) Charge(requestedKw float64) float64 {
	headroom := math.Max(0, b.CapacityKwh-b.SocKwh)
	maxByCapacity := headroom / b.ChargeEff
	actual := clamp(requestedKw, 0, math.Min(b.MaxChargeKw, maxByCapacity))
	b.SocKwh += actual * b.ChargeEff
	if b.SocKwh > b.CapacityKwh {
		b.SocKwh = b.CapacityKwh
	}
	return actual
}

// DischargeToLoad delivers up to requestedKw to the load for one hour, limited
// by the discharge rate and by the energy above the SOC floor (after losses).
// It returns the output-side power that was actually delivered.
func (b *BatteryState) DischargeToLoad(requestedKw float64) float64 {
	available := math.Max(0, b.SocKwh-b.MinSocKwh)
	maxDeliverable := available * b.DischargeEff
	actual := clamp(requestedKw, 0, math.Min(b.MaxDischargeKw, maxDeliverable))
	b.SocKwh -= actual / b.DischargeEff
	if b.SocKwh < b.MinSocKwh {
		b.SocKwh = b.MinSocKwh
	}
	return actual
}

// SocPct returns the state of charge as a percentage of capacity.
func (b *BatteryState) SocPct() float64 {
	return b.SocKwh / b.CapacityKwh * 100
}

func clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) || x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
