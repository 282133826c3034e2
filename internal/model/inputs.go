package model

import (
	"errors"
	"fmt"
	"math"
)

// HoursPerDay is the length of every simulated day.
const HoursPerDay = 24

// ErrInvalidInput is returned when an hourly input trace is malformed.
var ErrInvalidInput = errors.New("invalid hourly input")

// HourInput is one hour's exogenous conditions. It is immutable once built and
// shared by every policy evaluated on the same day.
type HourInput struct {
	Hour       int     `json:"hour"`
	SolarGenKw float64 `json:"solar_gen_kw"`
	LoadKw     float64 `json:"load_kw"`
	Tariff     float64 `json:"tariff"`
	IsPeak     bool    `json:"is_peak"`
}

// DayInputs is the 24-entry trace for one simulated day, ordered by hour.
type DayInputs []HourInput

func (d DayInputs) Validate() error {
	if len(d) != HoursPerDay {
		return fmt.Errorf("%w: expected %d hours, got %d", ErrInvalidInput, HoursPerDay, len(d))
	}
	for i, in := range d {
		if in.Hour != i {
			return fmt.Errorf("%w: entry %d has hour %d", ErrInvalidInput, i, in.Hour)
		}
		if in.SolarGenKw < 0 || math.IsNaN(in.SolarGenKw) || math.IsInf(in.SolarGenKw, 0) {
			return fmt.Errorf("%w: hour %d solar_gen_kw must be >= 0", ErrInvalidInput, i)
		}
		if in.LoadKw < 0 || math.IsNaN(in.LoadKw) || math.IsInf(in.LoadKw, 0) {
			return fmt.Errorf("%w: hour %d load_kw must be >= 0", ErrInvalidInput, i)
		}
		if in.Tariff < 0 || math.IsNaN(in.Tariff) {
			return fmt.Errorf("%w: hour %d tariff must be >= 0", ErrInvalidInput, i)
		}
	}
	return nil
}

// Clone returns a copy that shares no backing array with d.
func (d DayInputs) Clone() DayInputs {
	out := make(DayInputs, len(d))
	copy(out, d)
	return out
}

// Deficit is the load that solar alone cannot cover in this hour.
func (in HourInput) Deficit() float64 {
	return math.Max(0, in.LoadKw-in.SolarGenKw)
}
