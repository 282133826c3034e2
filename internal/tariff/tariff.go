// Package tariff maps an hour of the day to a grid import price.
//
// The shape is deliberately simple: a flat off-peak base price and a flat
// peak price (base * factor) over a fixed set of evening hours. Dispatch
// policies reason about the gap between the two.
package tariff

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidSchedule is returned when a tariff schedule cannot be built.
var ErrInvalidSchedule = errors.New("invalid tariff schedule")

// DefaultPeakHours is the evening peak window used when none is configured.
var DefaultPeakHours = []int{18, 19, 20, 21}

// Schedule is an immutable time-of-use tariff.
type Schedule struct {
	basePrice  float64
	peakFactor float64
	peak       [24]bool
}

// NewSchedule builds a schedule. peakHours entries must be in [0, 23];
// duplicates are ignored.
func NewSchedule(basePrice, peakFactor float64, peakHours []int) (Schedule, error) {
	if basePrice < 0 || math.IsNaN(basePrice) || math.IsInf(basePrice, 0) {
		return Schedule{}, fmt.Errorf("%w: base_price must be >= 0", ErrInvalidSchedule)
	}
	if peakFactor <= 0 || math.IsNaN(peakFactor) || math.IsInf(peakFactor, 0) {
		return Schedule{}, fmt.Errorf("%w: peak_factor must be > 0", ErrInvalidSchedule)
	}
	s := Schedule{basePrice: basePrice, peakFactor: peakFactor}
	for _, h := range peakHours {
		if h < 0 || h > 23 {
			return Schedule{}, fmt.Errorf("%w: peak hour %d out of range", ErrInvalidSchedule, h)
		}
		s.peak[h] = true
	}
	return s, nil
}

func (s Schedule) BasePrice() float64  { return s.basePrice }
func (s Schedule) PeakFactor() float64 { return s.peakFactor }

// PeakPrice is the price charged during any peak hour.
func (s Schedule) PeakPrice() float64 { return s.basePrice * s.peakFactor }

// IsPeak reports whether hour is in the peak set. Hours outside [0, 23] are never peak.
func (s Schedule) IsPeak(hour int) bool {
	if hour < 0 || hour > 23 {
		return false
	}
	return s.peak[hour]
}

// Price returns the per-kWh grid import price for hour.
func (s Schedule) Price(hour int) float64 {
	if s.IsPeak(hour) {
		return s.PeakPrice()
	}
	return s.basePrice
}

// PeakHours returns the sorted peak set.
func (s Schedule) PeakHours() []int {
	out := make([]int, 0, 24)
	for h, p := range s.peak {
		if p {
			out = append(out, h)
		}
	}
	sort.Ints(out)
	return out
}
