package strategy

import (
	"fmt"
	"math"

	"microgrid-dispatch/internal/model"
)

// Forecast is an immutable view of one day's hourly inputs with the lookahead
// sums the smart policy needs precomputed once.
type Forecast struct {
	inputs       model.DayInputs
	totalDeficit float64

	// Suffix sums indexed by hour: value at h covers hours h..23.
	peakDeficitFrom []float64
	dieselRiskFrom  []float64
}

// NewForecast copies inputs and precomputes the day-level deficit and the
// remaining peak-hour deficit and diesel risk from every hour onward.
// Diesel risk is the part of a peak-hour deficit that exceeds gridLimitKw.
func NewForecast(inputs model.DayInputs, gridLimitKw float64) (*Forecast, error) {
	if err := inputs.Validate(); err != nil {
		return nil, err
	}
	if gridLimitKw < 0 || math.IsNaN(gridLimitKw) {
		return nil, fmt.Errorf("%w: grid limit must be >= 0", ErrInvalidParams)
	}
	f := &Forecast{
		inputs:          inputs.Clone(),
		peakDeficitFrom: make([]float64, len(inputs)+1),
		dieselRiskFrom:  make([]float64, len(inputs)+1),
	}
	for h := len(inputs) - 1; h >= 0; h-- {
		in := inputs[h]
		deficit := in.Deficit()
		f.totalDeficit += deficit
		f.peakDeficitFrom[h] = f.peakDeficitFrom[h+1]
		f.dieselRiskFrom[h] = f.dieselRiskFrom[h+1]
		if in.IsPeak {
			f.peakDeficitFrom[h] += deficit
			f.dieselRiskFrom[h] += math.Max(0, deficit-gridLimitKw)
		}
	}
	return f, nil
}

// Inputs returns a copy of the forecast trace.
func (f *Forecast) Inputs() model.DayInputs { return f.inputs.Clone() }

// Len is the number of hours in the forecast.
func (f *Forecast) Len() int { return len(f.inputs) }

// TotalDeficit is Σ max(0, load − solar) over the whole day (kWh).
func (f *Forecast) TotalDeficit() float64 { return f.totalDeficit }

// PeakDeficitFrom is the forecasted peak-hour deficit from hour onward (kWh).
func (f *Forecast) PeakDeficitFrom(hour int) float64 {
	return f.suffix(f.peakDeficitFrom, hour)
}

// DieselRiskFrom is the forecasted peak-hour deficit above the grid limit from hour onward (kWh).
func (f *Forecast) DieselRiskFrom(hour int) float64 {
	return f.suffix(f.dieselRiskFrom, hour)
}

func (f *Forecast) suffix(s []float64, hour int) float64 {
	if hour < 0 {
		hour = 0
	}
	if hour >= len(s) {
		return 0
	}
	return s[hour]
}
