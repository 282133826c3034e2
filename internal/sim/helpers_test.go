package sim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"microgrid-dispatch/internal/model"
	"microgrid-dispatch/internal/tariff"
)

func buildDay(s tariff.Schedule, solar, load func(h int) float64) model.DayInputs {
	d := make(model.DayInputs, model.HoursPerDay)
	for h := range d {
		d[h] = model.HourInput{
			Hour:       h,
			SolarGenKw: solar(h),
			LoadKw:     load(h),
			Tariff:     s.Price(h),
			IsPeak:     s.IsPeak(h),
		}
	}
	return d
}

// Two kW of solar from 08:00 to 16:00, 1.5 kW base load and 7 kW during the peak.
func eveningHeavyDay(s tariff.Schedule) model.DayInputs {
	return buildDay(s,
		func(h int) float64 {
			if h >= 8 && h < 16 {
				return 2
			}
			return 0
		},
		func(h int) float64 {
			if s.IsPeak(h) {
				return 7
			}
			return 1.5
		})
}

func flatSchedule(t *testing.T, price float64) tariff.Schedule {
	t.Helper()
	s, err := tariff.NewSchedule(price, 1, nil)
	require.NoError(t, err)
	return s
}
