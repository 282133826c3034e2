package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatDay(solar, load float64) DayInputs {
	d := make(DayInputs, HoursPerDay)
	for h := range d {
		d[h] = HourInput{Hour: h, SolarGenKw: solar, LoadKw: load, Tariff: 10}
	}
	return d
}

func TestDayInputs_Validate(t *testing.T) {
	require.NoError(t, flatDay(1, 2).Validate())

	short := flatDay(1, 2)[:23]
	assert.True(t, errors.Is(short.Validate(), ErrInvalidInput))

	neg := flatDay(1, 2)
	neg[5].LoadKw = -1
	assert.True(t, errors.Is(neg.Validate(), ErrInvalidInput))

	negSolar := flatDay(1, 2)
	negSolar[0].SolarGenKw = -0.1
	assert.True(t, errors.Is(negSolar.Validate(), ErrInvalidInput))

	swapped := flatDay(1, 2)
	swapped[3].Hour, swapped[4].Hour = 4, 3
	assert.True(t, errors.Is(swapped.Validate(), ErrInvalidInput))
}

func TestDayInputs_CloneIsIndependent(t *testing.T) {
	d := flatDay(1, 2)
	c := d.Clone()
	c[0].LoadKw = 99
	assert.Equal(t, 2.0, d[0].LoadKw)
}

func TestHourInput_Deficit(t *testing.T) {
	assert.Equal(t, 1.5, HourInput{SolarGenKw: 0.5, LoadKw: 2}.Deficit())
	assert.Equal(t, 0.0, HourInput{SolarGenKw: 3, LoadKw: 2}.Deficit())
}

func TestActionFromFlows(t *testing.T) {
	assert.Equal(t, ActionCharging, ActionFromFlows(1, 0))
	assert.Equal(t, ActionDischarging, ActionFromFlows(0.2, 1))
	assert.Equal(t, ActionIdle, ActionFromFlows(0, 0))
}
