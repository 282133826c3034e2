package sim

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microgrid-dispatch/internal/model"
	"microgrid-dispatch/internal/strategy"
)

func compareDefault(t *testing.T) *Comparison {
	t.Helper()
	cfg := DefaultConfig()
	cmp, err := New(nil).Compare(eveningHeavyDay(cfg.Tariff), cfg)
	require.NoError(t, err)
	return cmp
}

func TestComparison_Live(t *testing.T) {
	cmp := compareDefault(t)

	f, err := cmp.Live(strategy.KindSmart, 0)
	require.NoError(t, err)
	assert.Equal(t, cmp.Smart.Hourly[0], f)

	f, err = cmp.Live(strategy.KindBaseline, 23)
	require.NoError(t, err)
	assert.Equal(t, cmp.Baseline.Hourly[23], f)

	_, err = cmp.Live(strategy.KindSmart, 24)
	assert.True(t, errors.Is(err, ErrHourOutOfRange))
	_, err = cmp.Live(strategy.KindSmart, -1)
	assert.True(t, errors.Is(err, ErrHourOutOfRange))
	_, err = cmp.Live("oracle", 3)
	assert.True(t, errors.Is(err, strategy.ErrInvalidParams))
}

func TestLiveStepper_WalksPrecomputedTrace(t *testing.T) {
	cmp := compareDefault(t)
	s, err := NewLiveStepper(cmp, strategy.KindBaseline)
	require.NoError(t, err)

	for h := 0; h < 10; h++ {
		f, ok := s.Next()
		require.True(t, ok)
		assert.Equal(t, cmp.Baseline.Hourly[h], f)
	}
	assert.Equal(t, 10, s.Hour())

	require.NoError(t, s.SetMode(strategy.KindSmart))
	assert.Equal(t, strategy.KindSmart, s.Mode())
	f, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, cmp.Smart.Hourly[10], f)

	// totals are the full-day figures regardless of position
	assert.Equal(t, cmp.Smart.Totals, s.Totals())

	n := 11
	for {
		if _, ok := s.Next(); !ok {
			break
		}
		n++
	}
	assert.Equal(t, model.HoursPerDay, n)

	s.Reset()
	assert.Equal(t, 0, s.Hour())
	assert.Error(t, s.SetMode("oracle"))
}

func TestNewLiveStepper_Invalid(t *testing.T) {
	_, err := NewLiveStepper(nil, strategy.KindSmart)
	assert.Error(t, err)
	_, err = NewLiveStepper(compareDefault(t), "oracle")
	assert.Error(t, err)
}

func TestWriteHourly(t *testing.T) {
	cmp := compareDefault(t)
	var buf bytes.Buffer
	require.NoError(t, WriteHourly(&buf, cmp.Smart.Hourly))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, model.HoursPerDay+1)
	assert.Equal(t, hourlyHeader, records[0])

	last := records[len(records)-1]
	assert.Equal(t, "23", last[0])
	cum, err := strconv.ParseFloat(last[18], 64)
	require.NoError(t, err)
	assert.InDelta(t, cmp.Smart.Totals.Cost, cum, 1e-5)
}

func TestWriteHourlyCSV_File(t *testing.T) {
	cmp := compareDefault(t)
	path := filepath.Join(t.TempDir(), "baseline.csv")
	require.NoError(t, WriteHourlyCSV(path, cmp.Baseline.Hourly))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "grid_to_batt_kw")
	assert.Contains(t, string(b), string(model.ActionDischarging))
}
