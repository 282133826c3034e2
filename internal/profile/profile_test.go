package profile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microgrid-dispatch/internal/model"
	"microgrid-dispatch/internal/tariff"
)

func schedule(t *testing.T) tariff.Schedule {
	t.Helper()
	s, err := tariff.NewSchedule(8, 1.5, tariff.DefaultPeakHours)
	require.NoError(t, err)
	return s
}

func TestSolarCurve(t *testing.T) {
	c := SolarCurve(5, 0.4)
	require.Len(t, c, model.HoursPerDay)
	assert.Equal(t, 0.0, c[0])
	assert.Equal(t, 0.0, c[5])
	assert.InDelta(t, 0, c[SunriseHour], 1e-12)
	assert.InDelta(t, 0, c[SunsetHour], 1e-12)
	// noon is the middle of the window: 5 * 0.4 * sin(π/2)
	assert.InDelta(t, 2, c[12], 1e-12)
	assert.InDelta(t, c[9], c[15], 1e-12)
	assert.Equal(t, 0.0, c[23])
}

func TestWeatherMultiplier(t *testing.T) {
	m, err := WeatherMultiplier("Partly_Cloudy")
	require.NoError(t, err)
	assert.Equal(t, 0.7, m)
	_, err = WeatherMultiplier("hail")
	assert.True(t, errors.Is(err, ErrInvalidProfile))
	assert.Equal(t, []string{"cloudy", "partly_cloudy", "rainy", "sunny"}, Weathers())
	assert.Equal(t, []string{"evening_heavy", "flat", "residential"}, LoadProfiles())
}

func TestLoadCurve(t *testing.T) {
	l, err := LoadCurve(Options{LoadProfile: "flat", LoadScale: 2})
	require.NoError(t, err)
	for _, v := range l {
		assert.Equal(t, 3.0, v)
	}

	explicit := make([]float64, model.HoursPerDay)
	explicit[19] = 4
	l, err = LoadCurve(Options{LoadProfile: "unknown", LoadKw: explicit})
	require.NoError(t, err)
	assert.Equal(t, 4.0, l[19])
	explicit[19] = 9
	assert.Equal(t, 4.0, l[19])

	_, err = LoadCurve(Options{LoadKw: []float64{1, 2}})
	assert.True(t, errors.Is(err, ErrInvalidProfile))
	_, err = LoadCurve(Options{LoadProfile: "office"})
	assert.True(t, errors.Is(err, ErrInvalidProfile))
	_, err = LoadCurve(Options{LoadProfile: "flat", LoadScale: -1})
	assert.True(t, errors.Is(err, ErrInvalidProfile))
}

func TestBuild(t *testing.T) {
	s := schedule(t)
	day, err := Build(DefaultOptions(), s)
	require.NoError(t, err)
	require.NoError(t, day.Validate())

	assert.True(t, day[19].IsPeak)
	assert.Equal(t, 12.0, day[19].Tariff)
	assert.Equal(t, 8.0, day[3].Tariff)
	assert.InDelta(t, 5, day[12].SolarGenKw, 1e-12)
	assert.Equal(t, 0.5, day[3].LoadKw)

	again, err := Build(DefaultOptions(), s)
	require.NoError(t, err)
	assert.Equal(t, day, again)

	opts := DefaultOptions()
	opts.SolarCapacityKw = -1
	_, err = Build(opts, s)
	assert.True(t, errors.Is(err, ErrInvalidProfile))
	opts = DefaultOptions()
	opts.Weather = "fog"
	_, err = Build(opts, s)
	assert.True(t, errors.Is(err, ErrInvalidProfile))
}

func TestAttach_RejectsNegativeLoad(t *testing.T) {
	solar := make([]float64, model.HoursPerDay)
	load := make([]float64, model.HoursPerDay)
	load[4] = -1
	_, err := Attach(solar, load, schedule(t))
	assert.True(t, errors.Is(err, model.ErrInvalidInput))

	_, err = Attach(solar[:3], load, schedule(t))
	assert.True(t, errors.Is(err, ErrInvalidProfile))
}

func samplesJSON(n int) string {
	var b strings.Builder
	b.WriteString(`{"name":"metered","hours":[`)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`{"solar_kw":1.5,"load_kw":2}`)
	}
	b.WriteString(`]}`)
	return b.String()
}

func TestReadSamples(t *testing.T) {
	s, err := ReadSamples(strings.NewReader(samplesJSON(24)))
	require.NoError(t, err)
	assert.Equal(t, "metered", s.Name)

	day, err := s.Inputs(schedule(t))
	require.NoError(t, err)
	assert.Equal(t, 1.5, day[7].SolarGenKw)
	assert.Equal(t, 2.0, day[7].LoadKw)
	assert.True(t, day[21].IsPeak)

	_, err = ReadSamples(strings.NewReader(samplesJSON(23)))
	assert.True(t, errors.Is(err, ErrInvalidProfile))
	_, err = ReadSamples(strings.NewReader("{"))
	assert.Error(t, err)
}

func TestLoadSamplesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "day.json")
	require.NoError(t, os.WriteFile(path, []byte(samplesJSON(24)), 0o644))
	s, err := LoadSamplesJSON(path)
	require.NoError(t, err)
	assert.Len(t, s.Hours, 24)

	_, err = LoadSamplesJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
