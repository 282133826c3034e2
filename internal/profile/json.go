package profile

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"microgrid-dispatch/internal/model"
	"microgrid-dispatch/internal/tariff"
)

// Sample is one recorded hour.
type Sample struct {
	SolarKw float64 `json:"solar_kw"`
	LoadKw  float64 `json:"load_kw"`
}

// Samples is a recorded day, e.g. a metered household export.
type Samples struct {
	Name  string   `json:"name,omitempty"`
	Hours []Sample `json:"hours"`
}

func LoadSamplesJSON(path string) (*Samples, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := ReadSamples(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func ReadSamples(r io.Reader) (*Samples, error) {
	var s Samples
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, err
	}
	if len(s.Hours) != model.HoursPerDay {
		return nil, fmt.Errorf("%w: expected %d hourly samples, got %d", ErrInvalidProfile, model.HoursPerDay, len(s.Hours))
	}
	return &s, nil
}

// Inputs attaches the schedule to the recorded solar and load.
func (s *Samples) Inputs(sched tariff.Schedule) (model.DayInputs, error) {
	solar := make([]float64, len(s.Hours))
	load := make([]float64, len(s.Hours))
	for i, h := range s.Hours {
		solar[i] = h.SolarKw
		load[i] = h.LoadKw
	}
	return Attach(solar, load, sched)
}
