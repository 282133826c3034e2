package strategy

import (
	"fmt"
	"math"

	"microgrid-dispatch/internal/tariff"
)

// SmartParams tunes the smart policy's lookahead.
type SmartParams struct {
	// DeficitThresholdKwh: below this day-level deficit the policy never grid-charges.
	DeficitThresholdKwh float64
	// PriceGapThreshold: minimum peak-minus-current tariff gap worth arbitraging.
	PriceGapThreshold float64
	// PeakDeficitWeight scales the remaining peak-hour deficit into a SOC target.
	PeakDeficitWeight float64
	// DieselRiskWeight scales the remaining above-grid-limit peak deficit into a SOC target.
	DieselRiskWeight float64
	// MaxTargetSocPct caps the SOC target, percent of capacity.
	MaxTargetSocPct float64
	// TariffEpsilon is how far above the base price a tariff may be and still count as off-peak.
	TariffEpsilon float64
}

func DefaultSmartParams() SmartParams {
	return SmartParams{
		DeficitThresholdKwh: 0.5,
		PriceGapThreshold:   2.0,
		PeakDeficitWeight:   0.6,
		DieselRiskWeight:    0.8,
		MaxTargetSocPct:     90,
		TariffEpsilon:       1e-9,
	}
}

func (p SmartParams) Validate() error {
	switch {
	case p.DeficitThresholdKwh < 0:
		return fmt.Errorf("%w: deficit_threshold_kwh must be >= 0", ErrInvalidParams)
	case p.PriceGapThreshold < 0:
		return fmt.Errorf("%w: price_gap_threshold must be >= 0", ErrInvalidParams)
	case p.PeakDeficitWeight < 0 || p.DieselRiskWeight < 0:
		return fmt.Errorf("%w: weights must be >= 0", ErrInvalidParams)
	case p.MaxTargetSocPct <= 0 || p.MaxTargetSocPct > 100:
		return fmt.Errorf("%w: max_target_soc_pct must be in (0, 100]", ErrInvalidParams)
	case p.TariffEpsilon < 0:
		return fmt.Errorf("%w: tariff_epsilon must be >= 0", ErrInvalidParams)
	}
	return nil
}

// Smart is the tariff-aware policy. It is built fresh for each simulated day
// over that day's forecast: it preserves the battery for peak hours when
// solar already covers load, and pre-charges from the grid off-peak when the
// day has a real deficit and the peak price gap is large enough.
type Smart struct {
	forecast *Forecast
	schedule tariff.Schedule
	params   SmartParams
}

func NewSmart(forecast *Forecast, schedule tariff.Schedule, params SmartParams) (*Smart, error) {
	if forecast == nil {
		return nil, fmt.Errorf("%w: forecast is nil", ErrInvalidParams)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Smart{forecast: forecast, schedule: schedule, params: params}, nil
}

func (s *Smart) Name() string { return "smart" }
func (s *Smart) Kind() Kind   { return KindSmart }

func (s *Smart) AllowDischarge(ctx Context) bool {
	if ctx.Input.SolarGenKw < ctx.Input.LoadKw {
		return true
	}
	return ctx.Input.IsPeak
}

func (s *Smart) AllowGridCharge(ctx Context) bool {
	if ctx.Input.IsPeak {
		return false
	}
	if !s.hasDayDeficit() {
		return false
	}
	return ctx.Input.Tariff <= s.schedule.BasePrice()+s.params.TariffEpsilon
}

func (s *Smart) DesiredGridChargeKw(ctx Context) float64 {
	if !s.hasDayDeficit() || ctx.Battery == nil {
		return 0
	}
	if s.schedule.PeakPrice()-ctx.Input.Tariff < s.params.PriceGapThreshold {
		return 0
	}
	b := ctx.Battery
	need := s.params.PeakDeficitWeight*s.forecast.PeakDeficitFrom(ctx.Hour) +
		s.params.DieselRiskWeight*s.forecast.DieselRiskFrom(ctx.Hour)
	target := math.Min(need, b.CapacityKwh*s.params.MaxTargetSocPct/100)
	req := math.Min(target-b.SocKwh, b.MaxChargeKw)
	if req <= 0 {
		return 0
	}
	return req
}

func (s *Smart) hasDayDeficit() bool {
	return s.forecast.TotalDeficit() >= s.params.DeficitThresholdKwh
}
