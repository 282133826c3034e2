package model

// Action is a human-friendly battery operating mode for an hour.
// Keep these values stable; they are intended for CSV output.
type Action string

const (
	ActionCharging    Action = "CHARGING"
	ActionIdle        Action = "IDLE"
	ActionDischarging Action = "DISCHARGING"
)

// ActionFromFlows classifies an hour by its net battery flow.
// Positive chargeKw with no larger discharge is CHARGING.
func ActionFromFlows(chargeKw, dischargeKw float64) Action {
	net := chargeKw - dischargeKw
	switch {
	case net > flowEpsilon:
		return ActionCharging
	case net < -flowEpsilon:
		return ActionDischarging
	default:
		return ActionIdle
	}
}

const flowEpsilon = 1e-9
