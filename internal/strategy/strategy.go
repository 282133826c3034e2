package strategy

import (
	"errors"
	"fmt"
	"strings"

	"microgrid-dispatch/internal/model"
)

// ErrInvalidParams is returned when a policy cannot be built from its parameters.
var ErrInvalidParams = errors.New("invalid policy params")

// Kind identifies one of the two dispatch policies.
type Kind string

const (
	KindBaseline Kind = "baseline"
	KindSmart    Kind = "smart"
)

// Kinds lists the supported policies in display order.
var Kinds = []Kind{KindBaseline, KindSmart}

// ParseKind accepts a policy name case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindBaseline:
		return KindBaseline, nil
	case KindSmart:
		return KindSmart, nil
	default:
		return "", fmt.Errorf("%w: unknown policy %q", ErrInvalidParams, s)
	}
}

func (k Kind) String() string { return string(k) }

// Context is what a policy sees for a single dispatch call.
// Battery is read-only from the policy's point of view.
type Context struct {
	Hour    int
	Input   model.HourInput
	Battery *model.BatteryState
}

// Policy decides whether the battery may discharge and whether (and how hard)
// it should charge from the grid in the current hour.
type Policy interface {
	Name() string
	Kind() Kind
	AllowDischarge(ctx Context) bool
	AllowGridCharge(ctx Context) bool
	DesiredGridChargeKw(ctx Context) float64
}
