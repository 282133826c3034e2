package strategy

// Baseline is the naive policy: discharge whenever there is a deficit and
// never pre-charge from the grid, regardless of time-of-use price.
type Baseline struct{}

func NewBaseline() Baseline { return Baseline{} }

func (Baseline) Name() string { return "baseline" }
func (Baseline) Kind() Kind   { return KindBaseline }

func (Baseline) AllowDischarge(Context) bool         { return true }
func (Baseline) AllowGridCharge(Context) bool        { return false }
func (Baseline) DesiredGridChargeKw(Context) float64 { return 0 }
