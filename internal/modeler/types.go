// Package modeler computes settlement-accurate bracket probabilities, lock-in
// gates, and knife-edge risk for a single candidate market.
package modeler

// MarketType distinguishes a high-temperature bracket from a low-temperature
// bracket; only the lock-in flag relevant to the type is ever populated.
type MarketType string

const (
	MarketTypeHigh MarketType = "HIGH_TEMP"
	MarketTypeLow  MarketType = "LOW_TEMP"
)

// UncertaintyLevel is the modeler's coarse confidence grade.
type UncertaintyLevel string

const (
	UncertaintyLow  UncertaintyLevel = "LOW"
	UncertaintyMed  UncertaintyLevel = "MED"
	UncertaintyHigh UncertaintyLevel = "HIGH"
)

// KnifeEdgeRisk grades how close the forecast sits to the bracket boundary.
type KnifeEdgeRisk string

const (
	KnifeEdgeLow  KnifeEdgeRisk = "LOW"
	KnifeEdgeMed  KnifeEdgeRisk = "MED"
	KnifeEdgeHigh KnifeEdgeRisk = "HIGH"
)

// LockInFlag tracks whether the relevant daily extreme is considered settled.
type LockInFlag string

const (
	LockInLocking   LockInFlag = "LOCKING"
	LockInNotLocked LockInFlag = "NOT_LOCKED"
	LockInUnknown   LockInFlag = "UNKNOWN"
)

// Output is the full ModelOutput for one candidate; only the HIGH or LOW
// lock-in branch is populated, matching the market's MarketType.
type Output struct {
	MarketTicker string
	PYes         float64
	PNo          float64
	Method       string
	SignalsUsed  []string
	Assumptions  []string
	Uncertainty  UncertaintyLevel

	LocalTimeAtStation               string
	HoursRemainingUntilCLIDayClose   float64
	HoursRemainingInVolatilityWindow float64

	SunriseEstimateLocal *string

	PNewLowerLowAfterNow *float64
	LowLockInFlag        *LockInFlag

	TypicalPeakTimeEstimateLocal *string
	PNewHigherHighAfterNow       *float64
	HighLockInFlag               *LockInFlag

	KnifeEdge KnifeEdgeRisk
	Notes     []string
}

// Tunables mirrors the lock-in configuration section the original Python
// config carries: how long after sunrise/peak before the gate engages, and
// the probability threshold below which a remaining extreme is "LOCKING".
type Tunables struct {
	SunriseBufferHours        float64
	PeakBufferHours           float64
	NewExtremeRejectThreshold float64
	DefaultPeakHour           int
}

// DefaultTunables matches the defaults named in SPEC_FULL.md §4.6.
var DefaultTunables = Tunables{
	SunriseBufferHours:        2.0,
	PeakBufferHours:           2.0,
	NewExtremeRejectThreshold: 0.05,
	DefaultPeakHour:           15,
}
