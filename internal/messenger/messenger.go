// Package messenger sends run summaries and spike alerts to an operator.
// Telegram is the only live channel; a Noop implementation satisfies the
// same interface for local runs and tests.
package messenger

import (
	"log"
)

// Messenger is the notification surface the orchestrator and spike monitor
// drive. Implementations must never return an error that should abort a
// scan run — a failed notification is logged, not fatal.
type Messenger interface {
	NotifyScanComplete(targetDateLocal string, primaryCount, tightCount, nearMissCount int) error
	NotifySpikeBurst(alert SpikeBurstAlert) error
	NotifyError(context string, err error) error
}

// ConvictionRow is one row of a burst's growing conviction-trend table: a
// "(pending)" row with an empty Signal is a future iteration not yet sent.
type ConvictionRow struct {
	Ordinal    int
	Total      int
	TimeLabel  string
	Signal     string
	TempF      *float64
	PriceCents *int
	IsCurrent  bool
}

// SpikeBurstAlert carries one enriched burst-iteration message: which
// iteration it is, how the market has moved, the edge analyzer's read on the
// affected city, and the full conviction history built up so far.
type SpikeBurstAlert struct {
	MarketTicker  string
	City          string
	Bracket       string
	Ordinal       int
	Total         int
	TimeLabel     string
	FromCents     int
	ToCents       int
	CurrentCents  int
	DeltaCents    int
	MetarF        *int
	PreciseF      *float64
	PreciseSource string
	RunningMaxF   *int
	MarginStatus  string
	Signal        string
	SignalReason  string
	TimeRisk      string
	Conviction    []ConvictionRow
}

// Noop discards every notification, logging it instead. Used when
// config.HasMessenger reports no configured transport.
type Noop struct{}

// NewNoop creates a Noop messenger.
func NewNoop() *Noop { return &Noop{} }

func (Noop) NotifyScanComplete(targetDateLocal string, primaryCount, tightCount, nearMissCount int) error {
	log.Printf("[messenger] (noop) scan complete for %s: primary=%d tight=%d near_miss=%d", targetDateLocal, primaryCount, tightCount, nearMissCount)
	return nil
}

func (Noop) NotifySpikeBurst(alert SpikeBurstAlert) error {
	log.Printf("[messenger] (noop) burst %d/%d on %s (%s): %dc -> %dc, now %dc, signal=%s",
		alert.Ordinal, alert.Total, alert.MarketTicker, alert.City, alert.FromCents, alert.ToCents, alert.CurrentCents, alert.Signal)
	return nil
}

func (Noop) NotifyError(context string, err error) error {
	log.Printf("[messenger] (noop) error in %s: %v", context, err)
	return nil
}

var _ Messenger = Noop{}
