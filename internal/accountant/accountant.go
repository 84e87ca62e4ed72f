// Package accountant computes fee-aware expected value, the maximum
// acceptable NO buy price, and edge-vs-implied for each candidate.
package accountant

import (
	"fmt"
	"math"
)

// FeeRates mirrors the two commission tiers the venue charges: taker (for
// orders that cross the book immediately) and maker (for resting limits).
type FeeRates struct {
	TakerRate float64
	MakerRate float64
}

// Accounting is the full per-candidate accounting output.
type Accounting struct {
	MarketTicker               string
	ImpliedPNoFromImpliedAsk   float64
	FeeEstCentsPerContract     int
	EVNetEstCentsAtLimit       float64
	MaxBuyPriceNoCents         int
	EdgeVsImpliedPct           float64
	Notes                      []string
	NoTradeReason              string
}

// TakerFeeCents computes the venue's taker commission, in cents, rounded up:
// ceil(takerRate * contracts * P * (1-P) * 100), where P = priceCents/100.
func TakerFeeCents(priceCents, contracts int, rates FeeRates) int {
	return feeCents(priceCents, contracts, rates.TakerRate)
}

// MakerFeeCents computes the venue's maker commission for a resting limit
// order, using the same formula with the maker rate.
func MakerFeeCents(priceCents, contracts int, rates FeeRates) int {
	return feeCents(priceCents, contracts, rates.MakerRate)
}

func feeCents(priceCents, contracts int, rate float64) int {
	p := float64(priceCents) / 100.0
	raw := rate * float64(contracts) * p * (1 - p)
	return int(math.Ceil(raw * 100))
}

// EVNoCents computes the net expected value, in cents per contract, of
// buying NO at buyPriceNoCents given the model's P(NO). Fee is charged at
// execution regardless of outcome.
func EVNoCents(buyPriceNoCents int, pNo float64, contracts int, rates FeeRates) float64 {
	fee := TakerFeeCents(buyPriceNoCents, contracts, rates)
	feePerContract := 0.0
	if contracts > 0 {
		feePerContract = float64(fee) / float64(contracts)
	}
	payoutIfWin := 100.0 - float64(buyPriceNoCents)
	ev := pNo*payoutIfWin - (1-pNo)*float64(buyPriceNoCents) - feePerContract
	return round2(ev)
}

// MaxBuyPriceNoCents searches downward from 99c for the highest NO price at
// which EV (at that price, taker fee) is still non-negative.
func MaxBuyPriceNoCents(pNo float64, rates FeeRates) int {
	for price := 99; price >= 1; price-- {
		if EVNoCents(price, pNo, 1, rates) >= 0 {
			return price
		}
	}
	return 0
}

// EdgeVsImpliedPct is the model's P(NO) versus the orderbook-implied P(NO),
// as a signed percentage: positive means the model likes NO more than the
// market does.
func EdgeVsImpliedPct(pNoModel, impliedPNo float64) float64 {
	if impliedPNo <= 0 {
		return 0
	}
	return round2((pNoModel - impliedPNo) / impliedPNo * 100)
}

// Compute assembles the full Accounting for one candidate: maker-fee EV at
// the planner's recommended limit, the taker/maker fee comparison, the
// break-even max buy price, and the edge vs. the orderbook's implied ask.
func Compute(marketTicker string, impliedBestNoAskCents *int, pNo float64, recommendedLimitNoCents int, rates FeeRates) Accounting {
	impliedPNo := 0.0
	if impliedBestNoAskCents != nil {
		impliedPNo = float64(*impliedBestNoAskCents) / 100.0
	}

	makerFee := MakerFeeCents(recommendedLimitNoCents, 1, rates)
	takerFee := TakerFeeCents(recommendedLimitNoCents, 1, rates)

	// EV computed with the taker formula, then adjusted for the maker/taker
	// fee delta since the execution strategy is resting limit orders.
	evTaker := EVNoCents(recommendedLimitNoCents, pNo, 1, rates)
	evMaker := evTaker + float64(takerFee-makerFee)

	maxBuy := MaxBuyPriceNoCents(pNo, rates)
	edge := EdgeVsImpliedPct(pNo, impliedPNo)

	var notes []string
	noTradeReason := ""

	if evMaker <= 0 {
		noTradeReason = fmt.Sprintf("Negative EV at recommended limit %dc: EV=%.1fc", recommendedLimitNoCents, evMaker)
		notes = append(notes, noTradeReason)
	}

	if impliedBestNoAskCents != nil && recommendedLimitNoCents > *impliedBestNoAskCents {
		notes = append(notes, fmt.Sprintf("WARNING: limit %dc > implied ask %dc", recommendedLimitNoCents, *impliedBestNoAskCents))
	}

	notes = append(notes, fmt.Sprintf("Taker fee=%dc, Maker fee=%dc at limit", takerFee, makerFee))
	notes = append(notes, fmt.Sprintf("Model p(NO)=%.4f, Implied p(NO)=%.4f", pNo, impliedPNo))

	return Accounting{
		MarketTicker:             marketTicker,
		ImpliedPNoFromImpliedAsk: impliedPNo,
		FeeEstCentsPerContract:   makerFee,
		EVNetEstCentsAtLimit:     evMaker,
		MaxBuyPriceNoCents:       maxBuy,
		EdgeVsImpliedPct:         edge,
		Notes:                    notes,
		NoTradeReason:            noTradeReason,
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
