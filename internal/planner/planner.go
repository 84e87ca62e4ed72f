// Package planner assesses orderbook liquidity and spread, computes the
// recommended NO limit price, and writes the manual order-placement script
// a human executes (the venue forbids automated order submission).
package planner

import (
	"fmt"

	"github.com/tylergwlk/weatherslate/internal/venue"
)

// LiquidityVerdict grades how tradeable an orderbook's depth is.
type LiquidityVerdict string

const (
	LiquidityOK     LiquidityVerdict = "OK"
	LiquidityThin   LiquidityVerdict = "THIN"
	LiquidityReject LiquidityVerdict = "REJECT"
)

// SpreadVerdict grades whether the bid/ask spread is tradeable.
type SpreadVerdict string

const (
	SpreadOK            SpreadVerdict = "OK"
	SpreadWideException SpreadVerdict = "WIDE_EXCEPTION"
	SpreadReject        SpreadVerdict = "REJECT"
)

// LiquidityAssessment is the result of AssessLiquidity.
type LiquidityAssessment struct {
	Verdict       LiquidityVerdict
	TopOfBookSize int
	Top3Depth     int
	Notes         string
}

// SpreadAssessment is the result of AssessSpread.
type SpreadAssessment struct {
	Verdict      SpreadVerdict
	SpreadCents  *int
	Notes        string
}

// ExecutionPlan is the full manual order-placement plan for one candidate.
type ExecutionPlan struct {
	MarketTicker            string
	ImpliedBestNoAskCents   *int
	BestNoBidCents          *int
	BidRoomCents            *int
	RecommendedLimitNoCents int
	LimitRationale          string
	ManualOrderSteps        []string
	CancelReplaceRules      []string
	FillProbabilityNotes    string
}

// AssessLiquidity rejects an empty book, rejects a near-empty top-3, and
// flags THIN below the depth threshold used in SPEC_FULL.md §4.8.
func AssessLiquidity(ob venue.Orderbook) LiquidityAssessment {
	yesTop, noTop := 0, 0
	if len(ob.Yes) > 0 {
		yesTop = ob.Yes[0].Quantity
	}
	if len(ob.No) > 0 {
		noTop = ob.No[0].Quantity
	}
	topOfBook := yesTop + noTop

	yesDepth := venue.Top3Depth(ob.Yes)
	noDepth := venue.Top3Depth(ob.No)
	top3 := yesDepth + noDepth

	if topOfBook == 0 {
		return LiquidityAssessment{Verdict: LiquidityReject, TopOfBookSize: 0, Top3Depth: top3, Notes: "No bids on either side — book is empty"}
	}
	if top3 < 5 {
		return LiquidityAssessment{Verdict: LiquidityReject, TopOfBookSize: topOfBook, Top3Depth: top3, Notes: fmt.Sprintf("Top-3 depth too thin (%d contracts)", top3)}
	}
	if top3 < 20 {
		return LiquidityAssessment{Verdict: LiquidityThin, TopOfBookSize: topOfBook, Top3Depth: top3, Notes: fmt.Sprintf("Thin liquidity — top-3 depth %d contracts", top3)}
	}
	return LiquidityAssessment{Verdict: LiquidityOK, TopOfBookSize: topOfBook, Top3Depth: top3, Notes: fmt.Sprintf("Adequate liquidity — top-3 depth %d contracts", top3)}
}

// AssessSpread rejects spreads over maxSpreadCents unless liquidity is OK
// and the model's edge is large enough to justify a WIDE_EXCEPTION.
func AssessSpread(ob venue.Orderbook, modelEdgePct *float64, liquidity *LiquidityAssessment, maxSpreadCents int) SpreadAssessment {
	room, ok := ob.BidRoomCents()
	if !ok {
		return SpreadAssessment{Verdict: SpreadReject, Notes: "Cannot compute spread — missing bid data"}
	}

	if room <= maxSpreadCents {
		r := room
		return SpreadAssessment{Verdict: SpreadOK, SpreadCents: &r, Notes: fmt.Sprintf("Spread %dc within limit (%dc)", room, maxSpreadCents)}
	}

	strongDepth := liquidity != nil && liquidity.Verdict == LiquidityOK
	largeEdge := modelEdgePct != nil && *modelEdgePct > 3.0

	r := room
	if strongDepth && largeEdge {
		return SpreadAssessment{
			Verdict:     SpreadWideException,
			SpreadCents: &r,
			Notes:       fmt.Sprintf("WIDE-SPREAD EXCEPTION: spread %dc > %dc but depth is strong and edge is %.1f%%", room, maxSpreadCents, *modelEdgePct),
		}
	}
	return SpreadAssessment{
		Verdict:     SpreadReject,
		SpreadCents: &r,
		Notes:       fmt.Sprintf("Spread %dc exceeds limit (%dc) without qualifying for exception", room, maxSpreadCents),
	}
}

// RecommendedLimit computes the NO limit price to bid at: a 2-6c
// improvement below the implied ask when there's room (bid room of 2c or
// more), 1c when the spread is already tight.
func RecommendedLimit(ob venue.Orderbook) (limitCents int, rationale, fillNotes string) {
	ask, hasAsk := ob.ImpliedBestNoAskCents()
	bid, hasBid := ob.BestNoBid()

	if !hasAsk {
		if hasBid {
			return bid, "No implied ask available — using best NO bid", "UNKNOWN fill probability — no ask data"
		}
		return 90, "No implied ask available — using default", "UNKNOWN fill probability — no ask data"
	}

	room, _ := ob.BidRoomCents()

	var improvement int
	if room >= 2 {
		improvement = clampInt(room/2, 2, 6)
		limitCents = ask - improvement
		rationale = fmt.Sprintf("bid_room=%dc >= 2: improving %dc below implied ask %dc", room, improvement, ask)
		fillNotes = "NORMAL fill probability"
	} else {
		improvement = clampInt(room, 1, 3)
		if improvement < 1 {
			improvement = 1
		}
		limitCents = ask - improvement
		rationale = fmt.Sprintf("TIGHT: bid_room=%dc < 2: improving %dc below implied ask %dc", room, improvement, ask)
		fillNotes = "MODERATE fill probability — tight spread"
	}

	if improvement > 6 {
		fillNotes = "LOW FILL PROBABILITY — improvement exceeds 6c"
	}

	limitCents = clampInt(limitCents, 1, 99)
	return limitCents, rationale, fillNotes
}

// ManualOrderSteps writes the human-executable script for placing one order.
func ManualOrderSteps(marketTicker, marketURL string, limitNoCents int, stakeUSD *float64) []string {
	contractsNote := ""
	if stakeUSD != nil && limitNoCents > 0 {
		maxContracts := int(*stakeUSD * 100 / float64(limitNoCents))
		contractsNote = fmt.Sprintf(" (%d contracts at %dc)", maxContracts, limitNoCents)
	}
	return []string{
		fmt.Sprintf("1. Navigate to %s", marketURL),
		"2. Select the NO side",
		"3. Set order type to LIMIT",
		fmt.Sprintf("4. Set limit price to %dc ($0.%02d)", limitNoCents, limitNoCents),
		fmt.Sprintf("5. Set quantity%s", contractsNote),
		fmt.Sprintf("6. Review order summary — verify ticker is %s", marketTicker),
		"7. Submit order",
		"8. Wait 5-10 minutes, then check fill status",
	}
}

// CancelReplaceRules writes the conditions under which a human should
// cancel or revise a resting order.
func CancelReplaceRules(limitNoCents int, impliedNoAskCents *int) []string {
	rules := []string{
		fmt.Sprintf("CANCEL if implied NO ask moves above %dc (edge has evaporated)", limitNoCents+3),
		"CANCEL if market status changes to closed/halted",
		"CANCEL if not filled within 15 minutes and edge is shrinking",
	}
	if impliedNoAskCents != nil {
		rules = append(rules,
			fmt.Sprintf("ADJUST +1c toward ask (to %dc) if not filled after 10 min and ask is still at %dc", limitNoCents+1, *impliedNoAskCents),
			fmt.Sprintf("DO NOT chase above %dc", minInt(limitNoCents+2, *impliedNoAskCents)),
		)
	}
	rules = append(rules, "NEVER place market orders — always use limits")
	return rules
}

// BuildExecutionPlan assembles the full ExecutionPlan for one candidate.
func BuildExecutionPlan(marketTicker, marketURL string, ob venue.Orderbook, stakeUSD *float64) ExecutionPlan {
	limit, rationale, fillNotes := RecommendedLimit(ob)
	steps := ManualOrderSteps(marketTicker, marketURL, limit, stakeUSD)

	var impliedAsk *int
	if ask, ok := ob.ImpliedBestNoAskCents(); ok {
		impliedAsk = &ask
	}
	cancelRules := CancelReplaceRules(limit, impliedAsk)

	var bestBid *int
	if b, ok := ob.BestNoBid(); ok {
		bestBid = &b
	}
	var room *int
	if r, ok := ob.BidRoomCents(); ok {
		room = &r
	}

	return ExecutionPlan{
		MarketTicker:            marketTicker,
		ImpliedBestNoAskCents:   impliedAsk,
		BestNoBidCents:          bestBid,
		BidRoomCents:            room,
		RecommendedLimitNoCents: limit,
		LimitRationale:          rationale,
		ManualOrderSteps:        steps,
		CancelReplaceRules:      cancelRules,
		FillProbabilityNotes:    fillNotes,
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
