package planner

import (
	"testing"

	"github.com/tylergwlk/weatherslate/internal/venue"
)

func bookWithDepth(yesBid, noBid, yesQty, noQty int) venue.Orderbook {
	return venue.Orderbook{
		Ticker: "T",
		Yes:    []venue.PriceLevel{{PriceCents: yesBid, Quantity: yesQty}},
		No:     []venue.PriceLevel{{PriceCents: noBid, Quantity: noQty}},
	}
}

func TestAssessLiquidityEmptyBookRejects(t *testing.T) {
	ob := venue.Orderbook{Ticker: "T"}
	a := AssessLiquidity(ob)
	if a.Verdict != LiquidityReject {
		t.Errorf("verdict = %v, want REJECT for an empty book", a.Verdict)
	}
}

func TestAssessLiquidityThinBook(t *testing.T) {
	ob := bookWithDepth(60, 35, 3, 3)
	a := AssessLiquidity(ob)
	if a.Verdict != LiquidityThin {
		t.Errorf("verdict = %v, want THIN for top-3 depth of 6", a.Verdict)
	}
}

func TestAssessLiquidityOK(t *testing.T) {
	ob := bookWithDepth(60, 35, 15, 15)
	a := AssessLiquidity(ob)
	if a.Verdict != LiquidityOK {
		t.Errorf("verdict = %v, want OK for deep book", a.Verdict)
	}
}

func TestAssessSpreadWithinLimit(t *testing.T) {
	ob := bookWithDepth(60, 38, 20, 20) // implied no ask = 40, bid=38, room=2
	s := AssessSpread(ob, nil, nil, 6)
	if s.Verdict != SpreadOK {
		t.Errorf("verdict = %v, want OK", s.Verdict)
	}
}

func TestAssessSpreadWideRejectsWithoutException(t *testing.T) {
	ob := bookWithDepth(60, 20, 20, 20) // implied ask=40, bid=20, room=20
	s := AssessSpread(ob, nil, nil, 6)
	if s.Verdict != SpreadReject {
		t.Errorf("verdict = %v, want REJECT for a wide spread with no edge/liquidity signal", s.Verdict)
	}
}

func TestAssessSpreadWideExceptionWithStrongDepthAndEdge(t *testing.T) {
	ob := bookWithDepth(60, 20, 20, 20)
	liquidity := LiquidityAssessment{Verdict: LiquidityOK}
	edge := 5.0
	s := AssessSpread(ob, &edge, &liquidity, 6)
	if s.Verdict != SpreadWideException {
		t.Errorf("verdict = %v, want WIDE_EXCEPTION with strong depth and large edge", s.Verdict)
	}
}

func TestRecommendedLimitStandardCase(t *testing.T) {
	ob := bookWithDepth(60, 30, 20, 20) // implied ask=40, bid=30, room=10
	limit, _, _ := RecommendedLimit(ob)
	if limit <= 30 || limit >= 40 {
		t.Errorf("limit = %d, want strictly between the bid and the implied ask", limit)
	}
}

func TestRecommendedLimitTightCase(t *testing.T) {
	ob := bookWithDepth(60, 39, 20, 20) // implied ask=40, bid=39, room=1
	limit, rationale, _ := RecommendedLimit(ob)
	if limit != 39 && limit != 38 {
		t.Errorf("limit = %d, want a 1-3c improvement below the ask", limit)
	}
	if rationale == "" {
		t.Error("expected a non-empty rationale")
	}
}

func TestManualOrderStepsIncludesContractCount(t *testing.T) {
	stake := 10.0
	steps := ManualOrderSteps("TICKER", "https://example.com/m/TICKER", 40, &stake)
	found := false
	for _, s := range steps {
		if s == "5. Set quantity (25 contracts at 40c)" {
			found = true
		}
	}
	if !found {
		t.Errorf("steps = %v, want a contract-count note for a $10 stake at 40c", steps)
	}
}

func TestBuildExecutionPlanNeverRecommendsMarketOrder(t *testing.T) {
	ob := bookWithDepth(60, 30, 20, 20)
	plan := BuildExecutionPlan("TICKER", "https://example.com/m/TICKER", ob, nil)
	for _, r := range plan.CancelReplaceRules {
		if r == "NEVER place market orders — always use limits" {
			return
		}
	}
	t.Error("expected the cancel/replace rules to always warn against market orders")
}
