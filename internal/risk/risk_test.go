package risk

import (
	"testing"

	"github.com/tylergwlk/weatherslate/internal/accountant"
	"github.com/tylergwlk/weatherslate/internal/modeler"
)

func TestCorrelationGroupExactAndFallback(t *testing.T) {
	if got := CorrelationGroup("Chicago"); got != "Great Lakes" {
		t.Errorf("got %q, want Great Lakes", got)
	}
	if got := CorrelationGroup("Unknown City"); got != "Other" {
		t.Errorf("got %q, want Other", got)
	}
}

func TestMetroClusterExactAndFallback(t *testing.T) {
	if got := MetroCluster("Austin"); got != "Texas Triangle" {
		t.Errorf("got %q, want Texas Triangle", got)
	}
	if got := MetroCluster("Nowhere"); got != "Standalone" {
		t.Errorf("got %q, want Standalone", got)
	}
}

func TestEnforceCapsKeepsHighestRankFirst(t *testing.T) {
	picks := []Pick{
		{City: "New York", MarketTicker: "A", RankScore: 1},
		{City: "Philadelphia", MarketTicker: "B", RankScore: 5},
		{City: "Boston", MarketTicker: "C", RankScore: 3},
	}
	kept, rejected := EnforceCaps(picks, 2, 2)
	if len(kept) != 2 {
		t.Fatalf("kept = %d, want 2 (Northeast cap of 2)", len(kept))
	}
	if kept[0].MarketTicker != "B" {
		t.Errorf("kept[0] = %s, want B (highest rank score)", kept[0].MarketTicker)
	}
	if len(rejected) != 1 || rejected[0].MarketTicker != "A" {
		t.Errorf("rejected = %+v, want A rejected as lowest-ranked over the cap", rejected)
	}
}

func TestAllocateStakesEqualWeightClamped(t *testing.T) {
	picks := []StakePick{
		{MarketTicker: "A", RiskMultiplier: 1.0},
		{MarketTicker: "B", RiskMultiplier: 0.5},
	}
	out := AllocateStakes(picks, 100)
	if out[0].StakeUSD != 50 {
		t.Errorf("stake[0] = %v, want 50", out[0].StakeUSD)
	}
	if out[1].StakeUSD != 25 {
		t.Errorf("stake[1] = %v, want 25 (half risk multiplier)", out[1].StakeUSD)
	}
}

func TestRiskMultiplierCombinesFactors(t *testing.T) {
	full := RiskMultiplier(modeler.UncertaintyLow, modeler.KnifeEdgeLow, 2, false)
	if full != 1.0 {
		t.Errorf("full multiplier = %v, want 1.0 for a clean candidate", full)
	}
	reduced := RiskMultiplier(modeler.UncertaintyHigh, modeler.KnifeEdgeHigh, 2, true)
	if reduced >= 0.2 {
		t.Errorf("reduced multiplier = %v, want heavily reduced for high uncertainty + knife-edge + thin liquidity", reduced)
	}
}

func TestAggregateFlagsNegativeEV(t *testing.T) {
	flag := modeler.LockInNotLocked
	out := modeler.Output{Uncertainty: modeler.UncertaintyHigh, KnifeEdge: modeler.KnifeEdgeHigh, LowLockInFlag: &flag}
	acc := accountant.Accounting{NoTradeReason: "Negative EV", EdgeVsImpliedPct: 0.2}
	flags := AggregateFlags(out, acc, true, true)
	for _, want := range []string{"HIGH_UNCERTAINTY", "KNIFE_EDGE_HIGH", "THIN_LIQUIDITY", "WIDE_SPREAD", "NEGATIVE_EV", "MINIMAL_EDGE"} {
		if !contains(flags, want) {
			t.Errorf("flags = %v, missing %q", flags, want)
		}
	}
}
