// Package risk groups candidates by regional correlation, enforces
// portfolio-level caps, sizes stakes, and aggregates per-candidate risk
// flags.
package risk

import (
	"strings"

	"github.com/tylergwlk/weatherslate/internal/accountant"
	"github.com/tylergwlk/weatherslate/internal/modeler"
)

// correlationGroups maps a regional weather regime to the city names (and
// aliases) whose temperatures tend to move together.
var correlationGroups = map[string][]string{
	"Northeast":      {"New York", "NYC", "New York City", "Boston", "Philadelphia", "Philly", "LaGuardia", "LGA"},
	"Mid-Atlantic":   {"Washington", "Washington D.C.", "DC", "Washington DC", "Charlotte"},
	"Southeast":      {"Miami", "Jacksonville", "Tampa", "Atlanta"},
	"Great Lakes":    {"Chicago", "Detroit", "Minneapolis"},
	"South Central":  {"Dallas", "Dallas-Fort Worth", "DFW", "Houston", "Austin", "San Antonio", "Oklahoma City", "OKC", "Nashville", "New Orleans"},
	"Mountain":       {"Denver", "Phoenix", "Las Vegas"},
	"Pacific":        {"Los Angeles", "LA", "San Francisco", "SF", "Seattle"},
}

// metroClusters maps a shared weather-station metro area to its city names.
var metroClusters = map[string][]string{
	"NYC Metro":      {"New York", "NYC", "New York City", "LaGuardia", "LGA"},
	"Chicago Metro":  {"Chicago"},
	"DFW Metro":      {"Dallas", "Dallas-Fort Worth", "DFW"},
	"South Florida":  {"Miami", "Tampa"},
	"Texas Triangle": {"Houston", "Austin", "San Antonio"},
	"SoCal":          {"Los Angeles", "LA"},
	"NorCal":         {"San Francisco", "SF"},
}

var cityToCorrGroup = buildReverseIndex(correlationGroups)
var cityToMetro = buildReverseIndex(metroClusters)

func buildReverseIndex(groups map[string][]string) map[string]string {
	idx := make(map[string]string)
	for group, cities := range groups {
		for _, c := range cities {
			idx[strings.ToLower(c)] = group
		}
	}
	return idx
}

func safeSubstringMatch(key, candidate string) bool {
	if len(candidate) < 4 || len(key) < 4 {
		return false
	}
	return strings.Contains(key, candidate) || strings.Contains(candidate, key)
}

// CorrelationGroup returns the regional correlation group for a city, or
// "Other" if unrecognized.
func CorrelationGroup(city string) string {
	return lookupGroup(city, cityToCorrGroup, "Other")
}

// MetroCluster returns the metro cluster for a city, or "Standalone" if
// unrecognized.
func MetroCluster(city string) string {
	return lookupGroup(city, cityToMetro, "Standalone")
}

func lookupGroup(city string, idx map[string]string, fallback string) string {
	key := strings.ToLower(strings.TrimSpace(city))
	if v, ok := idx[key]; ok {
		return v
	}
	for k, v := range idx {
		if safeSubstringMatch(key, k) {
			return v
		}
	}
	return fallback
}

// Pick is one candidate entering the correlation-cap enforcement pass.
type Pick struct {
	City         string
	MarketTicker string
	RankScore    float64
}

// Rejection records why a pick was dropped by a portfolio cap.
type Rejection struct {
	MarketTicker string
	Reason       string
}

// EnforceCaps sorts picks by rank score (best first) and greedily keeps
// picks until the correlation-group or metro-cluster cap for that pick's
// city is reached.
func EnforceCaps(picks []Pick, maxPerCorrGroup, maxPerMetro int) (kept []Pick, rejected []Rejection) {
	sorted := make([]Pick, len(picks))
	copy(sorted, picks)
	// Stable descending sort by RankScore.
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].RankScore > sorted[j-1].RankScore; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	corrCounts := make(map[string]int)
	metroCounts := make(map[string]int)

	for _, p := range sorted {
		corrGroup := CorrelationGroup(p.City)
		metro := MetroCluster(p.City)

		if corrCounts[corrGroup] >= maxPerCorrGroup {
			rejected = append(rejected, Rejection{MarketTicker: p.MarketTicker, Reason: "Correlation cap: " + corrGroup + " already at limit"})
			continue
		}
		if metroCounts[metro] >= maxPerMetro {
			rejected = append(rejected, Rejection{MarketTicker: p.MarketTicker, Reason: "Metro cap: " + metro + " already at limit"})
			continue
		}

		corrCounts[corrGroup]++
		metroCounts[metro]++
		kept = append(kept, p)
	}
	return kept, rejected
}

// StakePick carries what AllocateStakes needs to size one position.
type StakePick struct {
	MarketTicker    string
	RiskMultiplier  float64 // 0 defaults to 1.0
	LimitCents      int
	StakeUSD        float64
	MaxLossUSD      float64
}

// AllocateStakes distributes bankroll equally across picks, scaled down per
// pick by its risk multiplier, clamped to [0.01, bankroll].
func AllocateStakes(picks []StakePick, bankrollUSD float64) []StakePick {
	if len(picks) == 0 {
		return picks
	}
	baseStake := bankrollUSD / float64(len(picks))

	out := make([]StakePick, len(picks))
	for i, p := range picks {
		mult := p.RiskMultiplier
		if mult == 0 {
			mult = 1.0
		}
		stake := round2(baseStake * mult)
		if stake < 0.01 {
			stake = 0.01
		}
		if stake > bankrollUSD {
			stake = bankrollUSD
		}
		p.StakeUSD = stake
		p.MaxLossUSD = stake
		out[i] = p
	}
	return out
}

// RiskMultiplier folds uncertainty, knife-edge risk, time remaining, and
// liquidity into a single 0.1-1.0 stake-sizing multiplier.
func RiskMultiplier(uncertainty modeler.UncertaintyLevel, knifeEdge modeler.KnifeEdgeRisk, hoursVolRemaining float64, liquidityThin bool) float64 {
	mult := 1.0

	switch uncertainty {
	case modeler.UncertaintyHigh:
		mult *= 0.5
	case modeler.UncertaintyMed:
		mult *= 0.8
	}

	switch knifeEdge {
	case modeler.KnifeEdgeHigh:
		mult *= 0.4
	case modeler.KnifeEdgeMed:
		mult *= 0.7
	}

	if hoursVolRemaining > 8 {
		mult *= 0.8
	}

	if liquidityThin {
		mult *= 0.6
	}

	if mult < 0.1 {
		mult = 0.1
	}
	return round2(mult)
}

// Recommendation is the full per-candidate risk output.
type Recommendation struct {
	MarketTicker      string
	SuggestedStakeUSD float64
	MaxLossUSD        float64
	RiskMultiplier    float64
	RiskFlags         []string
	CorrelationGroup  string
	MetroCluster      string
	Notes             []string
}

// AggregateFlags collects every risk flag that applies to a candidate.
func AggregateFlags(out modeler.Output, acc accountant.Accounting, liquidityThin, spreadWide bool) []string {
	var flags []string

	if out.Uncertainty == modeler.UncertaintyHigh {
		flags = append(flags, "HIGH_UNCERTAINTY")
	}
	if out.KnifeEdge == modeler.KnifeEdgeHigh {
		flags = append(flags, "KNIFE_EDGE_HIGH")
	} else if out.KnifeEdge == modeler.KnifeEdgeMed {
		flags = append(flags, "KNIFE_EDGE_MED")
	}

	if out.LowLockInFlag != nil && *out.LowLockInFlag == modeler.LockInLocking {
		flags = append(flags, "LOW_TEMP_LOCKING")
	}
	if out.HighLockInFlag != nil && *out.HighLockInFlag == modeler.LockInLocking {
		flags = append(flags, "HIGH_TEMP_LOCKING")
	}

	if out.HoursRemainingInVolatilityWindow > 8 {
		flags = append(flags, "LONG_VOL_WINDOW")
	}
	if out.HoursRemainingInVolatilityWindow < 1 {
		flags = append(flags, "VOL_WINDOW_CLOSING")
	}

	if liquidityThin {
		flags = append(flags, "THIN_LIQUIDITY")
	}
	if spreadWide {
		flags = append(flags, "WIDE_SPREAD")
	}

	if acc.NoTradeReason != "" {
		flags = append(flags, "NEGATIVE_EV")
	}
	if acc.EdgeVsImpliedPct < 1.0 {
		flags = append(flags, "MINIMAL_EDGE")
	}

	return flags
}

// BuildRecommendation assembles the full Recommendation for one candidate.
// The stake here is a provisional single-pick estimate (full bankroll
// scaled by risk multiplier) used only for early EV/flag reporting before
// the portfolio is known; AllocateStakes overwrites SuggestedStakeUSD and
// MaxLossUSD once the final pick count is known, splitting bankroll across
// every funded pick instead of assuming one.
func BuildRecommendation(marketTicker, city string, out modeler.Output, acc accountant.Accounting, liquidityThin, spreadWide bool, bankrollUSD float64) Recommendation {
	corrGroup := CorrelationGroup(city)
	metro := MetroCluster(city)
	flags := AggregateFlags(out, acc, liquidityThin, spreadWide)
	riskMult := RiskMultiplier(out.Uncertainty, out.KnifeEdge, out.HoursRemainingInVolatilityWindow, liquidityThin)

	baseStake := round2(maxFloat(0.01, bankrollUSD*riskMult))

	var notes []string
	if riskMult < 0.5 {
		notes = append(notes, "Heavily reduced stake")
	}
	if contains(flags, "NEGATIVE_EV") {
		notes = append(notes, "NO TRADE — negative EV")
	}
	if contains(flags, "KNIFE_EDGE_HIGH") && contains(flags, "HIGH_UNCERTAINTY") {
		notes = append(notes, "REJECT — knife-edge + high uncertainty combo")
	}

	return Recommendation{
		MarketTicker:      marketTicker,
		SuggestedStakeUSD: baseStake,
		MaxLossUSD:        baseStake,
		RiskMultiplier:    riskMult,
		RiskFlags:         flags,
		CorrelationGroup:  corrGroup,
		MetroCluster:      metro,
		Notes:             notes,
	}
}

func contains(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func round2(x float64) float64 {
	return float64(int(x*100+0.5)) / 100
}
