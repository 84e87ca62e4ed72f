// Package teamlead takes a Candidate carrying every other module's output,
// runs the hard-reject gate pipeline, classifies survivors into buckets,
// ranks them, and enforces the per-run pick cap.
package teamlead

import (
	"fmt"
	"sort"

	"github.com/tylergwlk/weatherslate/internal/accountant"
	"github.com/tylergwlk/weatherslate/internal/modeler"
	"github.com/tylergwlk/weatherslate/internal/planner"
	"github.com/tylergwlk/weatherslate/internal/risk"
	"github.com/tylergwlk/weatherslate/internal/stations"
	"github.com/tylergwlk/weatherslate/internal/venue"
)

// Bucket is the final classification of a candidate.
type Bucket string

const (
	BucketPrimary  Bucket = "PRIMARY"
	BucketTight    Bucket = "TIGHT"
	BucketNearMiss Bucket = "NEAR_MISS"
	BucketRejected Bucket = "REJECTED"
)

// PriceWindow names the ask-price bands used for bucket classification.
type PriceWindow struct {
	PrimaryLow, PrimaryHigh     int
	NearMissLowLo, NearMissLowHi   int
	NearMissHighLo, NearMissHighHi int
	MinBidRoomPrimary           int
}

// Candidate is the merged, unified view of one market across every module.
type Candidate struct {
	RunTimeET       string
	TargetDateLocal string
	City            string
	MarketType      modeler.MarketType
	EventName       string
	MarketTicker    string
	MarketURL       string
	BracketDef      string

	StationConfidence stations.Confidence
	Orderbook         venue.Orderbook
	Model             *modeler.Output
	FeesEV            *accountant.Accounting
	TradePlan         *planner.ExecutionPlan
	Allocation        *risk.Recommendation

	Bucket       Bucket
	BucketReason string
	Rank         int
	Warnings     []string
}

// MergeCandidate takes a Candidate with every module's output already
// attached and resets it to REJECTED with no bucket reason or rank, its
// starting state until classified.
func MergeCandidate(c Candidate) Candidate {
	c.Bucket = BucketRejected
	c.BucketReason = ""
	c.Rank = 0
	return c
}

// ApplyHardRejects runs every hard-reject gate in sequence. These gates
// can never be overridden by bucket classification or ranking.
func ApplyHardRejects(c Candidate, maxSpreadCents int) (rejected bool, reason string) {
	if c.StationConfidence != "" && c.StationConfidence != stations.ConfidenceHigh {
		return true, fmt.Sprintf("Mapping confidence %s != HIGH", c.StationConfidence)
	}

	ask, hasAsk := c.Orderbook.ImpliedBestNoAskCents()
	if !hasAsk {
		return true, "Cannot compute implied_best_no_ask — missing best_yes_bid"
	}

	spread := planner.AssessSpread(c.Orderbook, nil, nil, maxSpreadCents)
	if spread.Verdict == planner.SpreadReject {
		return true, "Spread reject: " + spread.Notes
	}

	if c.FeesEV != nil && c.FeesEV.NoTradeReason != "" {
		return true, "EV reject: " + c.FeesEV.NoTradeReason
	}

	if c.Model != nil {
		m := c.Model
		if m.LowLockInFlag != nil && *m.LowLockInFlag == modeler.LockInLocking &&
			m.PNewLowerLowAfterNow != nil && *m.PNewLowerLowAfterNow < 0.05 {
			return true, "LOW lock-in: past sunrise+2h and P(new low) < 5%"
		}
		if m.HighLockInFlag != nil && *m.HighLockInFlag == modeler.LockInLocking &&
			m.PNewHigherHighAfterNow != nil && *m.PNewHigherHighAfterNow < 0.05 {
			return true, "HIGH lock-in: past peak+2h and P(new high) < 5%"
		}
	}

	_ = ask
	return false, ""
}

// ClassifyBucket places a (non-hard-rejected) candidate into PRIMARY,
// TIGHT, NEAR_MISS, or REJECTED based on the implied NO ask and bid room.
func ClassifyBucket(c Candidate, pw PriceWindow) (Bucket, string) {
	ask, ok := c.Orderbook.ImpliedBestNoAskCents()
	if !ok {
		return BucketRejected, "No implied NO ask price"
	}

	room := 0
	if r, ok := c.Orderbook.BidRoomCents(); ok {
		room = r
	}

	if ask >= pw.PrimaryLow && ask <= pw.PrimaryHigh {
		window := fmt.Sprintf("[%d,%d]", pw.PrimaryLow, pw.PrimaryHigh)
		if room >= pw.MinBidRoomPrimary {
			return BucketPrimary, fmt.Sprintf("ask=%dc in %s, room=%dc >= %d", ask, window, room, pw.MinBidRoomPrimary)
		}
		return BucketTight, fmt.Sprintf("ask=%dc in %s, room=%dc < %d", ask, window, room, pw.MinBidRoomPrimary)
	}

	if ask >= pw.NearMissLowLo && ask <= pw.NearMissLowHi {
		return BucketNearMiss, fmt.Sprintf("ask=%dc in near-miss low band [%d,%d]", ask, pw.NearMissLowLo, pw.NearMissLowHi)
	}
	if ask >= pw.NearMissHighLo && ask <= pw.NearMissHighHi {
		return BucketNearMiss, fmt.Sprintf("ask=%dc in near-miss high band [%d,%d]", ask, pw.NearMissHighLo, pw.NearMissHighHi)
	}

	return BucketRejected, fmt.Sprintf("ask=%dc outside scan window", ask)
}

var uncertaintyRank = map[modeler.UncertaintyLevel]int{
	modeler.UncertaintyLow:  0,
	modeler.UncertaintyMed:  1,
	modeler.UncertaintyHigh: 2,
}

var knifeEdgeRank = map[modeler.KnifeEdgeRisk]int{
	modeler.KnifeEdgeLow:  0,
	modeler.KnifeEdgeMed:  1,
	modeler.KnifeEdgeHigh: 2,
}

// rankSortKey produces a lexicographically-ordered key; lower sorts first
// (better rank). Priority: higher EV, lower uncertainty, lower knife-edge,
// higher depth, more hours remaining in the vol window.
func rankSortKey(c Candidate) [5]float64 {
	ev := 0.0
	if c.FeesEV != nil {
		ev = c.FeesEV.EVNetEstCentsAtLimit
	}

	uncertainty, knifeEdge := 1.0, 1.0
	hoursVol := 0.0
	if c.Model != nil {
		uncertainty = float64(uncertaintyRank[c.Model.Uncertainty])
		knifeEdge = float64(knifeEdgeRank[c.Model.KnifeEdge])
		hoursVol = c.Model.HoursRemainingInVolatilityWindow
	}

	depth := float64(venue.Top3Depth(c.Orderbook.Yes) + venue.Top3Depth(c.Orderbook.No))

	return [5]float64{-ev, uncertainty, knifeEdge, -depth, -hoursVol}
}

// RankCandidates sorts candidates by the ranking criteria and assigns
// 1-based rank numbers, mutating and returning the same slice.
func RankCandidates(candidates []Candidate) []Candidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := rankSortKey(candidates[i]), rankSortKey(candidates[j])
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})
	for i := range candidates {
		candidates[i].Rank = i + 1
	}
	return candidates
}

// EnforcePickCounts caps PRIMARY at maxPicks, demoting the lowest-ranked
// excess into TIGHT (prepended, so they're reconsidered ahead of whatever
// was already there).
func EnforcePickCounts(primary, tight, nearMiss []Candidate, maxPicks int) (p, t, n []Candidate) {
	if len(primary) > maxPicks {
		demoted := primary[maxPicks:]
		primary = primary[:maxPicks]
		for i := range demoted {
			demoted[i].Bucket = BucketTight
			demoted[i].BucketReason += " (demoted: exceeded pick limit)"
		}
		tight = append(demoted, tight...)
	}
	return primary, tight, nearMiss
}

// RunBucketPipeline runs the full hard-reject -> classify -> rank ->
// enforce-pick-count pipeline over every candidate in a run.
func RunBucketPipeline(candidates []Candidate, pw PriceWindow, maxSpreadCents, maxPicks int) (primary, tight, nearMiss, rejected []Candidate) {
	for _, c := range candidates {
		if isRejected, reason := ApplyHardRejects(c, maxSpreadCents); isRejected {
			c.Bucket = BucketRejected
			c.BucketReason = reason
			rejected = append(rejected, c)
			continue
		}

		bucket, reason := ClassifyBucket(c, pw)
		c.Bucket = bucket
		c.BucketReason = reason

		switch bucket {
		case BucketPrimary:
			primary = append(primary, c)
		case BucketTight:
			tight = append(tight, c)
		case BucketNearMiss:
			nearMiss = append(nearMiss, c)
		default:
			rejected = append(rejected, c)
		}
	}

	primary = RankCandidates(primary)
	tight = RankCandidates(tight)
	nearMiss = RankCandidates(nearMiss)

	primary, tight, nearMiss = EnforcePickCounts(primary, tight, nearMiss, maxPicks)

	return primary, tight, nearMiss, rejected
}
