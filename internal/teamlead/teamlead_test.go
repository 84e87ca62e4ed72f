package teamlead

import (
	"testing"

	"github.com/tylergwlk/weatherslate/internal/accountant"
	"github.com/tylergwlk/weatherslate/internal/modeler"
	"github.com/tylergwlk/weatherslate/internal/stations"
	"github.com/tylergwlk/weatherslate/internal/venue"
)

var testWindow = PriceWindow{
	PrimaryLow: 90, PrimaryHigh: 93,
	NearMissLowLo: 88, NearMissLowHi: 89,
	NearMissHighLo: 94, NearMissHighHi: 95,
	MinBidRoomPrimary: 2,
}

func bookAt(yesBid, noBid int) venue.Orderbook {
	return venue.Orderbook{
		Yes: []venue.PriceLevel{{PriceCents: yesBid, Quantity: 10}},
		No:  []venue.PriceLevel{{PriceCents: noBid, Quantity: 10}},
	}
}

func TestApplyHardRejectsLowMappingConfidence(t *testing.T) {
	c := Candidate{StationConfidence: stations.ConfidenceLow, Orderbook: bookAt(60, 38)}
	rejected, reason := ApplyHardRejects(c, 6)
	if !rejected || reason == "" {
		t.Error("expected a hard reject for non-HIGH mapping confidence")
	}
}

func TestApplyHardRejectsMissingAsk(t *testing.T) {
	c := Candidate{StationConfidence: stations.ConfidenceHigh, Orderbook: venue.Orderbook{}}
	rejected, _ := ApplyHardRejects(c, 6)
	if !rejected {
		t.Error("expected a hard reject when no implied ask can be computed")
	}
}

func TestApplyHardRejectsLockedLowTemp(t *testing.T) {
	flag := modeler.LockInLocking
	p := 0.02
	c := Candidate{
		StationConfidence: stations.ConfidenceHigh,
		Orderbook:         bookAt(60, 38),
		Model:             &modeler.Output{LowLockInFlag: &flag, PNewLowerLowAfterNow: &p},
	}
	rejected, reason := ApplyHardRejects(c, 6)
	if !rejected {
		t.Errorf("expected a hard reject for LOW lock-in with P(new low)=%v below threshold, reason=%q", p, reason)
	}
}

func TestApplyHardRejectsPasses(t *testing.T) {
	c := Candidate{StationConfidence: stations.ConfidenceHigh, Orderbook: bookAt(60, 38)}
	rejected, reason := ApplyHardRejects(c, 6)
	if rejected {
		t.Errorf("expected no hard reject for a clean candidate, got reason=%q", reason)
	}
}

func TestClassifyBucketPrimaryVsTight(t *testing.T) {
	cPrimary := Candidate{Orderbook: bookAt(91, 89)} // implied ask=9? wait compute below
	_ = cPrimary
	// implied ask = 100 - yesBid; choose yesBid=9 -> ask=91, in [90,93]
	c := Candidate{Orderbook: bookAt(9, 87)} // ask=91, bid=87, room=4 >= 2
	bucket, _ := ClassifyBucket(c, testWindow)
	if bucket != BucketPrimary {
		t.Errorf("bucket = %v, want PRIMARY", bucket)
	}

	cTight := Candidate{Orderbook: bookAt(9, 90)} // ask=91, bid=90, room=1 < 2
	bucket2, _ := ClassifyBucket(cTight, testWindow)
	if bucket2 != BucketTight {
		t.Errorf("bucket = %v, want TIGHT", bucket2)
	}
}

func TestClassifyBucketNearMiss(t *testing.T) {
	c := Candidate{Orderbook: bookAt(11, 85)} // ask=89, in near-miss low band
	bucket, _ := ClassifyBucket(c, testWindow)
	if bucket != BucketNearMiss {
		t.Errorf("bucket = %v, want NEAR_MISS", bucket)
	}
}

func TestRankCandidatesOrdersByEVThenUncertainty(t *testing.T) {
	cands := []Candidate{
		{MarketTicker: "A", FeesEV: &accountant.Accounting{EVNetEstCentsAtLimit: 2}, Model: &modeler.Output{Uncertainty: modeler.UncertaintyHigh, KnifeEdge: modeler.KnifeEdgeLow}},
		{MarketTicker: "B", FeesEV: &accountant.Accounting{EVNetEstCentsAtLimit: 5}, Model: &modeler.Output{Uncertainty: modeler.UncertaintyLow, KnifeEdge: modeler.KnifeEdgeLow}},
	}
	ranked := RankCandidates(cands)
	if ranked[0].MarketTicker != "B" {
		t.Errorf("ranked[0] = %s, want B (higher EV)", ranked[0].MarketTicker)
	}
	if ranked[0].Rank != 1 || ranked[1].Rank != 2 {
		t.Errorf("ranks = %d, %d, want 1, 2", ranked[0].Rank, ranked[1].Rank)
	}
}

func TestEnforcePickCountsDemotesExcessToTight(t *testing.T) {
	primary := make([]Candidate, 3)
	for i := range primary {
		primary[i] = Candidate{MarketTicker: string(rune('A' + i))}
	}
	p, tgt, _ := EnforcePickCounts(primary, nil, nil, 2)
	if len(p) != 2 {
		t.Fatalf("primary len = %d, want 2", len(p))
	}
	if len(tgt) != 1 || tgt[0].Bucket != BucketTight {
		t.Fatalf("tight = %+v, want 1 demoted candidate", tgt)
	}
}
