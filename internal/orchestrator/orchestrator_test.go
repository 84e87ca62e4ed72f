package orchestrator

import (
	"testing"

	"github.com/tylergwlk/weatherslate/internal/teamlead"
)

func TestLowSeriesREMatchesLowSeriesPrefix(t *testing.T) {
	cases := []struct {
		seriesTicker string
		wantLow      bool
	}{
		{"KXLOWNY", true},
		{"kxlowny-26jan30", true},
		{"KXHIGHNY", false},
		{"KXHIGHCHI-26JAN30", false},
		{"", false},
	}
	for _, c := range cases {
		if got := lowSeriesRE.MatchString(c.seriesTicker); got != c.wantLow {
			t.Errorf("lowSeriesRE.MatchString(%q) = %v, want %v", c.seriesTicker, got, c.wantLow)
		}
	}
}

func candidate(ticker, city string, rank int) teamlead.Candidate {
	return teamlead.Candidate{MarketTicker: ticker, City: city, Bucket: teamlead.BucketPrimary, Rank: rank}
}

func TestApplyPortfolioCapsKeepsDistinctCorrelationGroups(t *testing.T) {
	primary := []teamlead.Candidate{
		candidate("KXHIGHNY-1", "New York", 1),
		candidate("KXHIGHCHI-1", "Chicago", 2),
	}

	cappedPrimary, tight, rejected := applyPortfolioCaps(primary, nil, nil, 1, 1)

	if len(cappedPrimary) != 2 {
		t.Fatalf("expected both candidates kept in PRIMARY, got %d: %+v", len(cappedPrimary), cappedPrimary)
	}
	if len(tight) != 0 {
		t.Errorf("expected no demotions, got %d", len(tight))
	}
	if len(rejected) != 0 {
		t.Errorf("expected no rejections, got %d", len(rejected))
	}
}

func TestApplyPortfolioCapsDemotesOverCorrelationCap(t *testing.T) {
	primary := []teamlead.Candidate{
		candidate("KXHIGHNY-1", "New York", 1),
		candidate("KXHIGHBOS-1", "Boston", 2), // same Northeast correlation group as New York
	}

	cappedPrimary, tight, rejected := applyPortfolioCaps(primary, nil, nil, 1, 4)

	if len(cappedPrimary) != 1 || cappedPrimary[0].MarketTicker != "KXHIGHNY-1" {
		t.Fatalf("expected only the higher-ranked New York pick to remain PRIMARY, got %+v", cappedPrimary)
	}
	if len(tight) != 1 || tight[0].MarketTicker != "KXHIGHBOS-1" {
		t.Fatalf("expected Boston demoted to TIGHT, got %+v", tight)
	}
	if tight[0].Bucket != teamlead.BucketTight {
		t.Errorf("demoted candidate Bucket = %v, want TIGHT", tight[0].Bucket)
	}
	if len(rejected) != 0 {
		t.Errorf("expected no hard rejections from a correlation-cap demotion, got %d", len(rejected))
	}
}

func TestApplyPortfolioCapsPreservesExistingTightAndRejected(t *testing.T) {
	primary := []teamlead.Candidate{candidate("KXHIGHNY-1", "New York", 1)}
	existingTight := []teamlead.Candidate{candidate("KXHIGHDEN-1", "Denver", 5)}
	existingRejected := []teamlead.Candidate{{MarketTicker: "KXHIGHSEA-1", Bucket: teamlead.BucketRejected, BucketReason: "spread too wide"}}

	cappedPrimary, tight, rejected := applyPortfolioCaps(primary, existingTight, existingRejected, 2, 2)

	if len(cappedPrimary) != 1 {
		t.Fatalf("expected New York to remain PRIMARY, got %+v", cappedPrimary)
	}
	if len(tight) != 1 || tight[0].MarketTicker != "KXHIGHDEN-1" {
		t.Fatalf("expected the pre-existing TIGHT candidate preserved, got %+v", tight)
	}
	if len(rejected) != 1 || rejected[0].MarketTicker != "KXHIGHSEA-1" {
		t.Fatalf("expected the pre-existing rejection preserved, got %+v", rejected)
	}
}
