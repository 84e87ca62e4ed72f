package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tylergwlk/weatherslate/internal/accountant"
	"github.com/tylergwlk/weatherslate/internal/teamlead"
	"github.com/tylergwlk/weatherslate/internal/venue"
)

func candWithAsk(ticker string, yesBid int, bucket teamlead.Bucket, ev float64) teamlead.Candidate {
	return teamlead.Candidate{
		MarketTicker: ticker,
		City:         "New York",
		Bucket:       bucket,
		Orderbook:    venue.Orderbook{Yes: []venue.PriceLevel{{PriceCents: yesBid, Quantity: 5}}},
		FeesEV:       &accountant.Accounting{EVNetEstCentsAtLimit: ev},
	}
}

func TestBuildSlateCountsMatchBuckets(t *testing.T) {
	primary := []teamlead.Candidate{candWithAsk("A", 10, teamlead.BucketPrimary, 2)}
	slate := BuildSlate("2026-07-30 09:00 ET", "2026-07-30", 500, primary, nil, nil, nil, 10, 20, 5, nil)
	if slate.Stats.PrimaryCount != 1 {
		t.Errorf("PrimaryCount = %d, want 1", slate.Stats.PrimaryCount)
	}
}

func TestComputeDeltaDetectsNewAndRemoved(t *testing.T) {
	prior := BuildSlate("t0", "2026-07-30", 500, []teamlead.Candidate{candWithAsk("A", 10, teamlead.BucketPrimary, 2)}, nil, nil, nil, 0, 0, 0, nil)
	current := BuildSlate("t1", "2026-07-30", 500, []teamlead.Candidate{candWithAsk("B", 10, teamlead.BucketPrimary, 2)}, nil, nil, nil, 0, 0, 0, nil)

	notes := ComputeDelta(current, prior, 2)
	foundNew, foundRemoved := false, false
	for _, n := range notes {
		if n == "NEW: B appeared (bucket: PRIMARY)" {
			foundNew = true
		}
		if n == "REMOVED: A (was PRIMARY)" {
			foundRemoved = true
		}
	}
	if !foundNew || !foundRemoved {
		t.Errorf("notes = %v, want NEW B and REMOVED A", notes)
	}
}

func TestComputeDeltaNoChangesMessage(t *testing.T) {
	cand := candWithAsk("A", 10, teamlead.BucketPrimary, 2)
	prior := BuildSlate("t0", "2026-07-30", 500, []teamlead.Candidate{cand}, nil, nil, nil, 0, 0, 0, nil)
	current := BuildSlate("t1", "2026-07-30", 500, []teamlead.Candidate{cand}, nil, nil, nil, 0, 0, 0, nil)

	notes := ComputeDelta(current, prior, 2)
	if len(notes) != 1 || notes[0] != "No material changes from prior run." {
		t.Errorf("notes = %v, want a single no-change message", notes)
	}
}

func TestShouldSuppressChangeSmallMove(t *testing.T) {
	prev := candWithAsk("A", 10, teamlead.BucketPrimary, 2) // ask = 90
	curr := candWithAsk("A", 11, teamlead.BucketTight, 2)   // ask = 89, move of 1c
	if !ShouldSuppressChange(curr, prev, 2) {
		t.Error("expected a 1c move under the 2c threshold to be suppressed")
	}
}

func TestShouldSuppressChangeLargeMoveNotSuppressed(t *testing.T) {
	prev := candWithAsk("A", 10, teamlead.BucketPrimary, 2) // ask = 90
	curr := candWithAsk("A", 15, teamlead.BucketTight, 2)   // ask = 85, move of 5c
	if ShouldSuppressChange(curr, prev, 2) {
		t.Error("expected a 5c move over the 2c threshold to not be suppressed")
	}
}

func TestLoadPriorSlateMissingFileReturnsNilNoError(t *testing.T) {
	slate, err := LoadPriorSlate(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slate != nil {
		t.Error("expected nil slate for a missing prior file")
	}
}

func TestWriteJSONRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slate.json")
	slate := BuildSlate("t0", "2026-07-30", 500, []teamlead.Candidate{candWithAsk("A", 10, teamlead.BucketPrimary, 2)}, nil, nil, nil, 0, 0, 0, nil)
	if err := WriteJSON(slate, path); err != nil {
		t.Fatalf("WriteJSON error = %v", err)
	}
	loaded, err := LoadPriorSlate(path)
	if err != nil || loaded == nil {
		t.Fatalf("LoadPriorSlate error = %v, loaded = %v", err, loaded)
	}
	if loaded.Stats.PrimaryCount != 1 {
		t.Errorf("loaded PrimaryCount = %d, want 1", loaded.Stats.PrimaryCount)
	}
}

func TestWriteReportMarkdownProducesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "REPORT.md")
	slate := BuildSlate("t0", "2026-07-30", 500, nil, nil, nil, nil, 0, 0, 0, nil)
	if err := WriteReportMarkdown(slate, []string{"note"}, path); err != nil {
		t.Fatalf("WriteReportMarkdown error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error = %v", err)
	}
	if len(data) == 0 {
		t.Error("expected non-empty report")
	}
}
