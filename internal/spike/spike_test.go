package spike

import (
	"testing"
	"time"
)

func snap(secOffset, ask int) PriceSnapshot {
	base := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	return PriceSnapshot{TimeUTC: base.Add(time.Duration(secOffset) * time.Second), AskCents: ask}
}

func TestHistoryRecordAndPrune(t *testing.T) {
	h := NewHistory(60 * time.Second)
	h.Record("A", snap(0, 90))
	h.Record("A", snap(30, 88))
	h.Record("A", snap(90, 85)) // triggers prune relative to this snapshot's time

	snaps := h.Get("A")
	for _, s := range snaps {
		if s.AskCents == 90 {
			t.Error("expected the oldest snapshot to be pruned once outside the 60s window")
		}
	}
}

func TestHistoryTickersSorted(t *testing.T) {
	h := NewHistory(time.Minute)
	h.Record("B", snap(0, 50))
	h.Record("A", snap(0, 60))
	tickers := h.Tickers()
	if len(tickers) != 2 || tickers[0] != "A" || tickers[1] != "B" {
		t.Errorf("Tickers() = %v, want sorted [A B]", tickers)
	}
}

func TestDetectSpikeFindsRiseAboveThreshold(t *testing.T) {
	snaps := []PriceSnapshot{snap(0, 70), snap(60, 75), snap(120, 90)}
	window := 200 * time.Second
	ev, ok := DetectSpike("T", snaps, 15, window, snap(120, 90).TimeUTC, nil)
	if !ok {
		t.Fatal("expected a spike to be detected")
	}
	if ev.DeltaCents != 20 {
		t.Errorf("DeltaCents = %d, want 20 (70 -> 90)", ev.DeltaCents)
	}
	if ev.FromCents != 70 || ev.ToCents != 90 {
		t.Errorf("FromCents/ToCents = %d/%d, want 70/90", ev.FromCents, ev.ToCents)
	}
}

func TestDetectSpikeIgnoresPriceFall(t *testing.T) {
	snaps := []PriceSnapshot{snap(0, 90), snap(60, 89), snap(120, 70)}
	window := 200 * time.Second
	_, ok := DetectSpike("T", snaps, 15, window, snap(120, 70).TimeUTC, nil)
	if ok {
		t.Error("expected no spike on a 90 -> 70 fall; DetectSpike only fires on a rise")
	}
}

func TestDetectSpikeOnlyComparesOldestInWindowToLatest(t *testing.T) {
	// The very first snapshot is outside the window; the spike should be
	// measured against the oldest snapshot still inside it, not the
	// absolute oldest in history.
	snaps := []PriceSnapshot{snap(0, 50), snap(300, 70), snap(360, 90)}
	window := 100 * time.Second
	ev, ok := DetectSpike("T", snaps, 15, window, snap(360, 90).TimeUTC, nil)
	if !ok {
		t.Fatal("expected a spike to be detected")
	}
	if ev.FromCents != 70 {
		t.Errorf("FromCents = %d, want 70 (oldest snapshot still inside the window)", ev.FromCents)
	}
}

func TestDetectSpikeBelowThresholdNotDetected(t *testing.T) {
	snaps := []PriceSnapshot{snap(0, 90), snap(60, 92)}
	_, ok := DetectSpike("T", snaps, 15, 200*time.Second, snap(60, 92).TimeUTC, nil)
	if ok {
		t.Error("expected no spike for a 2c move under a 15c threshold")
	}
}

func TestDetectSpikeRespectsCooldown(t *testing.T) {
	snaps := []PriceSnapshot{snap(0, 70), snap(60, 90)}
	now := snap(60, 90).TimeUTC
	cd := NewCooldowns(10 * time.Minute)
	cd.Fire("T", now.Add(-time.Minute))

	_, ok := DetectSpike("T", snaps, 15, 200*time.Second, now, cd)
	if ok {
		t.Error("expected the cooldown to suppress a re-fire within its window")
	}
}

func TestDetectSpikeSingleSnapshotNoSpike(t *testing.T) {
	_, ok := DetectSpike("T", []PriceSnapshot{snap(0, 90)}, 15, 200*time.Second, snap(0, 90).TimeUTC, nil)
	if ok {
		t.Error("expected no spike with fewer than 2 snapshots")
	}
}

func TestMonitorTriggerBurstAndEndBurst(t *testing.T) {
	m := NewMonitor()
	if m.State() != StateMonitoring {
		t.Fatalf("new monitor state = %v, want MONITORING", m.State())
	}
	m.TriggerBurst()
	if m.State() != StateBurst {
		t.Fatalf("state after TriggerBurst = %v, want BURST", m.State())
	}
	m.EndBurst()
	if m.State() != StateMonitoring {
		t.Fatalf("state after EndBurst = %v, want MONITORING", m.State())
	}
}

func TestInActiveWindowNormalRange(t *testing.T) {
	if !InActiveWindow(10, 5, 23, false) {
		t.Error("expected 10 to be within [5,23)")
	}
	if InActiveWindow(2, 5, 23, false) {
		t.Error("expected 2 to be outside [5,23)")
	}
}

func TestInActiveWindowAllHoursOverride(t *testing.T) {
	if !InActiveWindow(2, 5, 23, true) {
		t.Error("expected allHours=true to always be active")
	}
}

func TestInActiveWindowWrapping(t *testing.T) {
	if !InActiveWindow(23, 22, 6, false) {
		t.Error("expected 23 to be within wrapping window [22,6)")
	}
	if InActiveWindow(10, 22, 6, false) {
		t.Error("expected 10 to be outside wrapping window [22,6)")
	}
}
