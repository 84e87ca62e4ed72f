package modeler

import (
	"testing"
	"time"

	"github.com/tylergwlk/weatherslate/internal/stations"
)

func nycStation(t *testing.T) stations.Entry {
	t.Helper()
	e, ok := stations.Lookup("New York")
	if !ok {
		t.Fatal("expected New York in the station registry")
	}
	return *e
}

func TestModelHighTempEarlyMorningMaximumUncertainty(t *testing.T) {
	st := nycStation(t)
	forecastHigh := 75.0
	now := time.Date(2026, 7, 15, 8, 0, 0, 0, time.UTC) // ~4am Eastern

	out, err := Model(Input{
		MarketTicker:    "KXHIGHNY-26JUL15-T75",
		MarketType:      MarketTypeHigh,
		BracketDef:      "75°F or above",
		City:            "New York",
		TargetDateLocal: "2026-07-15",
		Station:         st,
		ForecastHighF:   &forecastHigh,
		NowUTC:          now,
	}, DefaultTunables)
	if err != nil {
		t.Fatalf("Model() error = %v", err)
	}
	if out.HighLockInFlag == nil {
		t.Fatal("expected HighLockInFlag to be populated for a HIGH_TEMP market")
	}
	if *out.HighLockInFlag != LockInNotLocked {
		t.Errorf("HighLockInFlag = %v, want NOT_LOCKED hours before peak", *out.HighLockInFlag)
	}
	if out.LowLockInFlag != nil {
		t.Error("expected LowLockInFlag to stay nil for a HIGH_TEMP market")
	}
	if out.TypicalPeakTimeEstimateLocal == nil {
		t.Error("expected a peak time estimate for a HIGH_TEMP market")
	}
	if out.Uncertainty != UncertaintyHigh {
		t.Errorf("Uncertainty = %v, want HIGH with the forecast sitting on the bracket threshold", out.Uncertainty)
	}
}

func TestModelHighTempLocksInAfterPeakBuffer(t *testing.T) {
	st := nycStation(t)
	forecastHigh := 75.0
	currentObs := 75.0
	// 10pm Eastern — well past peak(15:00)+2h buffer.
	now := time.Date(2026, 7, 16, 2, 0, 0, 0, time.UTC)

	out, err := Model(Input{
		MarketTicker:    "KXHIGHNY-26JUL15-T75",
		MarketType:      MarketTypeHigh,
		BracketDef:      "75°F or above",
		City:            "New York",
		TargetDateLocal: "2026-07-15",
		Station:         st,
		ForecastHighF:   &forecastHigh,
		CurrentObsF:     &currentObs,
		NowUTC:          now,
	}, DefaultTunables)
	if err != nil {
		t.Fatalf("Model() error = %v", err)
	}
	if out.HighLockInFlag == nil || *out.HighLockInFlag != LockInLocking {
		t.Errorf("HighLockInFlag = %v, want LOCKING when current obs already matches forecast high well past peak", out.HighLockInFlag)
	}
}

func TestModelLowTempNoForecastFallsBackToMaxUncertainty(t *testing.T) {
	st := nycStation(t)
	now := time.Date(2026, 7, 15, 10, 0, 0, 0, time.UTC)

	out, err := Model(Input{
		MarketTicker:    "KXLOWNY-26JUL15-T55",
		MarketType:      MarketTypeLow,
		BracketDef:      "55°F or below",
		City:            "New York",
		TargetDateLocal: "2026-07-15",
		Station:         st,
		NowUTC:          now,
	}, DefaultTunables)
	if err != nil {
		t.Fatalf("Model() error = %v", err)
	}
	if out.PYes != 0.5 || out.PNo != 0.5 {
		t.Errorf("PYes/PNo = %v/%v, want 0.5/0.5 with no forecast available", out.PYes, out.PNo)
	}
	if out.Uncertainty != UncertaintyHigh {
		t.Errorf("Uncertainty = %v, want HIGH with no forecast", out.Uncertainty)
	}
	if out.LowLockInFlag == nil {
		t.Fatal("expected LowLockInFlag to be populated for a LOW_TEMP market")
	}
}

func TestModelUnknownTimezoneErrors(t *testing.T) {
	st := nycStation(t)
	st.TimezoneID = "Not/AZone"
	_, err := Model(Input{
		MarketType:      MarketTypeHigh,
		BracketDef:      "75°F or above",
		TargetDateLocal: "2026-07-15",
		Station:         st,
		NowUTC:          time.Now().UTC(),
	}, DefaultTunables)
	if err == nil {
		t.Error("expected an error for an unresolvable timezone")
	}
}
