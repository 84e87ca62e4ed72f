package modeler

import (
	"testing"
	"time"
)

func TestSunriseNewYorkRoughlyMorning(t *testing.T) {
	zone, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	date := time.Date(2026, 6, 21, 0, 0, 0, 0, zone)
	sunrise, ok := Sunrise(40.7128, -74.0060, date, zone)
	if !ok {
		t.Fatal("expected a sunrise to exist at mid-latitude on the summer solstice")
	}
	if sunrise.Hour() < 3 || sunrise.Hour() > 7 {
		t.Errorf("sunrise local hour = %d, want roughly 4-6am near the solstice", sunrise.Hour())
	}
}

func TestSunrisePolarNight(t *testing.T) {
	zone := time.UTC
	date := time.Date(2026, 12, 21, 0, 0, 0, 0, zone)
	_, ok := Sunrise(78.0, 15.0, date, zone)
	if ok {
		t.Error("expected no sunrise at a high-Arctic latitude on the winter solstice")
	}
}

func TestPeakTime(t *testing.T) {
	zone, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	date := time.Date(2026, 7, 4, 0, 0, 0, 0, zone)
	peak := PeakTime(date, zone, 15)
	if peak.Hour() != 15 {
		t.Errorf("peak hour = %d, want 15", peak.Hour())
	}
}
