// Package stations is the static, read-only registry mapping a market's
// city name to the station and climate-report identifiers, time zone, and
// mapping-confidence grade used by the rest of the pipeline.
package stations

import (
	"strings"
	"time"
)

// Confidence grades how much the registry trusts its own city->station
// mapping. Only HIGH-confidence entries survive the Team Lead's hard
// rejects.
type Confidence string

const (
	ConfidenceHigh Confidence = "HIGH"
	ConfidenceMed  Confidence = "MED"
	ConfidenceLow  Confidence = "LOW"
)

// Entry is one row of the station registry.
type Entry struct {
	City            string
	Aliases         []string
	StationICAO     string
	CLICode         string
	TimezoneID      string
	Latitude        float64
	Longitude       float64
	HighTempField   string // e.g. "MAXIMUM TEMPERATURE"
	LowTempField    string // e.g. "MINIMUM TEMPERATURE"
	Confidence      Confidence
	Notes           string
}

// All is the process-global, read-only registry. It is built once at
// package load and never mutated afterward.
var All = []Entry{
	{
		City: "New York", Aliases: []string{"NYC", "New York City", "NY", "Manhattan"},
		StationICAO: "KNYC", CLICode: "CLINYC", TimezoneID: "America/New_York",
		Latitude: 40.7794, Longitude: -73.9691,
		HighTempField: "MAXIMUM TEMPERATURE", LowTempField: "MINIMUM TEMPERATURE",
		Confidence: ConfidenceHigh, Notes: "Central Park (KNYC), the venue's settlement station for NYC markets.",
	},
	{
		City: "Los Angeles", Aliases: []string{"LA", "L.A."},
		StationICAO: "KLAX", CLICode: "CLILAX", TimezoneID: "America/Los_Angeles",
		Latitude: 33.9382, Longitude: -118.3866,
		HighTempField: "MAXIMUM TEMPERATURE", LowTempField: "MINIMUM TEMPERATURE",
		Confidence: ConfidenceHigh,
	},
	{
		City: "Chicago", Aliases: []string{"Chi-Town", "Chitown"},
		StationICAO: "KMDW", CLICode: "CLIMDW", TimezoneID: "America/Chicago",
		Latitude: 41.7868, Longitude: -87.7522,
		HighTempField: "MAXIMUM TEMPERATURE", LowTempField: "MINIMUM TEMPERATURE",
		Confidence: ConfidenceHigh, Notes: "Midway (KMDW) is the venue's settlement station, not O'Hare.",
	},
	{
		City: "Miami", Aliases: []string{"Miami Beach"},
		StationICAO: "KMIA", CLICode: "CLIMIA", TimezoneID: "America/New_York",
		Latitude: 25.7932, Longitude: -80.2906,
		HighTempField: "MAXIMUM TEMPERATURE", LowTempField: "MINIMUM TEMPERATURE",
		Confidence: ConfidenceHigh,
	},
	{
		City: "Denver", Aliases: []string{"Mile High City"},
		StationICAO: "KDEN", CLICode: "CLIDEN", TimezoneID: "America/Denver",
		Latitude: 39.8467, Longitude: -104.6561,
		HighTempField: "MAXIMUM TEMPERATURE", LowTempField: "MINIMUM TEMPERATURE",
		Confidence: ConfidenceHigh,
	},
	{
		City: "Austin", Aliases: []string{"ATX"},
		StationICAO: "KAUS", CLICode: "CLIAUS", TimezoneID: "America/Chicago",
		Latitude: 30.1975, Longitude: -97.6664,
		HighTempField: "MAXIMUM TEMPERATURE", LowTempField: "MINIMUM TEMPERATURE",
		Confidence: ConfidenceHigh,
	},
	{
		City: "Philadelphia", Aliases: []string{"Philly"},
		StationICAO: "KPHL", CLICode: "CLIPHL", TimezoneID: "America/New_York",
		Latitude: 39.8719, Longitude: -75.2411,
		HighTempField: "MAXIMUM TEMPERATURE", LowTempField: "MINIMUM TEMPERATURE",
		Confidence: ConfidenceHigh,
	},
}

// CLIDayWindow returns the UTC half-open interval [midnight_LST, midnight_LST
// + 24h) for targetDate in zone, using the zone's STANDARD (non-DST) UTC
// offset for the whole interval regardless of whether targetDate itself
// falls inside DST. This matches the settlement convention: the climate
// day is always reckoned in local standard time.
func CLIDayWindow(targetDate time.Time, zone *time.Location) (start, end time.Time) {
	year := targetDate.Year()
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, zone)
	_, stdOffsetSec := jan1.Zone()

	localMidnightNaive := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, time.UTC)
	start = localMidnightNaive.Add(-time.Duration(stdOffsetSec) * time.Second)
	end = start.Add(24 * time.Hour)
	return start, end
}

// Lookup resolves a free-text city name to a registry Entry. It tries an
// exact (case-insensitive) city or alias match first, then falls back to a
// substring match that is only accepted when both the query and the
// candidate name are at least 4 characters — this avoids false positives
// like "LA" spuriously matching inside "Atlanta".
func Lookup(city string) (*Entry, bool) {
	q := strings.ToLower(strings.TrimSpace(city))
	if q == "" {
		return nil, false
	}

	for i := range All {
		if strings.ToLower(All[i].City) == q {
			return &All[i], true
		}
		for _, alias := range All[i].Aliases {
			if strings.ToLower(alias) == q {
				return &All[i], true
			}
		}
	}

	if len(q) < 4 {
		return nil, false
	}
	for i := range All {
		if safeSubstringMatch(q, strings.ToLower(All[i].City)) {
			return &All[i], true
		}
		for _, alias := range All[i].Aliases {
			if safeSubstringMatch(q, strings.ToLower(alias)) {
				return &All[i], true
			}
		}
	}
	return nil, false
}

// safeSubstringMatch requires both sides to be at least 4 characters before
// treating a substring relationship as a match.
func safeSubstringMatch(a, b string) bool {
	if len(a) < 4 || len(b) < 4 {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
