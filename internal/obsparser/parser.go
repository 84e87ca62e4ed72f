// Package obsparser extracts precise temperatures and period extrema from
// raw surface-observation (METAR-style) report text. Every conversion
// follows the NWS ASOS/CLI pipeline convention: half-up rounding, never
// banker's rounding.
package obsparser

import (
	"math"
	"regexp"
	"strconv"
	"time"
)

// Observation is the lossless result of parsing one raw report.
type Observation struct {
	StationID          string
	ObservationTimeUTC *time.Time
	RawText            string

	TempCTenths     *float64 // T-group precision, e.g. 3.9
	DewpointCTenths *float64
	TempFPrecise    *float64 // full-precision °F derived from the T-group
	TempCRounded    *int     // standard whole-°C field
	HasTGroup       bool

	SixHrMaxC *float64
	SixHrMinC *float64

	TwentyFourHrMaxC *float64
	TwentyFourHrMinC *float64
}

// NWSRound implements the authority's half-up rounding: math.Floor(x+0.5).
// This differs from banker's rounding at exact half-integers, e.g.
// NWSRound(2.5) == 3, where round-half-to-even gives 2.
func NWSRound(x float64) int {
	return int(math.Floor(x + 0.5))
}

// CToFPrecise converts Celsius to Fahrenheit with no rounding.
func CToFPrecise(c float64) float64 {
	return c*9.0/5.0 + 32.0
}

// CLIRoundedF converts Celsius to an integer Fahrenheit reading the way the
// settlement CLI product does: convert, then half-up round.
func CLIRoundedF(c float64) int {
	return NWSRound(CToFPrecise(c))
}

// FBoundaryC returns the Celsius value at which CLIRoundedF first reports
// nF+1 instead of nF. At exactly this value the rounded reading is nF+1;
// infinitesimally below it, nF.
func FBoundaryC(nF int) float64 {
	return (float64(nF) + 0.5 - 32.0) * 5.0 / 9.0
}

var (
	tGroupRE     = regexp.MustCompile(`\bT(\d)(\d{3})(\d)(\d{3})\b`)
	sixHrMaxRE   = regexp.MustCompile(`\b1(\d)(\d{3})\b`)
	sixHrMinRE   = regexp.MustCompile(`\b2(\d)(\d{3})\b`)
	twentyFourRE = regexp.MustCompile(`\b4(\d)(\d{3})(\d)(\d{3})\b`)
	// Standard METAR temp/dewpoint TT/DD, M prefix means negative. Requires a
	// preceding and following space/end-of-string boundary so the date
	// fragment in a "2026/02/24 20:53" timestamp header never matches: Go's
	// regexp lacks lookaround, so boundaries are enforced by capturing the
	// surrounding whitespace instead.
	standardTempRE = regexp.MustCompile(`(?:^| )(M?\d{2})/(M?\d{2})(?:$| )`)
	obsTimeRE      = regexp.MustCompile(`(\d{4})/(\d{2})/(\d{2})\s+(\d{2}):(\d{2})`)
)

// ParseTGroup extracts the tenths-precision temperature/dewpoint pair from
// the remarks section. Returns (nil, nil) if absent.
func ParseTGroup(text string) (*float64, *float64) {
	m := tGroupRE.FindStringSubmatch(text)
	if m == nil {
		return nil, nil
	}
	temp := signedTenths(m[1], m[2])
	dew := signedTenths(m[3], m[4])
	return &temp, &dew
}

// Parse6HrExtremes extracts the 6-hour max (1sddd) and min (2sddd) groups.
func Parse6HrExtremes(text string) (max, min *float64) {
	if m := sixHrMaxRE.FindStringSubmatch(text); m != nil {
		v := signedTenths(m[1], m[2])
		max = &v
	}
	if m := sixHrMinRE.FindStringSubmatch(text); m != nil {
		v := signedTenths(m[1], m[2])
		min = &v
	}
	return max, min
}

// Parse24HrExtremes extracts the 24-hour max/min group (4 s ddd s ddd).
func Parse24HrExtremes(text string) (max, min *float64) {
	m := twentyFourRE.FindStringSubmatch(text)
	if m == nil {
		return nil, nil
	}
	v1 := signedTenths(m[1], m[2])
	v2 := signedTenths(m[3], m[4])
	return &v1, &v2
}

// ParseStandardTemp extracts the whole-°C TT/DD field (M prefix = negative).
func ParseStandardTemp(text string) (temp, dew *int) {
	m := standardTempRE.FindStringSubmatch(text)
	if m == nil {
		return nil, nil
	}
	t := parseWholeSigned(m[1])
	d := parseWholeSigned(m[2])
	return &t, &d
}

// ParseObservationTime extracts the header timestamp "YYYY/MM/DD HH:MM"
// that NWS raw-text observation files carry on their first line.
func ParseObservationTime(text string) *time.Time {
	m := obsTimeRE.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	return &t
}

// Parse parses a raw observation report into an Observation. Every field
// not present in the text is left nil, never a zero-value sentinel.
func Parse(stationID, rawText string) Observation {
	obs := Observation{StationID: stationID, RawText: rawText}

	obs.ObservationTimeUTC = ParseObservationTime(rawText)

	tempTenths, dewTenths := ParseTGroup(rawText)
	obs.TempCTenths = tempTenths
	obs.DewpointCTenths = dewTenths
	obs.HasTGroup = tempTenths != nil
	if tempTenths != nil {
		f := CToFPrecise(*tempTenths)
		obs.TempFPrecise = &f
	}

	tempRounded, _ := ParseStandardTemp(rawText)
	obs.TempCRounded = tempRounded

	obs.SixHrMaxC, obs.SixHrMinC = Parse6HrExtremes(rawText)
	obs.TwentyFourHrMaxC, obs.TwentyFourHrMinC = Parse24HrExtremes(rawText)

	return obs
}

func signedTenths(sign, digits string) float64 {
	n, _ := strconv.Atoi(digits)
	v := float64(n) / 10.0
	if sign == "1" {
		v = -v
	}
	return v
}

func parseWholeSigned(s string) int {
	neg := false
	if len(s) > 0 && s[0] == 'M' {
		neg = true
		s = s[1:]
	}
	n, _ := strconv.Atoi(s)
	if neg {
		return -n
	}
	return n
}
