package modeler

import (
	"math"
	"time"
)

// Sunrise computes the approximate local sunrise time for a station at
// (lat, lon) on date, in zone. No third-party library in the example corpus
// provides solar-position math, so this is implemented directly against the
// standard NOAA solar calculation (a day-of-year-based solar declination and
// hour-angle formula) — see DESIGN.md for why this one piece is
// stdlib-only. Returns (zero, false) if the location is polar-day/polar-
// night on that date (no sunrise occurs).
func Sunrise(lat, lon float64, date time.Time, zone *time.Location) (time.Time, bool) {
	dayOfYear := float64(date.YearDay())

	// Fractional year, radians.
	gamma := 2 * math.Pi / 365 * (dayOfYear - 1)

	// Equation of time (minutes) and solar declination (radians), per the
	// standard NOAA approximation.
	eqTime := 229.18 * (0.000075 +
		0.001868*math.Cos(gamma) - 0.032077*math.Sin(gamma) -
		0.014615*math.Cos(2*gamma) - 0.040849*math.Sin(2*gamma))

	decl := 0.006918 -
		0.399912*math.Cos(gamma) + 0.070257*math.Sin(gamma) -
		0.006758*math.Cos(2*gamma) + 0.000907*math.Sin(2*gamma) -
		0.002697*math.Cos(3*gamma) + 0.00148*math.Sin(3*gamma)

	latRad := lat * math.Pi / 180
	// Standard solar zenith angle for sunrise/sunset, 90.833° accounting for
	// atmospheric refraction and the sun's apparent radius.
	zenith := 90.833 * math.Pi / 180

	cosHourAngle := (math.Cos(zenith) - math.Sin(latRad)*math.Sin(decl)) / (math.Cos(latRad) * math.Cos(decl))
	if cosHourAngle > 1 || cosHourAngle < -1 {
		return time.Time{}, false
	}
	hourAngle := math.Acos(cosHourAngle) * 180 / math.Pi

	sunriseUTCMinutes := 720 - 4*(lon+hourAngle) - eqTime

	midnightUTC := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	sunriseUTC := midnightUTC.Add(time.Duration(sunriseUTCMinutes * float64(time.Minute)))

	return sunriseUTC.In(zone), true
}

// PeakTime returns the typical peak-temperature local time for date: a
// fixed hour (default 15:00, i.e. 3 PM) per SPEC_FULL.md §4.6.
func PeakTime(date time.Time, zone *time.Location, peakHour int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), peakHour, 0, 0, 0, zone)
}
