// Package edge fans in every available NWS-style temperature source for a
// city, tracks the running maximum reading, measures how close it sits to
// a CLI rounding boundary, and produces a trading signal from the
// disagreement (or agreement) between sources.
package edge

import (
	"fmt"
	"time"

	"github.com/tylergwlk/weatherslate/internal/obsparser"
	"github.com/tylergwlk/weatherslate/internal/stations"
	"github.com/tylergwlk/weatherslate/internal/weather"
)

// Confidence grades how trustworthy a single reading is, by source type.
type Confidence string

const (
	ConfidenceHighest    Confidence = "HIGHEST"     // preliminary CLI max
	ConfidenceHigh       Confidence = "HIGH"        // METAR T-group (tenths C)
	ConfidenceMediumHigh Confidence = "MEDIUM_HIGH" // current-conditions decimal F
	ConfidenceMedium     Confidence = "MEDIUM"      // 6hr/24hr extremes
	ConfidenceLow        Confidence = "LOW"         // observation-history rounded values
)

// MarginStatus grades how close the running max sits to a CLI rounding
// boundary. Each integer °F spans 5/9 ~= 0.556C, so thresholds are scaled
// to that physical range.
type MarginStatus string

const (
	MarginComfortable MarginStatus = "COMFORTABLE"
	MarginModerate     MarginStatus = "MODERATE"
	MarginClose        MarginStatus = "CLOSE"
	MarginRazorThin    MarginStatus = "RAZOR_THIN"
)

// TimeRisk grades how likely the daily extreme is to still move.
type TimeRisk string

const (
	TimeRiskStillRising TimeRisk = "STILL_RISING" // before 3pm local
	TimeRiskNearPeak    TimeRisk = "NEAR_PEAK"     // 3-5pm local
	TimeRiskPastPeak    TimeRisk = "PAST_PEAK"     // 5-10pm local
	TimeRiskSettled     TimeRisk = "SETTLED"       // near CLI close
)

// Signal is the trading recommendation for one candidate.
type Signal string

const (
	SignalStrongBuy Signal = "STRONG_BUY"
	SignalBuy       Signal = "BUY"
	SignalHold      Signal = "HOLD"
	SignalCaution   Signal = "CAUTION"
	SignalNoEdge    Signal = "NO_EDGE"
)

// Reading is a single temperature observation from one source.
type Reading struct {
	Source        string
	TimeUTC       *time.Time
	TempC         *float64
	TempFPrecise  *float64
	CLIRoundedF   *int
	Confidence    Confidence
	Note          string
}

// BracketAnalysis describes how the running max sits relative to the
// nearest CLI rounding boundaries.
type BracketAnalysis struct {
	CLIRoundedF   int
	BoundaryBelowC float64
	BoundaryAboveC float64
	MarginBelowC   float64
	MarginAboveC   float64
	MarginStatus   MarginStatus
}

// Report is the full fan-in analysis for one city.
type Report struct {
	City             string
	StationICAO      string
	CLICode          string
	Timezone         string
	AnalysisTimeUTC  time.Time
	Readings         []Reading
	RunningMaxC      *float64
	RunningMaxFPrecise *float64
	RunningMaxCLIF   *int
	RunningMaxSource string
	MetarTempF       *int
	Bracket          *BracketAnalysis
	TimeRisk         TimeRisk
	HoursToCLIClose  *float64
	Signal           Signal
	SignalReason     string
	CLIMaxF          *int
	CLIIsPreliminary bool
}

// ClassifyMargin grades |marginC| (distance above the lower rounding
// boundary) into a MarginStatus.
func ClassifyMargin(marginC float64) MarginStatus {
	abs := marginC
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 0.20:
		return MarginComfortable
	case abs >= 0.12:
		return MarginModerate
	case abs >= 0.06:
		return MarginClose
	default:
		return MarginRazorThin
	}
}

// ClassifyTimeRisk grades the local hour-of-day risk that the extreme
// could still move.
func ClassifyTimeRisk(localHour int) TimeRisk {
	switch {
	case localHour < 15:
		return TimeRiskStillRising
	case localHour < 17:
		return TimeRiskNearPeak
	case localHour < 22:
		return TimeRiskPastPeak
	default:
		return TimeRiskSettled
	}
}

// ComputeBracketAnalysis computes the CLI rounding boundaries around tempC
// and how much margin the running max has before it would round
// differently.
func ComputeBracketAnalysis(tempC float64) BracketAnalysis {
	cliF := int(obsparser.NWSRound(obsparser.CToFPrecise(tempC)))
	boundaryBelow := obsparser.FBoundaryC(cliF - 1)
	boundaryAbove := obsparser.FBoundaryC(cliF)

	marginBelow := tempC - boundaryBelow
	marginAbove := boundaryAbove - tempC

	return BracketAnalysis{
		CLIRoundedF:    cliF,
		BoundaryBelowC: boundaryBelow,
		BoundaryAboveC: boundaryAbove,
		MarginBelowC:   marginBelow,
		MarginAboveC:   marginAbove,
		MarginStatus:   ClassifyMargin(marginBelow),
	}
}

// GenerateSignal produces the trading signal and its rationale from the
// collected readings, preferring a preliminary CLI value when one exists,
// then looking for disagreement between the precise running max and the
// coarser hourly METAR.
func GenerateSignal(r Report) (Signal, string) {
	if r.RunningMaxC == nil || r.Bracket == nil {
		return SignalNoEdge, "Insufficient data to analyze."
	}

	bracket := *r.Bracket
	cliF := bracket.CLIRoundedF

	if r.CLIMaxF != nil {
		if *r.CLIMaxF == cliF {
			return SignalStrongBuy, fmt.Sprintf("Preliminary CLI confirms %dF. Market should converge to this bracket.", cliF)
		}
		if *r.CLIMaxF > cliF {
			return SignalCaution, fmt.Sprintf("Preliminary CLI shows %dF, higher than current running max predicts (%dF). CLI may be stale.", *r.CLIMaxF, cliF)
		}
	}

	metarDisagrees := r.MetarTempF != nil && *r.MetarTempF != cliF

	if metarDisagrees {
		switch bracket.MarginStatus {
		case MarginComfortable, MarginModerate:
			if r.TimeRisk == TimeRiskPastPeak || r.TimeRisk == TimeRiskSettled {
				return SignalStrongBuy, fmt.Sprintf("Precise data shows %dF with %s margin. Hourly METARs show %dF — market likely underpricing. Time risk: %s.", cliF, bracket.MarginStatus, *r.MetarTempF, r.TimeRisk)
			}
			return SignalBuy, fmt.Sprintf("Precise data shows %dF (METAR shows %dF). Margin: %s. Still %s — could move further.", cliF, *r.MetarTempF, bracket.MarginStatus, r.TimeRisk)
		case MarginClose:
			return SignalCaution, fmt.Sprintf("Precise data shows %dF but margin is CLOSE (%+.3fC). Temperature could drift back across the boundary.", cliF, bracket.MarginBelowC)
		default:
			return SignalCaution, fmt.Sprintf("Precise data shows %dF but margin is RAZOR_THIN (%+.3fC). Very risky.", cliF, bracket.MarginBelowC)
		}
	}

	switch bracket.MarginStatus {
	case MarginComfortable:
		return SignalNoEdge, fmt.Sprintf("All sources agree on %dF with comfortable margin. Market likely already priced correctly.", cliF)
	case MarginClose, MarginRazorThin:
		return SignalCaution, fmt.Sprintf("Sources agree on %dF but margin is %s. Small temperature change could flip the bracket.", cliF, bracket.MarginStatus)
	default:
		return SignalHold, fmt.Sprintf("Sources agree on %dF. Moderate margin. No significant edge detected.", cliF)
	}
}

// Sources bundles every fetched NWS-style observation for one city; any
// field may be nil if that source was unavailable.
type Sources struct {
	Metar       *obsparser.Observation
	CurrentCond *weather.CurrentConditions
	ObsHist     *weather.ObservationHistory
	CLI         *weather.CliReport
}

// Analyze runs the full fan-in analysis for one city: build readings from
// every available source, find the running max, compute bracket analysis,
// classify time risk, and generate the trading signal.
func Analyze(entry stations.Entry, src Sources, nowUTC time.Time, nowLocalHour int, hoursToCLIClose float64) Report {
	report := Report{
		City:            entry.City,
		StationICAO:     entry.StationICAO,
		CLICode:         entry.CLICode,
		Timezone:        entry.TimezoneID,
		AnalysisTimeUTC: nowUTC,
	}

	var readings []Reading

	if src.Metar != nil {
		m := src.Metar
		if m.HasTGroup && m.TempCTenths != nil {
			tempC := *m.TempCTenths
			tempF := obsparser.CToFPrecise(tempC)
			cliF := int(obsparser.NWSRound(tempF))
			readings = append(readings, Reading{
				Source: "METAR T-group", TimeUTC: m.ObservationTimeUTC,
				TempC: &tempC, TempFPrecise: &tempF, CLIRoundedF: &cliF,
				Confidence: ConfidenceHigh, Note: fmt.Sprintf("Raw METAR from %s", entry.StationICAO),
			})
		}
		if m.TempCRounded != nil {
			f := obsparser.CToFPrecise(float64(*m.TempCRounded))
			rounded := int(obsparser.NWSRound(f))
			report.MetarTempF = &rounded
		}
		if m.SixHrMaxC != nil {
			tempC := *m.SixHrMaxC
			tempF := obsparser.CToFPrecise(tempC)
			cliF := int(obsparser.NWSRound(tempF))
			readings = append(readings, Reading{
				Source: "METAR 6-hr max", TimeUTC: m.ObservationTimeUTC,
				TempC: &tempC, TempFPrecise: &tempF, CLIRoundedF: &cliF,
				Confidence: ConfidenceMedium, Note: "6-hour maximum from METAR remarks",
			})
		}
	}

	if src.CurrentCond != nil && src.CurrentCond.TempF != nil {
		tempC := src.CurrentCond.TempC
		if tempC == nil {
			c := (*src.CurrentCond.TempF - 32.0) * 5.0 / 9.0
			tempC = &c
		}
		tempF := *src.CurrentCond.TempF
		cliF := int(obsparser.NWSRound(tempF))
		readings = append(readings, Reading{
			Source: "Current Conditions", TimeUTC: &nowUTC,
			TempC: tempC, TempFPrecise: &tempF, CLIRoundedF: &cliF,
			Confidence: ConfidenceMediumHigh, Note: fmt.Sprintf("NWS current conditions page for %s", entry.StationICAO),
		})
	}

	if src.ObsHist != nil && src.ObsHist.MaxTempF != nil {
		maxF := *src.ObsHist.MaxTempF
		maxC := (maxF - 32.0) * 5.0 / 9.0
		cliF := int(obsparser.NWSRound(maxF))
		readings = append(readings, Reading{
			Source: "Observation History Max", TempC: &maxC, TempFPrecise: &maxF, CLIRoundedF: &cliF,
			Confidence: ConfidenceLow, Note: fmt.Sprintf("Max from %d observations today", len(src.ObsHist.Entries)),
		})
	}

	if src.CLI != nil && src.CLI.MaxTempF != nil {
		cliMaxF := *src.CLI.MaxTempF
		report.CLIMaxF = &cliMaxF
		report.CLIIsPreliminary = src.CLI.IsPreliminary
		approxC := (float64(cliMaxF) - 32.0) * 5.0 / 9.0
		tempF := float64(cliMaxF)
		note := fmt.Sprintf("CLI %s: max %dF", entry.CLICode, cliMaxF)
		if src.CLI.MaxTempTime != "" {
			note += fmt.Sprintf(" at %s", src.CLI.MaxTempTime)
		}
		if src.CLI.IsPreliminary {
			note += " (preliminary)"
		}
		readings = append(readings, Reading{
			Source: "Preliminary CLI", TempC: &approxC, TempFPrecise: &tempF, CLIRoundedF: &cliMaxF,
			Confidence: ConfidenceHighest, Note: note,
		})
	}

	report.Readings = readings

	var best *Reading
	for i := range readings {
		r := &readings[i]
		if r.TempC == nil || r.Confidence == ConfidenceLow {
			continue
		}
		if best == nil || *r.TempC > *best.TempC {
			best = r
		}
	}
	if best != nil {
		report.RunningMaxC = best.TempC
		report.RunningMaxFPrecise = best.TempFPrecise
		report.RunningMaxCLIF = best.CLIRoundedF
		report.RunningMaxSource = best.Source
	}

	if report.RunningMaxC != nil {
		b := ComputeBracketAnalysis(*report.RunningMaxC)
		report.Bracket = &b
	}

	report.TimeRisk = ClassifyTimeRisk(nowLocalHour)
	h := hoursToCLIClose
	if h < 0 {
		h = 0
	}
	report.HoursToCLIClose = &h

	report.Signal, report.SignalReason = GenerateSignal(report)

	return report
}
