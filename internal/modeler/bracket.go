package modeler

import (
	"regexp"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"
)

var (
	aboveBelowRE = regexp.MustCompile(`(?i)(\d+)°?\s*F?\s+or\s+(above|below)`)
	betweenRE    = regexp.MustCompile(`(?i)(?:between\s+)?(\d+)°?\s*F?\s+(?:and|to)\s+(\d+)`)
	anyNumberRE  = regexp.MustCompile(`(\d+)`)
)

// ParseBracketThreshold extracts the numeric threshold (or midpoint, for a
// between-bracket) from a bracket's free-text definition. Returns false if
// no number could be found at all.
func ParseBracketThreshold(bracketDef string) (float64, bool) {
	if m := aboveBelowRE.FindStringSubmatch(bracketDef); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return v, true
	}
	if m := betweenRE.FindStringSubmatch(bracketDef); m != nil {
		lo, _ := strconv.ParseFloat(m[1], 64)
		hi, _ := strconv.ParseFloat(m[2], 64)
		return (lo + hi) / 2, true
	}
	if m := anyNumberRE.FindStringSubmatch(bracketDef); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return v, true
	}
	return 0, false
}

// normalCDF is the cumulative distribution function of N(mean, stdDev^2),
// computed with gonum's stat/distuv.Normal rather than a hand-rolled erf
// approximation — see DESIGN.md for why this replaces the Python original's
// Abramowitz-Stegun erf polynomial.
func normalCDF(x, mean, stdDev float64) float64 {
	if stdDev <= 0 {
		if x >= mean {
			return 1
		}
		return 0
	}
	dist := distuv.Normal{Mu: mean, Sigma: stdDev}
	return dist.CDF(x)
}

// EstimateBracketProbability computes P(YES) and P(NO) for a bracket,
// modeling the actual settlement temperature as N(forecastTempF, sigma^2)
// with a half-integer continuity correction at the boundary.
func EstimateBracketProbability(bracketDef string, forecastTempF, sigma float64) (pYes, pNo float64) {
	threshold, ok := ParseBracketThreshold(bracketDef)
	if !ok {
		return 0.5, 0.5
	}

	lower := strings.ToLower(bracketDef)

	switch {
	case strings.Contains(lower, "above") || strings.Contains(lower, ">="):
		pYes = 1 - normalCDF(threshold-0.5, forecastTempF, sigma)
		return pYes, 1 - pYes

	case strings.Contains(lower, "below") || strings.Contains(lower, "<="):
		pYes = normalCDF(threshold+0.5, forecastTempF, sigma)
		return pYes, 1 - pYes

	case strings.Contains(lower, "between") || strings.Contains(lower, "to"):
		m := betweenRE.FindStringSubmatch(bracketDef)
		if m == nil {
			return 0.5, 0.5
		}
		lo, _ := strconv.ParseFloat(m[1], 64)
		hi, _ := strconv.ParseFloat(m[2], 64)
		p := normalCDF(hi+0.5, forecastTempF, sigma) - normalCDF(lo-0.5, forecastTempF, sigma)
		if p < 0.001 {
			p = 0.001
		}
		return p, 1 - p

	default:
		// Ambiguous bracket text: assume "at or above".
		pYes = 1 - normalCDF(threshold-0.5, forecastTempF, sigma)
		return pYes, 1 - pYes
	}
}

// ComputeKnifeEdge scores how close the forecast sits to the bracket
// boundary. An unparseable bracket is conservatively HIGH risk.
func ComputeKnifeEdge(bracketDef string, forecastTempF, sigma float64) KnifeEdgeRisk {
	threshold, ok := ParseBracketThreshold(bracketDef)
	if !ok {
		return KnifeEdgeHigh
	}
	distance := forecastTempF - threshold
	if distance < 0 {
		distance = -distance
	}
	switch {
	case distance <= 1.0:
		return KnifeEdgeHigh
	case distance <= sigma:
		return KnifeEdgeMed
	default:
		return KnifeEdgeLow
	}
}

// EstimateNewExtremeProbability estimates P(a new lower-low / higher-high
// occurs after now), given how much "room" remains between the current
// observed extreme and the forecast extreme, and the hours remaining in
// the volatility window.
func EstimateNewExtremeProbability(currentExtremeF, forecastExtremeF, hoursRemaining float64, isLow bool) float64 {
	if hoursRemaining <= 0 {
		return 0
	}

	var room float64
	if isLow {
		room = currentExtremeF - forecastExtremeF
	} else {
		room = forecastExtremeF - currentExtremeF
	}

	var base float64
	switch {
	case room <= 0:
		base = 0.15
	case room >= 5:
		base = 0.85
	default:
		base = 0.15 + (room/5)*0.70
	}

	timeFactor := hoursRemaining / 6.0
	if timeFactor > 1 {
		timeFactor = 1
	}

	p := base * timeFactor
	if p > 0.99 {
		p = 0.99
	}
	return p
}

// ClassifyUncertainty folds forecast availability, knife-edge risk, and the
// remaining volatility window into a single coarse grade.
func ClassifyUncertainty(hoursVolWindow float64, hasForecast bool, knifeEdge KnifeEdgeRisk) UncertaintyLevel {
	if !hasForecast {
		return UncertaintyHigh
	}
	if knifeEdge == KnifeEdgeHigh {
		return UncertaintyHigh
	}
	if hoursVolWindow > 4 {
		return UncertaintyMed
	}
	return UncertaintyLow
}
