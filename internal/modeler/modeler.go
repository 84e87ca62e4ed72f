package modeler

import (
	"fmt"
	"time"

	"github.com/tylergwlk/weatherslate/internal/stations"
)

// Input bundles everything the modeler needs for one candidate. Forecast
// and observation fields are pointers because any weather source may be
// absent for this run.
type Input struct {
	MarketTicker    string
	MarketType      MarketType
	BracketDef      string
	City            string
	TargetDateLocal string // YYYY-MM-DD in the station's local zone
	Station         stations.Entry

	ForecastHighF *float64
	ForecastLowF  *float64
	CurrentObsF   *float64

	NowUTC time.Time
}

// Model computes the full ModelOutput for one candidate, following the
// settlement-accurate pipeline: local clock -> CLI day window -> sunrise/
// peak geometry -> volatility window -> bracket probability -> lock-in
// gates -> knife-edge -> uncertainty classification.
func Model(in Input, tun Tunables) (Output, error) {
	zone, err := time.LoadLocation(in.Station.TimezoneID)
	if err != nil {
		return Output{}, fmt.Errorf("modeler: load zone %q: %w", in.Station.TimezoneID, err)
	}

	localNow := in.NowUTC.In(zone)
	localTimeStr := localNow.Format("2006-01-02 15:04 MST")

	targetDate, err := time.ParseInLocation("2006-01-02", in.TargetDateLocal, zone)
	if err != nil {
		return Output{}, fmt.Errorf("modeler: parse target date %q: %w", in.TargetDateLocal, err)
	}

	cliStart, cliEnd := stations.CLIDayWindow(targetDate, zone)
	_ = cliStart
	hoursToCLIClose := hoursRemaining(in.NowUTC, cliEnd)

	sunriseLocal, hasSunrise := Sunrise(in.Station.Latitude, in.Station.Longitude, targetDate, zone)
	peakLocal := PeakTime(targetDate, zone, tun.DefaultPeakHour)

	var sunriseStr *string
	if hasSunrise {
		s := sunriseLocal.Format("15:04 MST")
		sunriseStr = &s
	}
	peakStr := peakLocal.Format("15:04 MST")

	var hoursVol float64
	if in.MarketType == MarketTypeLow {
		volEnd := peakLocal // replaced below: sunrise+buffer, or 09:00 local when there is no sunrise
		if hasSunrise {
			volEnd = sunriseLocal.Add(time.Duration(tun.SunriseBufferHours * float64(time.Hour)))
		} else {
			volEnd = time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 9, 0, 0, 0, zone)
		}
		hoursVol = hoursRemainingLocal(localNow, volEnd)
	} else {
		volEnd := peakLocal.Add(time.Duration(tun.PeakBufferHours * float64(time.Hour)))
		hoursVol = hoursRemainingLocal(localNow, volEnd)
	}

	var forecastTemp *float64
	if in.MarketType == MarketTypeHigh {
		forecastTemp = in.ForecastHighF
	} else {
		forecastTemp = in.ForecastLowF
	}

	sigma := 3.0
	switch {
	case hoursVol < 1:
		sigma = 1.0
	case hoursVol < 3:
		sigma = 2.0
	}

	var pYes, pNo float64
	knifeEdge := KnifeEdgeHigh
	method := "No-forecast fallback (p=0.5)"
	var assumptions []string

	if forecastTemp != nil {
		pYes, pNo = EstimateBracketProbability(in.BracketDef, *forecastTemp, sigma)
		knifeEdge = ComputeKnifeEdge(in.BracketDef, *forecastTemp, sigma)
		method = fmt.Sprintf("Normal CDF (sigma=%.1f)", sigma)
		assumptions = append(assumptions, fmt.Sprintf("Forecast temp=%.1fF, sigma=%.1f", *forecastTemp, sigma))
	} else {
		pYes, pNo = 0.5, 0.5
		assumptions = append(assumptions, "No forecast available — using maximum uncertainty")
	}

	out := Output{
		MarketTicker:                     in.MarketTicker,
		PYes:                             round4(pYes),
		PNo:                              round4(pNo),
		Method:                           method,
		Assumptions:                      assumptions,
		LocalTimeAtStation:               localTimeStr,
		HoursRemainingUntilCLIDayClose:   round2(hoursToCLIClose),
		HoursRemainingInVolatilityWindow: round2(hoursVol),
		SunriseEstimateLocal:             sunriseStr,
		KnifeEdge:                        knifeEdge,
	}

	switch in.MarketType {
	case MarketTypeLow:
		var pNewLower *float64
		if in.CurrentObsF != nil && in.ForecastLowF != nil {
			p := EstimateNewExtremeProbability(*in.CurrentObsF, *in.ForecastLowF, hoursVol, true)
			pNewLower = &p
			out.SignalsUsed = append(out.SignalsUsed, fmt.Sprintf("current_obs=%.1fF, forecast_low=%.1fF", *in.CurrentObsF, *in.ForecastLowF))
		} else if hoursVol > 0 {
			p := 0.5
			pNewLower = &p
		} else {
			p := 0.0
			pNewLower = &p
		}
		out.PNewLowerLowAfterNow = pNewLower

		var flag LockInFlag = LockInNotLocked
		if hasSunrise && localNow.After(sunriseLocal.Add(time.Duration(tun.SunriseBufferHours*float64(time.Hour)))) {
			if pNewLower != nil && *pNewLower < tun.NewExtremeRejectThreshold {
				flag = LockInLocking
				out.Notes = append(out.Notes, "LOW lock-in: past sunrise+buffer, P(new low) below threshold")
			}
		}
		out.LowLockInFlag = &flag

	case MarketTypeHigh:
		var pNewHigher *float64
		if in.CurrentObsF != nil && in.ForecastHighF != nil {
			p := EstimateNewExtremeProbability(*in.CurrentObsF, *in.ForecastHighF, hoursVol, false)
			pNewHigher = &p
			out.SignalsUsed = append(out.SignalsUsed, fmt.Sprintf("current_obs=%.1fF, forecast_high=%.1fF", *in.CurrentObsF, *in.ForecastHighF))
		} else if hoursVol > 0 {
			p := 0.5
			pNewHigher = &p
		} else {
			p := 0.0
			pNewHigher = &p
		}
		out.PNewHigherHighAfterNow = pNewHigher
		out.TypicalPeakTimeEstimateLocal = &peakStr

		var flag LockInFlag = LockInNotLocked
		if localNow.After(peakLocal.Add(time.Duration(tun.PeakBufferHours * float64(time.Hour)))) {
			if pNewHigher != nil && *pNewHigher < tun.NewExtremeRejectThreshold {
				flag = LockInLocking
				out.Notes = append(out.Notes, "HIGH lock-in: past peak+buffer, P(new high) below threshold")
			}
		}
		out.HighLockInFlag = &flag
	}

	out.Uncertainty = ClassifyUncertainty(hoursVol, forecastTemp != nil, knifeEdge)

	return out, nil
}

func hoursRemaining(now, end time.Time) float64 {
	h := end.Sub(now).Hours()
	if h < 0 {
		return 0
	}
	return h
}

func hoursRemainingLocal(now, end time.Time) float64 {
	h := end.Sub(now).Hours()
	if h < 0 {
		return 0
	}
	return h
}

func round4(x float64) float64 {
	return float64(int(x*10000+sign(x)*0.5)) / 10000
}

func round2(x float64) float64 {
	return float64(int(x*100+sign(x)*0.5)) / 100
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}
