// Package weather wraps the four independent weather data sources the
// pipeline consumes: the hourly forecast/current-observation API, the raw
// surface-observation text report, the current-conditions HTML page, and
// the preliminary daily climate report. Every source tolerates partial
// failure — a missing field is modeled as a nil pointer, never a sentinel
// zero value, and a source that cannot be reached returns nil so
// callers treat it as "source absent" rather than a hard error.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/tylergwlk/weatherslate/internal/httptransport"
)

const forecastBaseURL = "https://api.weather.gov"

var forecastHeaders = map[string]string{
	"User-Agent": "(weatherslate, contact@example.com)",
	"Accept":     "application/geo+json",
}

// CurrentObs is the latest station observation from the forecast API.
type CurrentObs struct {
	StationICAO     string
	Timestamp       string
	TempC           *float64
	TempF           *float64
	TextDescription string
}

// HourlyForecastPeriod is a single hourly period from the gridpoint forecast.
type HourlyForecastPeriod struct {
	StartTime     string
	EndTime       string
	TempF         *float64
	ShortForecast string
}

// StationForecast is the hourly forecast for the grid point nearest a
// station, with precomputed high/low across its periods.
type StationForecast struct {
	StationICAO    string
	Periods        []HourlyForecastPeriod
	ForecastHighF  *float64
	ForecastLowF   *float64
}

// Provider is the NWS-style forecast/observation client. It shares one
// transport with the scraper and the climate-report fetcher, so those
// weather sources draw on the same rate limiter and retry policy.
type Provider struct {
	transport *httptransport.Client
	log       zerolog.Logger
}

// NewProvider builds a Provider bound to the given transport.
func NewProvider(transport *httptransport.Client, log zerolog.Logger) *Provider {
	return &Provider{transport: transport, log: log.With().Str("component", "weather.forecast").Logger()}
}

func cToF(c *float64) *float64 {
	if c == nil {
		return nil
	}
	f := *c*9/5 + 32
	return &f
}

func (p *Provider) getJSON(ctx context.Context, url string, out any) error {
	resp, err := p.transport.Do(ctx, http.MethodGet, url, url, forecastHeaders, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("weather: %s returned status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GetCurrentObservation fetches the latest observation for a station. A
// network or decode failure is logged and reported as nil — the
// source is simply absent for this run.
func (p *Provider) GetCurrentObservation(ctx context.Context, stationICAO string) *CurrentObs {
	url := fmt.Sprintf("%s/stations/%s/observations/latest", forecastBaseURL, stationICAO)

	var data struct {
		Properties struct {
			Timestamp       string `json:"timestamp"`
			TextDescription string `json:"textDescription"`
			Temperature     struct {
				Value *float64 `json:"value"`
			} `json:"temperature"`
		} `json:"properties"`
	}
	if err := p.getJSON(ctx, url, &data); err != nil {
		p.log.Warn().Err(err).Str("station", stationICAO).Msg("failed to fetch current observation")
		return nil
	}

	return &CurrentObs{
		StationICAO:     stationICAO,
		Timestamp:       data.Properties.Timestamp,
		TempC:           data.Properties.Temperature.Value,
		TempF:           cToF(data.Properties.Temperature.Value),
		TextDescription: data.Properties.TextDescription,
	}
}

// gridpointURL resolves a station ICAO to its hourly-forecast URL via the
// two-hop station-coordinates -> /points lookup.
func (p *Provider) gridpointURL(ctx context.Context, stationICAO string) (string, error) {
	var station struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	}
	if err := p.getJSON(ctx, fmt.Sprintf("%s/stations/%s", forecastBaseURL, stationICAO), &station); err != nil {
		return "", fmt.Errorf("station metadata: %w", err)
	}
	if len(station.Geometry.Coordinates) < 2 {
		return "", fmt.Errorf("station %s has no coordinates", stationICAO)
	}
	lon, lat := station.Geometry.Coordinates[0], station.Geometry.Coordinates[1]

	var points struct {
		Properties struct {
			ForecastHourly string `json:"forecastHourly"`
		} `json:"properties"`
	}
	pointsURL := fmt.Sprintf("%s/points/%.4f,%.4f", forecastBaseURL, lat, lon)
	if err := p.getJSON(ctx, pointsURL, &points); err != nil {
		return "", fmt.Errorf("gridpoint lookup: %w", err)
	}
	return points.Properties.ForecastHourly, nil
}

// GetHourlyForecast fetches the hourly forecast for the grid point nearest
// a station, two hops: station -> coordinates -> gridpoint -> forecastHourly.
func (p *Provider) GetHourlyForecast(ctx context.Context, stationICAO string) *StationForecast {
	forecastURL, err := p.gridpointURL(ctx, stationICAO)
	if err != nil || forecastURL == "" {
		p.log.Warn().Err(err).Str("station", stationICAO).Msg("failed to resolve gridpoint forecast URL")
		return nil
	}

	var data struct {
		Properties struct {
			Periods []struct {
				StartTime     string   `json:"startTime"`
				EndTime       string   `json:"endTime"`
				Temperature   *float64 `json:"temperature"`
				ShortForecast string   `json:"shortForecast"`
			} `json:"periods"`
		} `json:"properties"`
	}
	if err := p.getJSON(ctx, forecastURL, &data); err != nil {
		p.log.Warn().Err(err).Str("station", stationICAO).Msg("failed to fetch hourly forecast")
		return nil
	}

	sf := &StationForecast{StationICAO: stationICAO}
	var high, low *float64
	for _, raw := range data.Properties.Periods {
		period := HourlyForecastPeriod{
			StartTime:     raw.StartTime,
			EndTime:       raw.EndTime,
			TempF:         raw.Temperature,
			ShortForecast: raw.ShortForecast,
		}
		sf.Periods = append(sf.Periods, period)
		if raw.Temperature == nil {
			continue
		}
		if high == nil || *raw.Temperature > *high {
			v := *raw.Temperature
			high = &v
		}
		if low == nil || *raw.Temperature < *low {
			v := *raw.Temperature
			low = &v
		}
	}
	sf.ForecastHighF = high
	sf.ForecastLowF = low
	return sf
}
