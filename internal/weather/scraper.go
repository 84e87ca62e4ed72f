package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/tylergwlk/weatherslate/internal/httptransport"
	"github.com/tylergwlk/weatherslate/internal/obsparser"
)

var scraperHeaders = map[string]string{
	"User-Agent": "(weatherslate, contact@example.com)",
	"Accept":     "text/html, text/plain, */*",
}

// CurrentConditions is parsed from the current-conditions HTML page: a
// decimal °F reading plus optional 6-/24-hour extrema.
type CurrentConditions struct {
	StationICAO       string
	TempF             *float64
	TempC             *float64
	SixHrMaxF         *float64
	SixHrMinF         *float64
	TwentyFourHrMaxF  *float64
}

// ObsHistoryEntry is a single row of the observation-history table.
type ObsHistoryEntry struct {
	DateStr    string
	TimeStr    string
	TempF      *float64
	DewpointF  *float64
}

// ObservationHistory is all parsed rows from the history table plus the
// running max across them.
type ObservationHistory struct {
	StationICAO string
	Entries     []ObsHistoryEntry
	MaxTempF    *float64
}

var (
	tempRE       = regexp.MustCompile(`(?i)Temperature[:\s]+([-\d.]+)\s*(?:&deg;|°)?\s*F\s*\(\s*([-\d.]+)\s*(?:&deg;|°)?\s*C\s*\)`)
	tempSimpleRE = regexp.MustCompile(`([-\d.]+)\s*(?:&deg;|°)\s*F\s*\(\s*([-\d.]+)\s*(?:&deg;|°)\s*C\s*\)`)
	sixHrMaxHTMLRE = regexp.MustCompile(`(?i)(?:6[- ]?(?:hour|hr)\s+max(?:imum)?)[:\s]+([-\d.]+)\s*(?:&deg;|°)?\s*F`)
	sixHrMinHTMLRE = regexp.MustCompile(`(?i)(?:6[- ]?(?:hour|hr)\s+min(?:imum)?)[:\s]+([-\d.]+)\s*(?:&deg;|°)?\s*F`)
	twentyFourHTMLRE = regexp.MustCompile(`(?i)(?:24[- ]?(?:hour|hr)\s+max(?:imum)?)[:\s]+([-\d.]+)\s*(?:&deg;|°)?\s*F`)
	obsRowRE = regexp.MustCompile(`(?is)<tr[^>]*>\s*<td[^>]*>([^<]*)</td>\s*<td[^>]*>([^<]*)</td>\s*(?:<td[^>]*>[^<]*</td>\s*){2,5}<td[^>]*>\s*([-\d.]+)\s*</td>\s*<td[^>]*>\s*([-\d.]+)\s*</td>`)
)

// Scraper fetches and parses the three text/HTML NWS sources: raw METAR,
// current-conditions HTML, and the observation-history table.
type Scraper struct {
	transport *httptransport.Client
	log       zerolog.Logger
}

// NewScraper builds a Scraper bound to the given transport.
func NewScraper(transport *httptransport.Client, log zerolog.Logger) *Scraper {
	return &Scraper{transport: transport, log: log.With().Str("component", "weather.scraper").Logger()}
}

func (s *Scraper) fetchText(ctx context.Context, url string) (string, error) {
	resp, err := s.transport.Do(ctx, http.MethodGet, url, url, scraperHeaders, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}

// GetRawObservation fetches the raw surface-observation text report and
// parses it with obsparser. Returns nil if the source is unreachable.
func (s *Scraper) GetRawObservation(ctx context.Context, icao string) *obsparser.Observation {
	url := fmt.Sprintf("https://tgftp.nws.noaa.gov/data/observations/metar/stations/%s.TXT", icao)
	text, err := s.fetchText(ctx, url)
	if err != nil {
		s.log.Warn().Err(err).Str("station", icao).Msg("failed to fetch raw observation")
		return nil
	}
	obs := obsparser.Parse(icao, text)
	return &obs
}

// GetCurrentConditions fetches and parses the current-conditions HTML page.
func (s *Scraper) GetCurrentConditions(ctx context.Context, icao string) *CurrentConditions {
	url := fmt.Sprintf("https://tgftp.nws.noaa.gov/weather/current/%s.html", icao)
	html, err := s.fetchText(ctx, url)
	if err != nil {
		s.log.Warn().Err(err).Str("station", icao).Msg("failed to fetch current conditions")
		return nil
	}
	return parseCurrentConditions(html, icao)
}

func parseCurrentConditions(html, icao string) *CurrentConditions {
	cc := &CurrentConditions{StationICAO: icao}

	m := tempRE.FindStringSubmatch(html)
	if m == nil {
		m = tempSimpleRE.FindStringSubmatch(html)
	}
	if m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			cc.TempF = &f
		}
		if c, err := strconv.ParseFloat(m[2], 64); err == nil {
			cc.TempC = &c
		}
	}

	if m := sixHrMaxHTMLRE.FindStringSubmatch(html); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			cc.SixHrMaxF = &v
		}
	}
	if m := sixHrMinHTMLRE.FindStringSubmatch(html); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			cc.SixHrMinF = &v
		}
	}
	if m := twentyFourHTMLRE.FindStringSubmatch(html); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			cc.TwentyFourHrMaxF = &v
		}
	}

	return cc
}

// GetObservationHistory fetches and parses the observation-history table.
func (s *Scraper) GetObservationHistory(ctx context.Context, icao string) *ObservationHistory {
	url := fmt.Sprintf("https://forecast.weather.gov/data/obhistory/%s.html", icao)
	html, err := s.fetchText(ctx, url)
	if err != nil {
		s.log.Warn().Err(err).Str("station", icao).Msg("failed to fetch observation history")
		return nil
	}
	return parseObservationHistory(html, icao)
}

func parseObservationHistory(html, icao string) *ObservationHistory {
	hist := &ObservationHistory{StationICAO: icao}
	var max *float64

	for _, m := range obsRowRE.FindAllStringSubmatch(html, -1) {
		tempF, err1 := strconv.ParseFloat(m[3], 64)
		dewF, err2 := strconv.ParseFloat(m[4], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		entry := ObsHistoryEntry{DateStr: m[1], TimeStr: m[2], TempF: &tempF, DewpointF: &dewF}
		hist.Entries = append(hist.Entries, entry)
		if max == nil || tempF > *max {
			v := tempF
			max = &v
		}
	}
	hist.MaxTempF = max
	return hist
}
