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
)

// CliReport is the parsed preliminary daily climate report: the official
// settlement product, with a flag noting whether it is still preliminary.
type CliReport struct {
	CLICode       string
	MaxTempF      *int
	MaxTempTime   string
	MinTempF      *int
	MinTempTime   string
	ValidAsOf     string
	IsPreliminary bool
	RawText       string
}

var (
	cliMaxRE     = regexp.MustCompile(`(?i)MAXIMUM\s+TEMPERATURE[^\n]*\n\s*(?:TODAY|YESTERDAY)?\s*(\d+)`)
	cliMaxTimeRE = regexp.MustCompile(`(?i)MAXIMUM\s+TEMPERATURE[^\n]*\n[^\n]*?(\d{1,2}:\d{2}\s*[AP]M)`)
	cliMinRE     = regexp.MustCompile(`(?i)MINIMUM\s+TEMPERATURE[^\n]*\n\s*(?:TODAY|YESTERDAY)?\s*(\d+)`)
	cliValidRE   = regexp.MustCompile(`(?i)(?:VALID|AS\s+OF)[:\s]+([^\n]+)`)
	cliPrelimRE  = regexp.MustCompile(`(?i)PRELIMINARY`)
)

// ClimateReportFetcher fetches the preliminary CLI product for a station's
// climate-report code.
type ClimateReportFetcher struct {
	transport *httptransport.Client
	log       zerolog.Logger
}

// NewClimateReportFetcher builds a fetcher bound to the given transport.
func NewClimateReportFetcher(transport *httptransport.Client, log zerolog.Logger) *ClimateReportFetcher {
	return &ClimateReportFetcher{transport: transport, log: log.With().Str("component", "weather.climate").Logger()}
}

// GetPreliminaryCLI fetches and parses the latest CLI product for a
// climate-report code. Returns nil if the source is unreachable.
func (f *ClimateReportFetcher) GetPreliminaryCLI(ctx context.Context, cliCode string) *CliReport {
	url := fmt.Sprintf("https://forecast.weather.gov/product.php?site=NWS&product=CLI&issuedby=%s", cliCode)
	resp, err := f.transport.Do(ctx, http.MethodGet, url, url, scraperHeaders, nil)
	if err != nil {
		f.log.Warn().Err(err).Str("cli_code", cliCode).Msg("failed to fetch preliminary CLI")
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		f.log.Warn().Err(err).Str("cli_code", cliCode).Msg("failed to read preliminary CLI body")
		return nil
	}

	return parseCliProduct(string(body), cliCode)
}

func parseCliProduct(text, cliCode string) *CliReport {
	report := &CliReport{CLICode: cliCode, RawText: text}

	if m := cliMaxRE.FindStringSubmatch(text); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			report.MaxTempF = &v
		}
	}
	if m := cliMaxTimeRE.FindStringSubmatch(text); m != nil {
		report.MaxTempTime = m[1]
	}
	if m := cliMinRE.FindStringSubmatch(text); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			report.MinTempF = &v
		}
	}
	if m := cliValidRE.FindStringSubmatch(text); m != nil {
		report.ValidAsOf = m[1]
	}
	report.IsPreliminary = cliPrelimRE.MatchString(text)

	return report
}
