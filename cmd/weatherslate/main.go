package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tylergwlk/weatherslate/internal/config"
	"github.com/tylergwlk/weatherslate/internal/httptransport"
	"github.com/tylergwlk/weatherslate/internal/messenger"
	"github.com/tylergwlk/weatherslate/internal/orchestrator"
	"github.com/tylergwlk/weatherslate/internal/venue"
	"github.com/tylergwlk/weatherslate/internal/weather"
)

const banner = `
 _       __           __  __              _____ __      __
| |     / /__  ____ _/ /_/ /_  ___  _____/ ___// /___ _/ /____
| | /| / / _ \/ __ '/ __/ __ \/ _ \/ ___/\__ \/ / __ '/ __/ _ \
| |/ |/ /  __/ /_/ / /_/ / / /  __/ /   ___/ / / /_/ / /_/  __/
|__/|__/\___/\__,_/\__/_/ /_/\___/_/   /____/_/\__,_/\__/\___/

Weatherslate v0.1.0
Read-only analysis for daily high/low temperature settlement markets
`

var cityFilter string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "weatherslate",
	Short: "Weatherslate scans, analyzes, and monitors temperature settlement markets",
	Long:  strings.TrimRight(banner, "\n"),
	RunE:  runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(edgeCmd)
	rootCmd.AddCommand(spikeCmd)

	edgeCmd.Flags().StringVarP(&cityFilter, "city", "c", "", "Only analyze this city (default: every station in the registry)")
}

// buildLogger constructs the shared zerolog.Logger every subcommand uses,
// console-formatted and leveled from cfg.LogLevel.
func buildLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

// buildCollaborators wires every external-facing client from a loaded,
// validated Config: a signed, rate-limited venue client and three
// unauthenticated NWS-facing weather collaborators sharing the same
// backoff policy.
func buildCollaborators(cfg *config.Config, log zerolog.Logger) (orchestrator.Collaborators, func(), error) {
	backoff := httptransport.Backoff{
		Base:     durationSeconds(cfg.BackoffBase),
		Max:      durationSeconds(cfg.BackoffMaxDelay),
		Jitter:   durationSeconds(cfg.BackoffJitter),
		MaxTries: cfg.MaxRetries + 1,
	}

	signer, err := httptransport.LoadSigner(cfg.VenueKeyID, cfg.VenuePrivateKeyPath)
	if err != nil {
		return orchestrator.Collaborators{}, nil, fmt.Errorf("load venue signing key: %w", err)
	}

	venueTransport := httptransport.NewClient(
		durationSeconds(float64(cfg.RequestTimeoutSec)), cfg.RequestsPerSecond, backoff, signer, true,
		log.With().Str("transport", "venue").Logger(),
	)
	venueClient := venue.New(venueTransport, cfg.VenueBaseURL)

	weatherTransport := httptransport.NewClient(
		durationSeconds(float64(cfg.RequestTimeoutSec)), cfg.RequestsPerSecond, backoff, nil, false,
		log.With().Str("transport", "weather").Logger(),
	)
	provider := weather.NewProvider(weatherTransport, log)
	scraper := weather.NewScraper(weatherTransport, log)
	climate := weather.NewClimateReportFetcher(weatherTransport, log)

	var msgr messenger.Messenger = messenger.NewNoop()
	if cfg.HasMessenger() {
		tg, err := messenger.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			return orchestrator.Collaborators{}, nil, fmt.Errorf("build telegram messenger: %w", err)
		}
		msgr = tg
	}

	cleanup := func() {
		venueTransport.Close()
		weatherTransport.Close()
	}

	return orchestrator.Collaborators{
		Venue:     venueClient,
		Forecast:  provider,
		Scraper:   scraper,
		Climate:   climate,
		Messenger: msgr,
		Log:       log,
	}, cleanup, nil
}
