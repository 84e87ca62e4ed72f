// Package config loads and validates the environment-driven configuration
// for every weatherslate subcommand.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is an immutable snapshot of every tunable the pipeline needs.
// It is assembled once in main and passed down by value/pointer to
// component constructors; nothing reads the environment after Load returns.
type Config struct {
	// Venue credentials
	VenueKeyID         string
	VenuePrivateKeyPath string
	VenueBaseURL       string

	// Messaging
	AlertRecipient            string
	MessagingSenderAddress    string
	MessagingSenderCredential string
	TelegramBotToken          string
	TelegramChatID            string

	// Logging
	LogLevel string

	// Transport tunables
	RequestsPerSecond float64
	MaxRetries        int
	BackoffBase       float64
	BackoffMaxDelay   float64
	BackoffJitter     float64
	RequestTimeoutSec int

	// Scan window
	ScanWindowLowCents  int
	ScanWindowHighCents int

	// Team Lead / bucketing
	PrimaryAskLowCents  int
	PrimaryAskHighCents int
	NearMissLowCents    int
	NearMissHighCents   int
	MaxPrimaryPicks     int
	MinBidRoomPrimary   int

	// Planner
	MaxSpreadCents int

	// Accountant
	TakerFeeRate float64
	MakerFeeRate float64

	// Risk
	MaxBankrollUSD        float64
	MaxPerCorrelationGroup int
	MaxPerMetro            int

	// Stability
	MinPriceMoveCents int

	// Output
	ArtifactBaseDir string

	// Spike monitor
	SpikeThresholdCents int
	SpikeLookbackSec    int
	SpikePollIntervalSec int
	SpikeBurstCount      int
	SpikeBurstIntervalSec int
	SpikeCooldownSec     int
	SpikeStartHourET      int
	SpikeEndHourET        int
	SpikeAllHours         bool
}

// Load reads every recognized environment variable (optionally populated
// from a .env file). Missing venue credentials are a hard failure — the
// scan and spike paths cannot run without them; range checks on the
// tunables are left to Validate.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	cfg := &Config{
		VenueBaseURL: getEnvString("VENUE_BASE_URL", "https://trading-api.example.com/trade-api/v2"),

		LogLevel: getEnvString("LOG_LEVEL", "info"),

		RequestsPerSecond: getEnvFloat("VENUE_REQUESTS_PER_SECOND", 8),
		MaxRetries:        getEnvInt("VENUE_MAX_RETRIES", 3),
		BackoffBase:       getEnvFloat("VENUE_BACKOFF_BASE_SECONDS", 0.5),
		BackoffMaxDelay:   getEnvFloat("VENUE_BACKOFF_MAX_SECONDS", 20),
		BackoffJitter:     getEnvFloat("VENUE_BACKOFF_JITTER_SECONDS", 0.25),
		RequestTimeoutSec: getEnvInt("VENUE_REQUEST_TIMEOUT_SECONDS", 20),

		ScanWindowLowCents:  getEnvInt("SCAN_WINDOW_LOW_CENTS", 88),
		ScanWindowHighCents: getEnvInt("SCAN_WINDOW_HIGH_CENTS", 95),

		PrimaryAskLowCents:  getEnvInt("PRIMARY_ASK_LOW_CENTS", 90),
		PrimaryAskHighCents: getEnvInt("PRIMARY_ASK_HIGH_CENTS", 93),
		NearMissLowCents:    getEnvInt("NEAR_MISS_LOW_CENTS", 88),
		NearMissHighCents:   getEnvInt("NEAR_MISS_HIGH_CENTS", 95),
		MaxPrimaryPicks:     getEnvInt("MAX_PRIMARY_PICKS", 10),
		MinBidRoomPrimary:   getEnvInt("MIN_BID_ROOM_PRIMARY_CENTS", 2),

		MaxSpreadCents: getEnvInt("MAX_SPREAD_CENTS", 6),

		TakerFeeRate: getEnvFloat("TAKER_FEE_RATE", 0.07),
		MakerFeeRate: getEnvFloat("MAKER_FEE_RATE", 0.0175),

		MaxBankrollUSD:         getEnvFloat("MAX_BANKROLL_USD", 500),
		MaxPerCorrelationGroup: getEnvInt("MAX_PER_CORRELATION_GROUP", 3),
		MaxPerMetro:            getEnvInt("MAX_PER_METRO", 2),

		MinPriceMoveCents: getEnvInt("MIN_PRICE_MOVE_CENTS", 2),

		ArtifactBaseDir: getEnvString("ARTIFACT_BASE_DIR", "./artifacts"),

		SpikeThresholdCents:   getEnvInt("SPIKE_THRESHOLD_CENTS", 15),
		SpikeLookbackSec:      getEnvInt("SPIKE_LOOKBACK_SECONDS", 420),
		SpikePollIntervalSec:  getEnvInt("SPIKE_POLL_INTERVAL_SECONDS", 30),
		SpikeBurstCount:       getEnvInt("SPIKE_BURST_COUNT", 5),
		SpikeBurstIntervalSec: getEnvInt("SPIKE_BURST_INTERVAL_SECONDS", 60),
		SpikeCooldownSec:      getEnvInt("SPIKE_COOLDOWN_SECONDS", 600),
		SpikeStartHourET:      getEnvInt("SPIKE_START_HOUR_ET", 5),
		SpikeEndHourET:        getEnvInt("SPIKE_END_HOUR_ET", 23),
		SpikeAllHours:         getEnvBool("SPIKE_ALL_HOURS", false),
	}

	var missingFields []string

	cfg.VenueKeyID = os.Getenv("VENUE_KEY_ID")
	if cfg.VenueKeyID == "" {
		missingFields = append(missingFields, "VENUE_KEY_ID")
	}

	cfg.VenuePrivateKeyPath = os.Getenv("VENUE_PRIVATE_KEY_PATH")
	if cfg.VenuePrivateKeyPath == "" {
		missingFields = append(missingFields, "VENUE_PRIVATE_KEY_PATH")
	}

	if len(missingFields) > 0 {
		return nil, fmt.Errorf("missing required config: %v", missingFields)
	}

	cfg.AlertRecipient = os.Getenv("ALERT_RECIPIENT")
	cfg.MessagingSenderAddress = os.Getenv("MESSAGING_SENDER_ADDRESS")
	cfg.MessagingSenderCredential = os.Getenv("MESSAGING_SENDER_CREDENTIAL")
	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")

	return cfg, nil
}

// LoadReadOnly loads configuration for commands that only read public
// weather and venue data (edge) and never need a messaging credential.
func LoadReadOnly() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// HasMessenger reports whether any concrete messaging transport is configured.
func (c *Config) HasMessenger() bool {
	return (c.TelegramBotToken != "" && c.TelegramChatID != "") ||
		(c.MessagingSenderAddress != "" && c.MessagingSenderCredential != "" && c.AlertRecipient != "")
}

// Validate checks that the venue credentials are set and range-checks the
// scan window, pick cap, spread cap, fee rates, request rate, retry count,
// spike threshold, burst count and spike operating hours. The scan and
// spike commands call it before any component is constructed.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.VenueKeyID) == "" {
		return errors.New("VENUE_KEY_ID must not be empty")
	}
	if strings.TrimSpace(c.VenuePrivateKeyPath) == "" {
		return errors.New("VENUE_PRIVATE_KEY_PATH must not be empty")
	}
	if c.ScanWindowLowCents < 1 || c.ScanWindowHighCents > 99 || c.ScanWindowLowCents > c.ScanWindowHighCents {
		return errors.New("SCAN_WINDOW_LOW_CENTS/SCAN_WINDOW_HIGH_CENTS must describe a valid sub-range of [1, 99]")
	}
	if c.MaxPrimaryPicks < 1 {
		return errors.New("MAX_PRIMARY_PICKS must be at least 1")
	}
	if c.MaxSpreadCents < 0 {
		return errors.New("MAX_SPREAD_CENTS must be non-negative")
	}
	if c.TakerFeeRate < 0 || c.MakerFeeRate < 0 {
		return errors.New("fee rates must be non-negative")
	}
	if c.RequestsPerSecond < 0 {
		return errors.New("VENUE_REQUESTS_PER_SECOND must be non-negative")
	}
	if c.MaxRetries < 0 {
		return errors.New("VENUE_MAX_RETRIES must be non-negative")
	}
	if c.SpikeThresholdCents <= 0 {
		return errors.New("SPIKE_THRESHOLD_CENTS must be positive")
	}
	if c.SpikeBurstCount < 1 {
		return errors.New("SPIKE_BURST_COUNT must be at least 1")
	}
	if !c.SpikeAllHours && (c.SpikeStartHourET < 0 || c.SpikeStartHourET > 23 || c.SpikeEndHourET < 0 || c.SpikeEndHourET > 23) {
		return errors.New("SPIKE_START_HOUR_ET/SPIKE_END_HOUR_ET must be within [0, 23]")
	}
	return nil
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

func getEnvFloat(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return parsed
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

func getEnvString(key string, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}
