package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tylergwlk/weatherslate/internal/config"
	"github.com/tylergwlk/weatherslate/internal/edge"
	"github.com/tylergwlk/weatherslate/internal/messenger"
	"github.com/tylergwlk/weatherslate/internal/orchestrator"
	"github.com/tylergwlk/weatherslate/internal/spike"
	"github.com/tylergwlk/weatherslate/internal/stations"
)

var spikeCmd = &cobra.Command{
	Use:   "spike",
	Short: "Poll open market orderbooks and alert on sudden implied-NO-ask price moves",
	RunE:  runSpike,
}

func runSpike(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log := buildLogger(cfg)
	log.Info().Msg("weatherslate spike monitor starting")

	collaborators, cleanup, err := buildCollaborators(cfg, log)
	if err != nil {
		return fmt.Errorf("build collaborators: %w", err)
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("received signal, shutting down spike monitor")
		cancel()
	}()

	history := spike.NewHistory(time.Duration(cfg.SpikeLookbackSec) * time.Second)
	cooldowns := spike.NewCooldowns(time.Duration(cfg.SpikeCooldownSec) * time.Second)
	monitor := spike.NewMonitor()

	easternTZ, err := time.LoadLocation("America/New_York")
	if err != nil {
		return fmt.Errorf("load America/New_York time zone: %w", err)
	}

	ticker := time.NewTicker(time.Duration(cfg.SpikePollIntervalSec) * time.Second)
	defer ticker.Stop()

	pollOnce(ctx, cfg, collaborators, history, cooldowns, monitor, easternTZ)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("spike monitor stopped")
			return nil
		case <-ticker.C:
			pollOnce(ctx, cfg, collaborators, history, cooldowns, monitor, easternTZ)
		}
	}
}

// pollOnce discovers every candidate market in the scan window, records a
// fresh price snapshot for each, and, on a detected spike, drives the
// enriched BURST alert loop for that market before returning to MONITORING.
// It is a no-op outside the configured active polling window.
func pollOnce(
	ctx context.Context,
	cfg *config.Config,
	c orchestrator.Collaborators,
	history *spike.History,
	cooldowns *spike.Cooldowns,
	monitor *spike.Monitor,
	easternTZ *time.Location,
) {
	now := time.Now().UTC()
	nowET := now.In(easternTZ)

	if !spike.InActiveWindow(nowET.Hour(), cfg.SpikeStartHourET, cfg.SpikeEndHourET, cfg.SpikeAllHours) {
		return
	}

	candidates, _, _, err := orchestrator.DiscoverMarkets(ctx, c.Venue, cfg.ScanWindowLowCents, cfg.ScanWindowHighCents)
	if err != nil {
		c.Log.Warn().Err(err).Msg("spike monitor: failed to discover markets")
		return
	}

	byTicker := make(map[string]orchestrator.MarketCandidate, len(candidates))
	for _, cand := range candidates {
		byTicker[cand.Market.Ticker] = cand

		ob, err := c.Venue.GetOrderbook(ctx, cand.Market.Ticker, 10)
		if err != nil {
			continue
		}
		ask, ok := ob.ImpliedBestNoAskCents()
		if !ok {
			continue
		}
		history.Record(cand.Market.Ticker, spike.PriceSnapshot{TimeUTC: now, AskCents: ask})
	}

	history.PruneAll(now)

	window := time.Duration(cfg.SpikeLookbackSec) * time.Second
	for _, ev := range spike.DetectAll(history, cfg.SpikeThresholdCents, window, now, cooldowns) {
		c.Log.Info().
			Str("ticker", ev.MarketTicker).
			Int("from_cents", ev.FromCents).
			Int("to_cents", ev.ToCents).
			Int("delta_cents", ev.DeltaCents).
			Msg("spike detected, entering burst")

		cand, ok := byTicker[ev.MarketTicker]
		if !ok {
			continue
		}
		runBurst(ctx, cfg, c, ev, cand, monitor, easternTZ)
	}
}

// runBurst drives the BURST-phase enriched alert loop for one spike: it
// immediately flips the monitor to BURST, then for SpikeBurstCount
// iterations re-fetches the orderbook and re-runs the edge analyzer for the
// affected city, appends the result to a growing conviction-trend table, and
// sends an enriched alert via the Messenger, sleeping SpikeBurstIntervalSec
// between iterations. Sleeps are context-aware so a cancelled context
// (SIGINT/SIGTERM) unblocks the loop immediately.
func runBurst(
	ctx context.Context,
	cfg *config.Config,
	c orchestrator.Collaborators,
	ev spike.SpikeEvent,
	cand orchestrator.MarketCandidate,
	monitor *spike.Monitor,
	easternTZ *time.Location,
) {
	monitor.TriggerBurst()
	defer monitor.EndBurst()

	total := cfg.SpikeBurstCount
	loc, err := time.LoadLocation(cand.City.TimezoneID)
	if err != nil {
		loc = easternTZ
	}

	rows := make([]messenger.ConvictionRow, total)
	for i := range rows {
		rows[i] = messenger.ConvictionRow{Ordinal: i + 1, Total: total}
	}

	for i := 0; i < total; i++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		nowUTC := time.Now().UTC()
		nowLocal := nowUTC.In(loc)
		timeLabel := nowLocal.Format("15:04 MST")

		currentCents := ev.ToCents
		if ob, err := c.Venue.GetOrderbook(ctx, ev.MarketTicker, 10); err == nil {
			if ask, ok := ob.ImpliedBestNoAskCents(); ok {
				currentCents = ask
			}
		}

		fetch := orchestrator.FetchCity(ctx, c, cand.City)
		_, cliEnd := stations.CLIDayWindow(nowLocal, loc)
		hoursToClose := cliEnd.Sub(nowUTC).Hours()

		report := edge.Analyze(cand.City, edge.Sources{
			Metar:       fetch.RawObs,
			CurrentCond: fetch.CurrentCond,
			ObsHist:     fetch.ObsHistory,
			CLI:         fetch.CLI,
		}, nowUTC, nowLocal.Hour(), hoursToClose)

		rows[i] = messenger.ConvictionRow{
			Ordinal: i + 1, Total: total, TimeLabel: timeLabel,
			Signal: string(report.Signal), TempF: report.RunningMaxFPrecise,
			PriceCents: &currentCents, IsCurrent: true,
		}

		conviction := make([]messenger.ConvictionRow, total)
		copy(conviction, rows)
		for j := range conviction {
			conviction[j].IsCurrent = j == i
		}

		marginStatus := ""
		if report.Bracket != nil {
			marginStatus = string(report.Bracket.MarginStatus)
		}

		alert := messenger.SpikeBurstAlert{
			MarketTicker:  ev.MarketTicker,
			City:          cand.City.City,
			Bracket:       cand.BracketDef,
			Ordinal:       i + 1,
			Total:         total,
			TimeLabel:     timeLabel,
			FromCents:     ev.FromCents,
			ToCents:       ev.ToCents,
			CurrentCents:  currentCents,
			DeltaCents:    ev.DeltaCents,
			MetarF:        report.MetarTempF,
			PreciseF:      report.RunningMaxFPrecise,
			PreciseSource: report.RunningMaxSource,
			RunningMaxF:   report.RunningMaxCLIF,
			MarginStatus:  marginStatus,
			Signal:        string(report.Signal),
			SignalReason:  report.SignalReason,
			TimeRisk:      string(report.TimeRisk),
			Conviction:    conviction,
		}

		if err := c.Messenger.NotifySpikeBurst(alert); err != nil {
			c.Log.Warn().Err(err).Msg("failed to notify spike burst")
		}

		if i == total-1 {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(cfg.SpikeBurstIntervalSec) * time.Second):
		}
	}
}
