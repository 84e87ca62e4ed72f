// Package orchestrator drives one full scan run end to end: resolve the
// target date per city, fetch weather and orderbook data concurrently,
// run every candidate through modeler -> accountant -> planner -> risk ->
// teamlead, enforce portfolio caps, compute the run-over-run delta, and
// write REPORT.md/DAILY_SLATE.json.
package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tylergwlk/weatherslate/internal/accountant"
	"github.com/tylergwlk/weatherslate/internal/config"
	"github.com/tylergwlk/weatherslate/internal/messenger"
	"github.com/tylergwlk/weatherslate/internal/modeler"
	"github.com/tylergwlk/weatherslate/internal/obsparser"
	"github.com/tylergwlk/weatherslate/internal/output"
	"github.com/tylergwlk/weatherslate/internal/planner"
	"github.com/tylergwlk/weatherslate/internal/risk"
	"github.com/tylergwlk/weatherslate/internal/stations"
	"github.com/tylergwlk/weatherslate/internal/teamlead"
	"github.com/tylergwlk/weatherslate/internal/venue"
	"github.com/tylergwlk/weatherslate/internal/weather"
)

// MaxConcurrentCities bounds the per-city fan-out so the rate limiter
// remains the only real throttle and a single slow station can't serialize
// the whole run.
const MaxConcurrentCities = 4

// lowSeriesRE matches the venue's daily-low series ticker prefix (e.g.
// "KXLOWNY-..."), mirroring the high/low series split used to classify
// candidates before brackets are even enumerated.
var lowSeriesRE = regexp.MustCompile(`(?i)^KXLOW`)

// Collaborators bundles every external-facing client the orchestrator
// drives. Constructed once by main and reused across runs.
type Collaborators struct {
	Venue     *venue.Client
	Forecast  *weather.Provider
	Scraper   *weather.Scraper
	Climate   *weather.ClimateReportFetcher
	Messenger messenger.Messenger
	Log       zerolog.Logger
}

// CityFetch is every raw data source pulled for one city/market-type pair
// before modeling begins.
type CityFetch struct {
	Entry         stations.Entry
	ForecastHighF *float64
	ForecastLowF  *float64
	CurrentObsF   *float64
	RawObs        *obsparser.Observation
	CurrentCond   *weather.CurrentConditions
	ObsHistory    *weather.ObservationHistory
	CLI           *weather.CliReport
	FetchErr      error
}

// FetchCity pulls every weather source for one station concurrently within
// the call, tolerating partial source failure the way each collaborator
// already does (a nil result, not a hard error).
func FetchCity(ctx context.Context, c Collaborators, entry stations.Entry) CityFetch {
	fetch := CityFetch{Entry: entry}

	g, gctx := errgroup.WithContext(ctx)

	var forecast *weather.StationForecast
	g.Go(func() error {
		forecast = c.Forecast.GetHourlyForecast(gctx, entry.StationICAO)
		return nil
	})

	var currentObs *weather.CurrentObs
	g.Go(func() error {
		currentObs = c.Forecast.GetCurrentObservation(gctx, entry.StationICAO)
		return nil
	})

	g.Go(func() error {
		fetch.RawObs = c.Scraper.GetRawObservation(gctx, entry.StationICAO)
		return nil
	})

	g.Go(func() error {
		fetch.CurrentCond = c.Scraper.GetCurrentConditions(gctx, entry.StationICAO)
		return nil
	})

	g.Go(func() error {
		fetch.ObsHistory = c.Scraper.GetObservationHistory(gctx, entry.StationICAO)
		return nil
	})

	g.Go(func() error {
		fetch.CLI = c.Climate.GetPreliminaryCLI(gctx, entry.CLICode)
		return nil
	})

	if err := g.Wait(); err != nil {
		fetch.FetchErr = err
	}

	if forecast != nil {
		fetch.ForecastHighF = forecast.ForecastHighF
		fetch.ForecastLowF = forecast.ForecastLowF
	}
	if currentObs != nil {
		fetch.CurrentObsF = currentObs.TempF
	}

	return fetch
}

// FetchAllCities fans out FetchCity across every station in the registry,
// bounded by MaxConcurrentCities.
func FetchAllCities(ctx context.Context, c Collaborators, entries []stations.Entry) []CityFetch {
	results := make([]CityFetch, len(entries))
	sem := make(chan struct{}, MaxConcurrentCities)
	var wg errgroup.Group

	for i, entry := range entries {
		i, entry := i, entry
		wg.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = FetchCity(ctx, c, entry)
			return nil
		})
	}
	_ = wg.Wait()
	return results
}

// MarketCandidate is one tradeable bracket discovered from the venue, ready
// to be modeled.
type MarketCandidate struct {
	City       stations.Entry
	MarketType modeler.MarketType
	Event      venue.Event
	Market     venue.Market
	BracketDef string
}

// DiscoverMarkets scans venue events for every bracket market whose implied
// NO ask falls in the configured scan window, tagging each with the city it
// maps to via the station registry.
func DiscoverMarkets(ctx context.Context, v *venue.Client, scanLowCents, scanHighCents int) ([]MarketCandidate, int, int, error) {
	events, err := v.ListAllEvents(ctx, "", "open", true)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("orchestrator: list events: %w", err)
	}

	var candidates []MarketCandidate
	bracketsScanned := 0

	for _, ev := range events {
		entry, ok := stations.Lookup(ev.Title)
		if !ok {
			continue
		}
		marketType := modeler.MarketTypeHigh
		if lowSeriesRE.MatchString(ev.SeriesTicker) {
			marketType = modeler.MarketTypeLow
		}

		for _, m := range ev.Markets {
			bracketsScanned++
			ob, err := v.GetOrderbook(ctx, m.Ticker, 10)
			if err != nil {
				continue
			}
			ask, ok := ob.ImpliedBestNoAskCents()
			if !ok || ask < scanLowCents || ask > scanHighCents {
				continue
			}
			candidates = append(candidates, MarketCandidate{
				City:       *entry,
				MarketType: marketType,
				Event:      ev,
				Market:     m,
				BracketDef: m.Subtitle,
			})
		}
	}

	return candidates, len(events), bracketsScanned, nil
}

// applyPortfolioCaps runs PRIMARY-bucket candidates through the regional
// correlation/metro caps and demotes any candidate that loses its slot to
// TIGHT rather than dropping it outright, since it already cleared every
// other bucket rule. A demoted candidate's bucket reason gains a
// "(demoted: portfolio cap)" note; it is not also added to rejected, which
// is returned unchanged.
func applyPortfolioCaps(primary, tight, rejected []teamlead.Candidate, maxPerCorrGroup, maxPerMetro int) (cappedPrimary, cappedTight, cappedRejected []teamlead.Candidate) {
	picks := make([]risk.Pick, 0, len(primary))
	for _, p := range primary {
		picks = append(picks, risk.Pick{City: p.City, MarketTicker: p.MarketTicker, RankScore: float64(-p.Rank)})
	}
	kept, _ := risk.EnforceCaps(picks, maxPerCorrGroup, maxPerMetro)

	keptTickers := make(map[string]bool, len(kept))
	for _, k := range kept {
		keptTickers[k.MarketTicker] = true
	}

	var demotedByCaps []teamlead.Candidate
	for _, p := range primary {
		if keptTickers[p.MarketTicker] {
			cappedPrimary = append(cappedPrimary, p)
		} else {
			p.Bucket = teamlead.BucketTight
			p.BucketReason += " (demoted: portfolio cap)"
			demotedByCaps = append(demotedByCaps, p)
		}
	}
	cappedTight = append(demotedByCaps, tight...)

	cappedRejected = rejected

	return cappedPrimary, cappedTight, cappedRejected
}

// applyStabilitySuppression implements §4.12 steps 3-4: any candidate whose
// bucket changed from the most recent prior run is reverted to its prior
// bucket unless output.ShouldSuppressChange says the move is real, then
// every candidate is re-partitioned by its (possibly reverted) bucket.
func applyStabilitySuppression(primary, tight, nearMiss []teamlead.Candidate, prior *output.Slate, minMoveCents int) (stablePrimary, stableTight, stableNearMiss []teamlead.Candidate) {
	if prior == nil {
		return primary, tight, nearMiss
	}

	priorByTicker := make(map[string]teamlead.Candidate)
	for _, list := range [][]teamlead.Candidate{prior.PicksPrimary, prior.PicksTight, prior.PicksNearMiss} {
		for _, c := range list {
			priorByTicker[c.MarketTicker] = c
		}
	}

	all := make([]teamlead.Candidate, 0, len(primary)+len(tight)+len(nearMiss))
	all = append(all, primary...)
	all = append(all, tight...)
	all = append(all, nearMiss...)

	for i, c := range all {
		prev, ok := priorByTicker[c.MarketTicker]
		if !ok || c.Bucket == prev.Bucket {
			continue
		}
		if output.ShouldSuppressChange(c, prev, minMoveCents) {
			all[i].Bucket = prev.Bucket
			all[i].BucketReason = fmt.Sprintf("Stability: kept %s (change suppressed — thresholds not met)", prev.Bucket)
		}
	}

	for _, c := range all {
		switch c.Bucket {
		case teamlead.BucketPrimary:
			stablePrimary = append(stablePrimary, c)
		case teamlead.BucketTight:
			stableTight = append(stableTight, c)
		case teamlead.BucketNearMiss:
			stableNearMiss = append(stableNearMiss, c)
		}
	}
	return stablePrimary, stableTight, stableNearMiss
}

// allocateStakes splits MaxBankrollUSD across the final PRIMARY picks via
// risk.AllocateStakes, overwriting each candidate's provisional
// single-pick Allocation.SuggestedStakeUSD/MaxLossUSD in place with the
// portfolio-aware figure now that the real pick count is known.
func allocateStakes(primary []teamlead.Candidate, bankrollUSD float64) {
	picks := make([]risk.StakePick, 0, len(primary))
	for _, c := range primary {
		mult := 1.0
		if c.Allocation != nil {
			mult = c.Allocation.RiskMultiplier
		}
		picks = append(picks, risk.StakePick{MarketTicker: c.MarketTicker, RiskMultiplier: mult})
	}
	allocated := risk.AllocateStakes(picks, bankrollUSD)

	byTicker := make(map[string]risk.StakePick, len(allocated))
	for _, p := range allocated {
		byTicker[p.MarketTicker] = p
	}
	for i := range primary {
		if p, ok := byTicker[primary[i].MarketTicker]; ok && primary[i].Allocation != nil {
			primary[i].Allocation.SuggestedStakeUSD = p.StakeUSD
			primary[i].Allocation.MaxLossUSD = p.MaxLossUSD
		}
	}
}

// RunResult is the output of one complete scan run.
type RunResult struct {
	Slate      output.Slate
	DeltaNotes []string
}

// Run executes one full scan: fetch every city's weather data, discover and
// model candidates, run the bucket pipeline, enforce portfolio caps, and
// assemble the slate. It does not write any artifacts — call WriteArtifacts
// with the result.
func Run(ctx context.Context, cfg *config.Config, c Collaborators, nowUTC time.Time) (RunResult, error) {
	fetches := FetchAllCities(ctx, c, stations.All)
	byCity := make(map[string]CityFetch, len(fetches))
	for _, f := range fetches {
		byCity[f.Entry.City] = f
	}

	marketCandidates, eventsScanned, bracketsScanned, err := DiscoverMarkets(ctx, c.Venue, cfg.ScanWindowLowCents, cfg.ScanWindowHighCents)
	if err != nil {
		return RunResult{}, err
	}

	pw := teamlead.PriceWindow{
		PrimaryLow: cfg.PrimaryAskLowCents, PrimaryHigh: cfg.PrimaryAskHighCents,
		NearMissLowLo: cfg.NearMissLowCents, NearMissLowHi: cfg.PrimaryAskLowCents - 1,
		NearMissHighLo: cfg.PrimaryAskHighCents + 1, NearMissHighHi: cfg.NearMissHighCents,
		MinBidRoomPrimary: cfg.MinBidRoomPrimary,
	}

	targetDate := nowUTC.Format("2006-01-02")
	rates := accountant.FeeRates{TakerRate: cfg.TakerFeeRate, MakerRate: cfg.MakerFeeRate}

	var candidates []teamlead.Candidate

	for _, mc := range marketCandidates {
		fetch := byCity[mc.City.City]

		ob, err := c.Venue.GetOrderbook(ctx, mc.Market.Ticker, 10)
		if err != nil {
			continue
		}

		modelOut, err := modeler.Model(modeler.Input{
			MarketTicker:    mc.Market.Ticker,
			MarketType:      mc.MarketType,
			BracketDef:      mc.BracketDef,
			City:            mc.City.City,
			TargetDateLocal: targetDate,
			Station:         mc.City,
			ForecastHighF:   fetch.ForecastHighF,
			ForecastLowF:    fetch.ForecastLowF,
			CurrentObsF:     fetch.CurrentObsF,
			NowUTC:          nowUTC,
		}, modeler.DefaultTunables)
		if err != nil {
			c.Log.Warn().Err(err).Str("ticker", mc.Market.Ticker).Msg("modeler failed for candidate")
			continue
		}

		limit, rationale, fillNotes := planner.RecommendedLimit(*ob)
		plan := planner.BuildExecutionPlan(mc.Market.Ticker, mc.Market.Ticker, *ob, nil)
		plan.LimitRationale = rationale
		plan.FillProbabilityNotes = fillNotes

		var impliedAsk *int
		if ask, ok := ob.ImpliedBestNoAskCents(); ok {
			impliedAsk = &ask
		}
		acc := accountant.Compute(mc.Market.Ticker, impliedAsk, modelOut.PNo, limit, rates)

		liquidity := planner.AssessLiquidity(*ob)
		spread := planner.AssessSpread(*ob, nil, &liquidity, cfg.MaxSpreadCents)

		allocation := risk.BuildRecommendation(
			mc.Market.Ticker, mc.City.City, modelOut, acc,
			liquidity.Verdict == planner.LiquidityThin,
			spread.Verdict != planner.SpreadOK,
			cfg.MaxBankrollUSD,
		)

		cand := teamlead.MergeCandidate(teamlead.Candidate{
			RunTimeET:         nowUTC.Format("2006-01-02 15:04 MST"),
			TargetDateLocal:   targetDate,
			City:              mc.City.City,
			MarketType:        mc.MarketType,
			EventName:         mc.Event.Title,
			MarketTicker:      mc.Market.Ticker,
			MarketURL:         mc.Market.Ticker,
			BracketDef:        mc.BracketDef,
			StationConfidence: mc.City.Confidence,
			Orderbook:         *ob,
			Model:             &modelOut,
			FeesEV:            &acc,
			TradePlan:         &plan,
			Allocation:        &allocation,
		})
		candidates = append(candidates, cand)
	}

	primary, tight, nearMiss, rejected := teamlead.RunBucketPipeline(candidates, pw, cfg.MaxSpreadCents, cfg.MaxPrimaryPicks)

	cappedPrimary, tight, rejected := applyPortfolioCaps(primary, tight, rejected, cfg.MaxPerCorrelationGroup, cfg.MaxPerMetro)

	runTimeET := nowUTC.Format("2006-01-02 15:04 MST")
	currentTag := output.RunTag(runTimeET)
	artifactDir := filepath.Join(cfg.ArtifactBaseDir, targetDate)

	priorPath, err := output.FindPriorSlatePath(artifactDir, currentTag)
	if err != nil {
		c.Log.Warn().Err(err).Msg("failed to search for prior slate")
	}
	prior, err := output.LoadPriorSlate(priorPath)
	if err != nil {
		c.Log.Warn().Err(err).Msg("failed to load prior slate")
	}

	stablePrimary, stableTight, stableNearMiss := applyStabilitySuppression(cappedPrimary, tight, nearMiss, prior, cfg.MinPriceMoveCents)

	allocateStakes(stablePrimary, cfg.MaxBankrollUSD)

	notes := []string{fmt.Sprintf("Scanned %d events, %d bracket markets", eventsScanned, bracketsScanned)}

	slate := output.BuildSlate(
		runTimeET, targetDate, cfg.MaxBankrollUSD,
		stablePrimary, stableTight, stableNearMiss, rejected,
		eventsScanned, bracketsScanned, len(candidates), notes,
	)

	var deltaNotes []string
	if prior != nil {
		deltaNotes = output.ComputeDelta(slate, *prior, cfg.MinPriceMoveCents)
	} else {
		deltaNotes = []string{"No prior run available for comparison."}
	}
	slate.Notes = append(slate.Notes, deltaNotes...)

	if c.Messenger != nil {
		if err := c.Messenger.NotifyScanComplete(targetDate, len(stablePrimary), len(stableTight), len(stableNearMiss)); err != nil {
			c.Log.Warn().Err(err).Msg("failed to notify scan completion")
		}
	}

	return RunResult{Slate: slate, DeltaNotes: deltaNotes}, nil
}

// WriteArtifacts persists the run's JSON slate and Markdown report under
// ArtifactBaseDir/<target-date>/.
func WriteArtifacts(cfg *config.Config, result RunResult) error {
	dir := filepath.Join(cfg.ArtifactBaseDir, result.Slate.TargetDateLocal)
	tag := output.RunTag(result.Slate.RunTimeET)
	if err := output.WriteJSON(result.Slate, filepath.Join(dir, fmt.Sprintf("DAILY_SLATE_%s.json", tag))); err != nil {
		return err
	}
	return output.WriteReportMarkdown(result.Slate, result.DeltaNotes, filepath.Join(dir, fmt.Sprintf("REPORT_%s.md", tag)))
}
