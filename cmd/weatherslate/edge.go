package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tylergwlk/weatherslate/internal/config"
	"github.com/tylergwlk/weatherslate/internal/edge"
	"github.com/tylergwlk/weatherslate/internal/orchestrator"
	"github.com/tylergwlk/weatherslate/internal/stations"
)

var edgeCmd = &cobra.Command{
	Use:   "edge",
	Short: "Fan in every temperature source for one or every city and print the trading signal",
	RunE:  runEdge,
}

func runEdge(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadReadOnly()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := buildLogger(cfg)

	collaborators, cleanup, err := buildCollaborators(cfg, log)
	if err != nil {
		return fmt.Errorf("build collaborators: %w", err)
	}
	defer cleanup()

	entries := stations.All
	if cityFilter != "" {
		entry, ok := stations.Lookup(cityFilter)
		if !ok {
			return fmt.Errorf("unknown city %q", cityFilter)
		}
		entries = []stations.Entry{*entry}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	reports := make([]edge.Report, 0, len(entries))
	for _, entry := range entries {
		fetch := orchestrator.FetchCity(ctx, collaborators, entry)

		loc, err := time.LoadLocation(entry.TimezoneID)
		if err != nil {
			log.Warn().Err(err).Str("city", entry.City).Msg("unknown time zone, defaulting to UTC")
			loc = time.UTC
		}
		now := time.Now().UTC()
		nowLocal := now.In(loc)
		_, cliEnd := stations.CLIDayWindow(nowLocal, loc)
		hoursToClose := cliEnd.Sub(now).Hours()

		report := edge.Analyze(entry, edge.Sources{
			Metar:       fetch.RawObs,
			CurrentCond: fetch.CurrentCond,
			ObsHist:     fetch.ObsHistory,
			CLI:         fetch.CLI,
		}, now, nowLocal.Hour(), hoursToClose)

		reports = append(reports, report)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}
