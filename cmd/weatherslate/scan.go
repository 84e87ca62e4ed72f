package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tylergwlk/weatherslate/internal/config"
	"github.com/tylergwlk/weatherslate/internal/orchestrator"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one full scan: fetch weather, model every candidate market, and write the daily slate",
	RunE:  runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log := buildLogger(cfg)
	log.Info().Msg("weatherslate scan starting")

	collaborators, cleanup, err := buildCollaborators(cfg, log)
	if err != nil {
		return fmt.Errorf("build collaborators: %w", err)
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := orchestrator.Run(ctx, cfg, collaborators, time.Now().UTC())
	if err != nil {
		if notifyErr := collaborators.Messenger.NotifyError("scan", err); notifyErr != nil {
			log.Warn().Err(notifyErr).Msg("failed to notify scan error")
		}
		return fmt.Errorf("run scan: %w", err)
	}

	if err := orchestrator.WriteArtifacts(cfg, result); err != nil {
		return fmt.Errorf("write artifacts: %w", err)
	}

	log.Info().
		Str("target_date", result.Slate.TargetDateLocal).
		Int("primary", len(result.Slate.PicksPrimary)).
		Int("tight", len(result.Slate.PicksTight)).
		Int("near_miss", len(result.Slate.PicksNearMiss)).
		Msg("scan complete")

	for _, note := range result.DeltaNotes {
		fmt.Fprintln(os.Stdout, note)
	}

	return nil
}
