package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/insightmap/insightmap/internal/client"
	"github.com/insightmap/insightmap/internal/combine"
	"github.com/insightmap/insightmap/internal/model"
	"github.com/insightmap/insightmap/internal/pipeline"
	"github.com/insightmap/insightmap/internal/review"
	"github.com/insightmap/insightmap/internal/store"
)

var (
	runJourney string
	runSources []string
	runFolder  string
	runBand    string
	runWait    bool
	runDryRun  bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate insights from selected sources and place them on a journey map",
	Long: `Run the full pipeline: combine the selected research artifacts, generate
candidate insights, rank their journey-map placements, and attach the
accepted insights to the map.

By default every generated insight is accepted at its highest-confidence
placement. Use --band to only accept insights at or above a confidence band.

Example:
  insightmap run --journey jm1 --source a1 --source a2
  insightmap run --journey jm1 --folder onboarding-q2 --band medium
  insightmap run --journey jm1 --folder onboarding-q2 --wait`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runJourney, "journey", "", "journey map id (required)")
	runCmd.Flags().StringArrayVar(&runSources, "source", nil, "artifact id to include (repeatable)")
	runCmd.Flags().StringVar(&runFolder, "folder", "", "include every artifact in this folder")
	runCmd.Flags().StringVar(&runBand, "band", "", "minimum confidence band to accept (medium, high)")
	runCmd.Flags().BoolVar(&runWait, "wait", false, "on rate limit, wait for the reset and retry automatically")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "review only, do not write back to the journey map")
	_ = runCmd.MarkFlagRequired("journey")
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := validateBand(runBand); err != nil {
		return err
	}
	cfg := loadConfig()
	st, err := store.Open(cfg.Store.Dir, cfg.Store.MemoryTTL)
	if err != nil {
		return err
	}

	sources, err := selectSources(st)
	if err != nil {
		return err
	}
	journeyMap, err := st.GetJourneyMap(runJourney)
	if err != nil {
		return fmt.Errorf("load journey map %s: %w", runJourney, err)
	}

	dataset := combine.Combine(sources)
	fmt.Printf("Analyzing %s (%d highlights, %d responses)\n",
		dataset.Name, len(dataset.Highlights), len(dataset.Responses))

	svc := client.New(cfg.Service.BaseURL, cfg.Service.Timeout, cfg.Service.UserAgent)
	orch := pipeline.New(svc, svc,
		pipeline.WithAnalyzeDelay(cfg.Pipeline.AnalyzeDelay),
		pipeline.WithNotify(progressPrinter()),
	)

	ctx := context.Background()
	if err := orch.Start(ctx, dataset, journeyMap); err != nil {
		return err
	}

	result, err := waitForResult(ctx, orch)
	if err != nil {
		return err
	}

	selection := review.NewSelection(result.Insights)
	if err := applyBandFilter(selection, result.Insights, runBand); err != nil {
		return err
	}
	printReview(selection)

	accepted := selection.Confirm()
	if len(accepted) == 0 {
		fmt.Println("Nothing accepted; journey map unchanged.")
		return nil
	}
	if runDryRun {
		fmt.Printf("Dry run: %d insight(s) would be attached.\n", len(accepted))
		return nil
	}

	updated, err := st.AttachInsights(runJourney, accepted)
	if err != nil {
		return fmt.Errorf("attach insights: %w", err)
	}
	fmt.Printf("✓ Attached %d insight(s) to %s (%d total on map)\n",
		len(accepted), updated.Name, len(updated.Insights))
	return nil
}

// selectSources resolves --source/--folder into fetched artifacts
func selectSources(st *store.Store) ([]*model.ResearchArtifact, error) {
	if len(runSources) == 0 && runFolder == "" {
		return nil, fmt.Errorf("select sources with --source or --folder")
	}

	var out []*model.ResearchArtifact
	for _, id := range runSources {
		a, err := st.GetArtifact(id)
		if err != nil {
			return nil, fmt.Errorf("load artifact %s: %w", id, err)
		}
		out = append(out, a)
	}
	if runFolder != "" {
		inFolder, err := st.ListArtifacts(runFolder)
		if err != nil {
			return nil, err
		}
		out = append(out, inFolder...)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no artifacts matched the selection")
	}
	return out, nil
}

// waitForResult waits out the run, handling rate limits per --wait: either
// sleep through the countdown and restart the pipeline, or report and stop.
func waitForResult(ctx context.Context, orch *pipeline.Orchestrator) (*model.ImportResult, error) {
	for {
		snap, err := orch.Wait(ctx)
		if err != nil {
			return nil, err
		}

		switch snap.Stage {
		case pipeline.StageComplete:
			result, _ := orch.Result()
			return result, nil

		case pipeline.StageRateLimited:
			if !runWait {
				return nil, fmt.Errorf("rate limited: %s (retry in %s, or rerun with --wait)",
					snap.RateLimit.Message, snap.RemainingWait.Round(time.Second))
			}
			fmt.Printf("Rate limited, waiting %s for the quota to reset...\n",
				snap.RemainingWait.Round(time.Second))
			for !orch.RetryAvailable() {
				select {
				case <-ctx.Done():
					orch.Abandon()
					return nil, ctx.Err()
				case <-time.After(time.Second):
				}
			}
			if err := orch.Retry(ctx); err != nil {
				return nil, err
			}

		default: // StageError
			return nil, fmt.Errorf("pipeline failed: %s", snap.LastError)
		}
	}
}

// progressPrinter prints stage changes in verbose mode
func progressPrinter() func(pipeline.Snapshot) {
	var last pipeline.Stage
	return func(s pipeline.Snapshot) {
		if !verbose || s.Stage == last {
			return
		}
		last = s.Stage
		fmt.Fprintf(os.Stderr, "  [%3d%%] %s\n", s.Progress, s.Stage)
	}
}

// validateBand rejects --band values other than the two accepted thresholds.
// An unknown value must not silently pick one.
func validateBand(band string) error {
	switch band {
	case "", "medium", "high":
		return nil
	default:
		return fmt.Errorf("invalid --band %q (use medium or high)", band)
	}
}

// applyBandFilter deselects insights below the requested confidence band
func applyBandFilter(sel *review.Selection, batch []model.GeneratedInsight, band string) error {
	if err := validateBand(band); err != nil {
		return err
	}
	if band == "" {
		return nil
	}
	for _, ins := range batch {
		b := ins.Band()
		keep := b == model.BandHigh || (band == "medium" && b == model.BandMedium)
		if !keep {
			sel.Toggle(ins.TempID)
		}
	}
	return nil
}

// printReview summarizes the batch the way the review screen groups it
func printReview(sel *review.Selection) {
	st := sel.Stats()
	fmt.Printf("Generated %d insight(s): %d high / %d medium / %d low confidence, %d ai / %d keyword\n",
		st.Total, st.High, st.Medium, st.Low, st.AI, st.Keyword)
	fmt.Printf("Accepting %d of %d.\n", sel.SelectedCount(), st.Total)
}
