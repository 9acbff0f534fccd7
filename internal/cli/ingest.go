package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/insightmap/insightmap/internal/ingest"
	"github.com/insightmap/insightmap/internal/store"
)

var ingestFolder string

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest <transcript.html> [more...]",
	Short: "Import interview transcripts into the local store",
	Long: `Parse exported interview transcripts (HTML) into research artifacts.
Each block-level passage becomes a highlight, tagged with the nearest section
heading as its topic and a keyword-derived sentiment.

Example:
  insightmap ingest interviews/p1.html interviews/p2.html
  insightmap ingest interviews/*.html --folder onboarding-q2`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVar(&ingestFolder, "folder", "", "assign imported artifacts to this folder")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := store.Open(cfg.Store.Dir, cfg.Store.MemoryTTL)
	if err != nil {
		return err
	}

	batch := ingest.NewBatchImporter(ingest.NewImporter(), cfg.Concurrency.IngestWorkers)
	results := batch.ImportFiles(context.Background(), args)

	imported, failed := 0, 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Printf("✗ %s: %v\n", res.Path, res.Err)
			continue
		}
		res.Artifact.FolderID = ingestFolder
		if err := st.SaveArtifact(res.Artifact); err != nil {
			failed++
			fmt.Printf("✗ %s: %v\n", res.Path, err)
			continue
		}
		imported++
		if verbose {
			fmt.Printf("✓ %s: %d highlights (%s)\n", res.Path, res.Artifact.ItemCount, res.Artifact.ID)
		}
	}

	fmt.Printf("Imported %d artifact(s), %d failed.\n", imported, failed)
	if failed > 0 {
		return fmt.Errorf("%d transcript(s) failed to import", failed)
	}
	return nil
}
