package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/insightmap/insightmap/internal/model"
	"github.com/insightmap/insightmap/internal/store"
)

// journeysCmd represents the journeys command
var journeysCmd = &cobra.Command{
	Use:   "journeys",
	Short: "List journey maps in the local store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		st, err := store.Open(cfg.Store.Dir, cfg.Store.MemoryTTL)
		if err != nil {
			return err
		}
		maps, err := st.ListJourneyMaps()
		if err != nil {
			return err
		}
		if len(maps) == 0 {
			fmt.Println("No journey maps found. Import one with 'insightmap journeys import'.")
			return nil
		}
		for _, m := range maps {
			fmt.Printf("%-38s %2d stages  %2d rows  %3d insights  %s\n",
				m.ID, len(m.Stages), len(m.Rows), len(m.Insights), m.Name)
		}
		return nil
	},
}

// journeysImportCmd represents the journeys import subcommand
var journeysImportCmd = &cobra.Command{
	Use:   "import <map.json>",
	Short: "Import a journey map definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		st, err := store.Open(cfg.Store.Dir, cfg.Store.MemoryTTL)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var m model.JourneyMap
		if err := json.Unmarshal(data, &m); err != nil {
			return fmt.Errorf("parse journey map: %w", err)
		}
		if err := st.SaveJourneyMap(&m); err != nil {
			return err
		}
		fmt.Printf("✓ Imported journey map %s (%s)\n", m.ID, m.Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(journeysCmd)
	journeysCmd.AddCommand(journeysImportCmd)
}
