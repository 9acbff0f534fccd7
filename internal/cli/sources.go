package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/insightmap/insightmap/internal/store"
)

var sourcesFolder string

// sourcesCmd represents the sources command
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List research artifacts available for import",
	Long: `List the research artifacts in the local store, optionally filtered by
project folder.

Example:
  insightmap sources
  insightmap sources --folder onboarding-q2`,
	RunE: runSourcesCmd,
}

// foldersCmd represents the folders subcommand
var foldersCmd = &cobra.Command{
	Use:   "folders",
	Short: "List project folders",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		st, err := store.Open(cfg.Store.Dir, cfg.Store.MemoryTTL)
		if err != nil {
			return err
		}
		folders, err := st.ListFolders()
		if err != nil {
			return err
		}
		if len(folders) == 0 {
			fmt.Println("No folders found.")
			return nil
		}
		for _, f := range folders {
			fmt.Println(f)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
	sourcesCmd.AddCommand(foldersCmd)
	sourcesCmd.Flags().StringVar(&sourcesFolder, "folder", "", "only list artifacts in this folder")
}

func runSourcesCmd(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := store.Open(cfg.Store.Dir, cfg.Store.MemoryTTL)
	if err != nil {
		return err
	}

	artifacts, err := st.ListArtifacts(sourcesFolder)
	if err != nil {
		return err
	}
	if len(artifacts) == 0 {
		fmt.Println("No artifacts found. Import transcripts with 'insightmap ingest'.")
		return nil
	}

	for _, a := range artifacts {
		fmt.Printf("%-38s %-10s %4d items  %s  %s\n",
			a.ID, a.Type, a.ItemCount, a.CollectedAt.Format("2006-01-02"), a.Name)
	}
	return nil
}
