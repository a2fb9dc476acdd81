package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"arcmemory/arc/internal/ingest"
)

var (
	ingestMaxCommits int
	ingestJSON       bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [repo-path]",
	Short: "Build the history graph from a git repository",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repoPath := "."
		if len(args) == 1 {
			repoPath = args[0]
		}

		repo, err := ingest.Open(repoPath)
		if err != nil {
			return err
		}

		d, err := CreateDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		stats, err := ingest.Run(cmd.Context(), d, repo, ingest.Options{
			MaxCommits: ingestMaxCommits,
		})
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", repoPath, err)
		}

		if ingestJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}

		fmt.Printf("Ingested %d commits, %d files, %d edges into %s\n",
			stats.Commits, stats.Files, stats.Edges, d.Path)
		return nil
	},
}

func init() {
	ingestCmd.Flags().IntVar(&ingestMaxCommits, "max-commits", 0, "Max commits to walk from HEAD (0 = all)")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "JSON output")
	rootCmd.AddCommand(ingestCmd)
}
