package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"arcmemory/arc/internal/llm"
	"arcmemory/arc/internal/query"
)

var (
	queryJSON       bool
	queryMaxResults int
	queryMaxHops    int
	queryModel      string
	queryHost       string
)

var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Ask a natural-language question about the repository's history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		engine := query.NewEngine(d, llm.NewClient(queryHost, queryModel))
		engine.MaxResults = queryMaxResults
		engine.MaxHops = queryMaxHops

		result := engine.Process(cmd.Context(), args[0])

		if queryJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		printResult(result)
		return nil
	},
}

func init() {
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "JSON output")
	queryCmd.Flags().IntVar(&queryMaxResults, "max-results", query.DefaultMaxResults, "Max results to return")
	queryCmd.Flags().IntVar(&queryMaxHops, "max-hops", query.DefaultMaxHops, "Max graph expansion depth")
	queryCmd.Flags().StringVar(&queryModel, "model", "", "Completion model (default from ARC_OLLAMA_MODEL)")
	queryCmd.Flags().StringVar(&queryHost, "host", "", "Completion endpoint (default from ARC_OLLAMA_HOST)")
	rootCmd.AddCommand(queryCmd)
}

func printResult(r *query.Result) {
	if r.Error != "" {
		color.Red("Error: %s", r.Error)
		if r.Understanding != "" {
			fmt.Println(r.Understanding)
		}
		return
	}

	if r.Understanding != "" {
		color.Cyan("Understood as: %s", r.Understanding)
		fmt.Println()
	}

	if r.Answer != "" {
		fmt.Println(r.Answer)
		fmt.Println()
	} else if r.Summary != "" {
		fmt.Println(r.Summary)
		fmt.Println()
	}

	if len(r.Results) > 0 {
		color.Yellow("Sources:")
		for _, n := range r.Results {
			line := fmt.Sprintf("  [%2d] %s", n.Relevance, n.ID)
			if n.Title != "" {
				line += "  " + truncate(n.Title, 60)
			}
			if n.Timestamp != "" {
				line += "  (" + n.Timestamp[:10] + ")"
			}
			fmt.Println(line)
		}
	}

	if r.Confidence > 0 {
		fmt.Printf("\nConfidence: %d/10\n", r.Confidence)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
