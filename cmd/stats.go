package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show node and edge counts in the memory graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		nodes, err := d.CountNodesByType()
		if err != nil {
			return fmt.Errorf("counting nodes: %w", err)
		}
		edges, err := d.CountEdgesByRel()
		if err != nil {
			return fmt.Errorf("counting edges: %w", err)
		}

		if statsJSON {
			out := struct {
				Nodes map[string]int `json:"nodes"`
				Edges map[string]int `json:"edges"`
			}{nodes, edges}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		color.Cyan("Nodes:")
		printCounts(nodes)
		fmt.Println()
		color.Cyan("Edges:")
		printCounts(edges)
		return nil
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "JSON output")
	rootCmd.AddCommand(statsCmd)
}

func printCounts(counts map[string]int) {
	keys := make([]string, 0, len(counts))
	total := 0
	for k, n := range counts {
		keys = append(keys, k)
		total += n
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-10s %6d\n", k, counts[k])
	}
	fmt.Printf("  %-10s %6d\n", "total", total)
}
