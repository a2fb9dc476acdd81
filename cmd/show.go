package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"arcmemory/arc/internal/db"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a node and its edges (exact id or unique prefix)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		node, err := ResolveNode(d, args[0])
		if err != nil {
			return err
		}

		edges, err := d.EdgesForNode(node.ID)
		if err != nil {
			return fmt.Errorf("loading edges: %w", err)
		}

		if showJSON {
			out := struct {
				Node  *db.Node  `json:"node"`
				Edges []db.Edge `json:"edges"`
			}{node, edges}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		color.Cyan("%s", node.ID)
		fmt.Printf("  type:  %s\n", node.Type)
		fmt.Printf("  title: %s\n", node.Title)
		if node.Timestamp != nil {
			fmt.Printf("  when:  %s\n", node.Timestamp.Format("2006-01-02"))
		}
		if node.Body != "" && node.Body != node.Title {
			fmt.Printf("\n%s\n", truncate(node.Body, 500))
		}
		if len(edges) > 0 {
			fmt.Println()
			color.Yellow("Edges:")
			for _, e := range edges {
				if e.SourceID == node.ID {
					fmt.Printf("  -[%s]-> %s\n", e.Rel, e.TargetID)
				} else {
					fmt.Printf("  <-[%s]- %s\n", e.Rel, e.SourceID)
				}
			}
		}
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "JSON output")
	rootCmd.AddCommand(showCmd)
}

// ResolveNode finds a node by exact id first, then by unique id prefix.
func ResolveNode(d *db.DB, ref string) (*db.Node, error) {
	node, err := d.GetNode(ref)
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", ref, err)
	}
	if node != nil {
		return node, nil
	}

	matches, err := d.SearchByIDPrefix(ref, 2)
	if err != nil {
		return nil, fmt.Errorf("looking up prefix %s: %w", ref, err)
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no node matches %q", ref)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous id prefix %q", ref)
	}
}
