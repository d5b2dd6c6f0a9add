package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/kgtutor/internal/knowledge"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Browse the knowledge graph",
}

var graphListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all knowledge points with their relations",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		var filter knowledge.RelationKind
		if kind != "" {
			k, ok := knowledge.ParseRelationKind(kind)
			if !ok {
				return fmt.Errorf("unknown relation kind %q", kind)
			}
			filter = k
		}

		e, err := openData(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		g := e.data.Graph
		out := cmd.OutOrStdout()

		foundational := make(map[string]bool)
		for _, id := range g.Foundational() {
			foundational[id] = true
		}

		// Header.
		fmt.Fprintf(out, "%-6s  %-32s  %-4s  %s\n", "ID", "Name", "Seed", "Relations")
		fmt.Fprintln(out, strings.Repeat("─", 90))

		for _, p := range g.Points() {
			name := p.Name
			if len(name) > 32 {
				name = name[:29] + "..."
			}
			seed := ""
			if foundational[p.ID] {
				seed = "*"
			}
			var rels []string
			for _, r := range g.RelationsFrom(p.ID) {
				if filter != "" && r.Kind != filter {
					continue
				}
				rels = append(rels, fmt.Sprintf("%s→%s", r.Kind, r.Target))
			}
			fmt.Fprintf(out, "%-6s  %-32s  %-4s  %s\n", p.ID, name, seed, strings.Join(rels, " "))
		}

		fmt.Fprintf(out, "\n%d knowledge points\n", g.Len())
		return nil
	},
}

func init() {
	graphListCmd.Flags().String("kind", "", "Only show relations of this kind (prerequisite_for or related_to)")

	graphCmd.AddCommand(graphListCmd)
}
