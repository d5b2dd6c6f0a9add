package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/kgtutor/internal/knowledge"
	"github.com/abhisek/kgtutor/internal/ui/report"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and check the knowledge graph, embeddings and question bank",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openData(cmd)
		if err != nil {
			var die *knowledge.DataIntegrityError
			if errors.As(err, &die) {
				report.Problems(cmd.ErrOrStderr(), die)
				return fmt.Errorf("%s is invalid", die.Source)
			}
			return err
		}
		defer e.Close()

		g := e.data.Graph
		out := cmd.OutOrStdout()
		if wantJSON(cmd) {
			return writeJSON(out, map[string]any{
				"knowledge_points": g.Len(),
				"relations":        len(g.Relations()),
				"questions":        e.data.Bank.Len(),
				"dim":              g.Dim(),
				"foundational":     g.Foundational(),
			})
		}
		fmt.Fprintf(out, "%d knowledge points, %d relations, %d questions, %d dimensions\n",
			g.Len(), len(g.Relations()), e.data.Bank.Len(), g.Dim())
		fmt.Fprintf(out, "foundational: %s\n", strings.Join(g.Foundational(), ", "))
		return nil
	},
}
