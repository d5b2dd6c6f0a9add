package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/abhisek/kgtutor/internal/recommend"
	"github.com/abhisek/kgtutor/internal/ui/report"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend <student>",
	Short: "Recommend the next batch of questions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("count")

		e, err := openTutor(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		batch, err := e.tutor.Recommend(cmd.Context(), args[0], n)
		if err != nil && !errors.Is(err, recommend.ErrNoQuestionsAvailable) {
			return err
		}
		if wantJSON(cmd) {
			if jerr := writeJSON(cmd.OutOrStdout(), batch); jerr != nil {
				return jerr
			}
		} else {
			report.Batch(cmd.OutOrStdout(), batch)
		}
		return err
	},
}

func init() {
	recommendCmd.Flags().IntP("count", "n", 0, "Number of questions (default: configured batch size)")
}
