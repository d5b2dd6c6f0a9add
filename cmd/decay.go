package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/kgtutor/internal/ui/report"
)

var decayCmd = &cobra.Command{
	Use:   "decay [student]",
	Short: "Apply the forgetting curve up to now",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		workers, _ := cmd.Flags().GetInt("workers")
		if all == (len(args) == 1) {
			return fmt.Errorf("give a student or --all")
		}

		e, err := openTutor(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		out := cmd.OutOrStdout()

		if all {
			changed, err := e.tutor.DecayAll(cmd.Context(), workers)
			if err != nil {
				return err
			}
			if wantJSON(cmd) {
				return writeJSON(out, changed)
			}
			fmt.Fprintf(out, "decayed %d learners\n", len(changed))
			return nil
		}

		changes, err := e.tutor.Decay(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if wantJSON(cmd) {
			return writeJSON(out, changes)
		}
		report.Changes(out, changes, e.data.Graph)
		return nil
	},
}

var reviewCmd = &cobra.Command{
	Use:   "review <student>",
	Short: "List missed questions due for review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openTutor(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		cands, err := e.tutor.ReviewCandidates(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if wantJSON(cmd) {
			return writeJSON(cmd.OutOrStdout(), cands)
		}
		report.Candidates(cmd.OutOrStdout(), cands)
		return nil
	},
}

func init() {
	decayCmd.Flags().Bool("all", false, "Decay every stored learner")
	decayCmd.Flags().Int("workers", 4, "Learners decayed in parallel with --all")
}
