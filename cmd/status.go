package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/kgtutor/internal/ui/report"
)

var statusCmd = &cobra.Command{
	Use:   "status [student]",
	Short: "Show a learner's progress, or list learners",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openTutor(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if len(args) == 0 {
			ids, err := e.tutor.Learners(ctx)
			if err != nil {
				return err
			}
			if wantJSON(cmd) {
				return writeJSON(out, ids)
			}
			if len(ids) == 0 {
				fmt.Fprintln(out, "No learners yet.")
			}
			for _, id := range ids {
				fmt.Fprintln(out, id)
			}
			return nil
		}

		sum, err := e.tutor.Status(ctx, args[0])
		if err != nil {
			return err
		}
		if wantJSON(cmd) {
			return writeJSON(out, sum)
		}
		st, err := e.tutor.State(ctx, args[0])
		if err != nil {
			return err
		}
		t := e.cfg.Tuning
		report.Status(out, st, sum, t.Recommend.MasteryThreshold, t.Diagnosis.Threshold)
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset <student>",
	Short: "Delete a learner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openTutor(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.tutor.Remove(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
		return nil
	},
}
