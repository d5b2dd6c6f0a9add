package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/kgtutor/internal/ui/report"
)

var weakCmd = &cobra.Command{
	Use:   "weak <student>",
	Short: "Show weak knowledge points and study advice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		threshold, _ := cmd.Flags().GetFloat64("threshold")

		e, err := openTutor(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		r, err := e.tutor.WeakPoints(cmd.Context(), args[0], threshold)
		if err != nil {
			return err
		}
		if wantJSON(cmd) {
			return writeJSON(cmd.OutOrStdout(), r)
		}
		report.Weak(cmd.OutOrStdout(), r)
		return nil
	},
}

func init() {
	weakCmd.Flags().Float64("threshold", 0, "Mastery below which a point is weak (default: configured threshold)")
}
