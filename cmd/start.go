package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/kgtutor/internal/session"
	"github.com/abhisek/kgtutor/internal/ui/theme"
)

var startCmd = &cobra.Command{
	Use:   "start <student>",
	Short: "Start a learner, optionally seeded with known mastery",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetStringToString("mastery")
		reset, _ := cmd.Flags().GetBool("reset")
		resume, _ := cmd.Flags().GetBool("resume")
		if reset && resume {
			return fmt.Errorf("use --reset or --resume, not both")
		}

		initial := make(map[string]float64, len(raw))
		for id, v := range raw {
			m, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("mastery of %s: %q is not a number", id, v)
			}
			initial[id] = m
		}

		policy := session.RejectExisting
		switch {
		case reset:
			policy = session.ResetExisting
		case resume:
			policy = session.ResumeExisting
		}

		e, err := openTutor(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		res, err := e.tutor.StartSession(cmd.Context(), args[0], initial, policy)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if wantJSON(cmd) {
			return writeJSON(out, map[string]any{
				"session_id": res.SessionID,
				"student_id": res.State.StudentID,
				"resumed":    res.Resumed,
				"skipped":    res.Skipped,
			})
		}
		verb := "Started"
		if res.Resumed {
			verb = "Resumed"
		}
		fmt.Fprintln(out, theme.Title.Render(fmt.Sprintf("%s %s", verb, res.State.StudentID)))
		fmt.Fprintln(out, theme.Hint.Render("session "+res.SessionID))
		for _, id := range res.Skipped {
			fmt.Fprintln(out, theme.Skipped.Render("skipped unknown knowledge point "+id))
		}
		return nil
	},
}

func init() {
	startCmd.Flags().StringToString("mastery", nil, "Initial mastery, e.g. K1=0.4,K2=0.7")
	startCmd.Flags().Bool("reset", false, "Replace an existing learner")
	startCmd.Flags().Bool("resume", false, "Keep an existing learner (after a decay pass)")
}
