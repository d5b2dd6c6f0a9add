package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/kgtutor/internal/mastery"
	"github.com/abhisek/kgtutor/internal/ui/report"
)

func parseAnswers(args []string) ([]mastery.Answer, error) {
	answers := make([]mastery.Answer, len(args))
	for i, a := range args {
		parsed, err := mastery.ParseAnswer(a)
		if err != nil {
			return nil, err
		}
		answers[i] = parsed
	}
	return answers, nil
}

var answerCmd = &cobra.Command{
	Use:   "answer <student> <QID=OPTION>...",
	Short: "Submit answers and update the learner",
	Example: `  kgtutor answer alice Q1=C Q4=B
  kgtutor answer alice "Q6={3,4}"`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		answers, err := parseAnswers(args[1:])
		if err != nil {
			return err
		}

		e, err := openTutor(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		results, _, err := e.tutor.Submit(cmd.Context(), args[0], answers)
		if err != nil {
			return err
		}
		if wantJSON(cmd) {
			return writeJSON(cmd.OutOrStdout(), results)
		}
		report.Results(cmd.OutOrStdout(), results)
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <QID=OPTION>...",
	Short: "Grade answers without recording them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		answers, err := parseAnswers(args)
		if err != nil {
			return err
		}

		e, err := openData(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		u := mastery.NewUpdater(e.data.Graph, e.data.Bank, e.cfg.Tuning.Mastery, e.log)
		r := u.Check(answers)
		if wantJSON(cmd) {
			return writeJSON(cmd.OutOrStdout(), r)
		}
		report.Check(cmd.OutOrStdout(), r)
		return nil
	},
}
