package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kgtutor",
	Short: "Adaptive practice over a knowledge graph",
	Long: `kgtutor recommends multiple-choice questions from a knowledge graph with
concept embeddings, tracks each learner's mastery as answers come in, finds
weak points and brings missed questions back as memory fades.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to YAML config file (overrides KGTUTOR_CONFIG env var)")
	pf.String("db", "", "Path to SQLite database file (overrides KGTUTOR_DB env var)")
	pf.String("data", "", "Directory holding embeddings.csv, knowledge_graph.csv and question_bank.json (default: bundled sample)")
	pf.String("store", "", "Learner store backend: sqlite, redis or memory")
	pf.String("log-mode", "", "Log mode: dev or prod")
	pf.Bool("json", false, "Print JSON instead of styled text")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(answerCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(weakCmd)
	rootCmd.AddCommand(decayCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}
