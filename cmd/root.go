package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sprachiz",
	Short: "Adaptive German tutor for the terminal",
	Long: "Sprachiz keeps your German vocabulary on a spaced-repetition schedule, tracks grammar\n" +
		"mastery, walks you through five-stage lessons and practices conversations with an AI tutor.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFlashcards(cmd)
	},
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides SPRACHIZ_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default ./sprachiz.yaml)")
	rootCmd.PersistentFlags().StringP("learner", "l", "default", "Learner ID")

	rootCmd.AddCommand(vocabCmd)
	rootCmd.AddCommand(topicCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(lessonCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(flashcardsCmd)
	rootCmd.AddCommand(remindCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}
