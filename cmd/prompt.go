package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/sprachiz/internal/dialogue"
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the difficulty instructions sent to the tutor",
	Long: "Print the difficulty instructions built from the learner's level, rolling accuracy,\n" +
		"complexity preference and weak topics. With --theme, print the full tutor system prompt.",
	RunE: func(cmd *cobra.Command, args []string) error {
		themeID, _ := cmd.Flags().GetString("theme")
		modeName, _ := cmd.Flags().GetString("mode")

		d, err := setup(cmd)
		if err != nil {
			return err
		}
		defer d.close()

		p, instructions, err := d.instructions(cmd)
		if err != nil {
			return err
		}
		if themeID == "" {
			fmt.Println(instructions)
			return nil
		}

		theme, ok := dialogue.DefaultThemes().Get(themeID)
		if !ok {
			return fmt.Errorf("unknown theme %q", themeID)
		}
		mode, err := dialogue.ParseMode(modeName)
		if err != nil {
			return err
		}
		if mode == dialogue.ModeGuided {
			return fmt.Errorf("guided prompts depend on a lesson step; use practice or challenge")
		}
		system, err := dialogue.SystemPrompt(dialogue.Request{
			Mode:         mode,
			Theme:        theme,
			Level:        p.Level,
			Instructions: instructions,
		})
		if err != nil {
			return err
		}
		fmt.Println(system)
		return nil
	},
}

func init() {
	promptCmd.Flags().StringP("theme", "t", "", "Theme ID to render the full system prompt for")
	promptCmd.Flags().StringP("mode", "m", string(dialogue.ModePractice), "practice or challenge")
}
