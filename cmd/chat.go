package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/sprachiz/internal/dialogue"
	"github.com/abhisek/sprachiz/internal/lessons"
	"github.com/abhisek/sprachiz/internal/practice"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Practice a conversation with the AI tutor",
	Long: "Chat with the tutor in one of the conversation themes, or work through a lesson\n" +
		"with --lesson. Type /quit to stop; /done moves on within a lesson.",
	RunE: func(cmd *cobra.Command, args []string) error {
		themeID, _ := cmd.Flags().GetString("theme")
		modeFlag, _ := cmd.Flags().GetString("mode")
		lessonID, _ := cmd.Flags().GetString("lesson")

		mode, err := dialogue.ParseMode(modeFlag)
		if err != nil {
			return err
		}
		themes := dialogue.DefaultThemes()
		theme, ok := themes.Get(themeID)
		if lessonID == "" && !ok {
			return fmt.Errorf("unknown theme %q (available: %s)", themeID, strings.Join(themes.IDs(), ", "))
		}

		d, err := setup(cmd)
		if err != nil {
			return err
		}
		defer d.close()

		provider, err := d.provider(cmd)
		if err != nil {
			return err
		}
		p, err := d.profile(cmd)
		if err != nil {
			return err
		}
		instructions, weak, err := d.instructionsFor(cmd.Context(), p)
		if err != nil {
			return err
		}

		tutorCfg := dialogue.DefaultTutorConfig()
		if d.cfg.LLM.MaxTokens > 0 {
			tutorCfg.MaxTokens = d.cfg.LLM.MaxTokens
		}
		coach := practice.New(practice.Options{
			Tutor:        dialogue.NewTutor(provider, tutorCfg, d.log),
			Topics:       d.topics,
			Profiles:     d.profiles,
			Lessons:      d.lessons,
			Vocab:        d.vocab,
			Reflector:    lessons.NewReflector(provider, lessons.DefaultReflectionConfig()),
			Instructions: d.liveInstructions,
			Themes:       themes,
			In:           os.Stdin,
			Out:          os.Stdout,
			Log:          d.log,
		})
		learner := practice.Learner{
			ID:           d.learner,
			Level:        p.Level,
			Instructions: instructions,
			WeakTopics:   weak,
		}

		if lessonID != "" {
			_, err := coach.RunLesson(cmd.Context(), learner, lessonID)
			return err
		}
		_, err = coach.Chat(cmd.Context(), learner, theme, mode)
		return err
	},
}

func init() {
	chatCmd.Flags().StringP("theme", "t", "coffee-shop", "Conversation theme")
	chatCmd.Flags().StringP("mode", "m", string(dialogue.ModePractice), "Dialogue mode: practice or challenge")
	chatCmd.Flags().String("lesson", "", "Work through a lesson instead of a free chat")
}
