package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/abhisek/sprachiz/internal/difficulty"
	"github.com/abhisek/sprachiz/internal/lessons"
	"github.com/abhisek/sprachiz/internal/ui/components"
	"github.com/abhisek/sprachiz/internal/ui/theme"
)

var lessonCmd = &cobra.Command{
	Use:   "lesson",
	Short: "Browse lessons and move through their five stages",
}

var lessonListCmd = &cobra.Command{
	Use:   "list",
	Short: "List lessons with your progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		levelFlag, _ := cmd.Flags().GetString("level")

		d, err := setup(cmd)
		if err != nil {
			return err
		}
		defer d.close()

		catalog := d.lessons.Catalog()
		all := catalog.All()
		if levelFlag != "" {
			level, err := difficulty.ParseLevel(levelFlag)
			if err != nil {
				return err
			}
			all = catalog.ByLevel(level)
		}

		attempts, err := d.lessons.List(cmd.Context(), d.learner)
		if err != nil {
			return err
		}
		byLesson := lo.KeyBy(attempts, func(a lessons.Attempt) string { return a.LessonID })

		t := newTable("ID", "Level", "Title", "Theme", "Status", "Best")
		for _, l := range all {
			status, best := string(lessons.StatusNotStarted), "-"
			if a, ok := byLesson[l.ID]; ok {
				status = string(a.Status)
				if a.BestScore > 0 {
					best = fmt.Sprintf("%.0f", a.BestScore)
				}
			}
			t.Row(l.ID, string(l.Level), l.Title, l.ThemeID, status, best)
		}
		printTable(t)
		return nil
	},
}

var lessonRecommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Suggest the next lessons at your level",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup(cmd)
		if err != nil {
			return err
		}
		defer d.close()

		p, err := d.profile(cmd)
		if err != nil {
			return err
		}
		recs, err := d.lessons.Recommend(cmd.Context(), d.learner, p.Level)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Printf("You finished every %s lesson. Try `sprachiz profile set-level`.\n", p.Level)
			return nil
		}
		printTitle(fmt.Sprintf("Next lessons for %s", p.Level))
		for _, l := range recs {
			lipgloss.Printf("  %s  %s\n", theme.Body.Bold(true).Render(l.ID), l.Title)
			printHint("      " + l.Description)
		}
		return nil
	},
}

var lessonStartCmd = &cobra.Command{
	Use:   "start <lesson-id>",
	Short: "Open a lesson, resuming where you left off",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		restart, _ := cmd.Flags().GetBool("restart")

		d, err := setup(cmd)
		if err != nil {
			return err
		}
		defer d.close()
		if _, err := d.profile(cmd); err != nil {
			return err
		}

		start := d.lessons.Start
		if restart {
			start = d.lessons.Restart
		}
		a, err := start(cmd.Context(), d.learner, args[0], time.Now())
		if err != nil {
			return err
		}
		printAttempt(a)
		return nil
	},
}

var lessonCompleteCmd = &cobra.Command{
	Use:   "complete <lesson-id> <stage>",
	Short: "Mark the current stage complete",
	Long: `Mark the current stage complete.

The challenge stage is scored from its exchanges. Pass the tutor's quality
(0-10) for each exchange with --exchange; at least 3 are required.`,
	Example: "  sprachiz lesson complete lesson-A1-1 challenge --exchange 7,8,6",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		stage, err := lessons.ParseStage(args[1])
		if err != nil {
			return err
		}
		completion := lessons.StageCompletion{Stage: stage}
		if stage == lessons.StageChallenge {
			qualities, _ := cmd.Flags().GetIntSlice("exchange")
			if completion, err = lessons.ReplayChallenge(qualities); err != nil {
				return err
			}
		}

		d, err := setup(cmd)
		if err != nil {
			return err
		}
		defer d.close()

		a, xp, err := d.lessons.CompleteStage(cmd.Context(), d.learner, args[0], completion, time.Now())
		if err != nil {
			return err
		}
		if xp > 0 {
			printSuccess("%s complete, +%d XP", stage.Label(), xp)
		}
		printAttempt(a)
		return nil
	},
}

var lessonGotoCmd = &cobra.Command{
	Use:   "goto <lesson-id> <stage>",
	Short: "Go back to a completed stage or the current one",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		stage, err := lessons.ParseStage(args[1])
		if err != nil {
			return err
		}

		d, err := setup(cmd)
		if err != nil {
			return err
		}
		defer d.close()

		a, err := d.lessons.GoTo(cmd.Context(), d.learner, args[0], stage, time.Now())
		if err != nil {
			return err
		}
		printAttempt(a)
		return nil
	},
}

var lessonFinishCmd = &cobra.Command{
	Use:   "finish <lesson-id>",
	Short: "Score the current pass",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup(cmd)
		if err != nil {
			return err
		}
		defer d.close()

		out, err := d.lessons.Finish(cmd.Context(), d.learner, args[0], time.Now())
		if err != nil {
			return err
		}
		printFinish(out)
		return nil
	},
}

var lessonShowCmd = &cobra.Command{
	Use:   "show <lesson-id>",
	Short: "Show a lesson and your attempt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup(cmd)
		if err != nil {
			return err
		}
		defer d.close()

		l, err := d.lessons.Catalog().Get(args[0])
		if err != nil {
			return err
		}
		printTitle(fmt.Sprintf("%s  %s", l.Title, theme.Subtitle.Render(string(l.Level))))
		fmt.Println(strings.TrimSpace(l.Scenario))
		fmt.Println()
		printField("Theme", l.ThemeID)
		printField("Grammar", strings.Join(l.GrammarTopics, ", "))
		printField("XP reward", l.XPReward)
		fmt.Println()
		for _, kp := range l.KeyPhrases {
			lipgloss.Printf("  %s  %s\n", theme.Body.Bold(true).Render(kp.German), theme.Subtitle.Render(kp.English))
		}
		for _, o := range l.Objectives {
			printHint("  • " + o)
		}

		a, err := d.lessons.Get(cmd.Context(), d.learner, l.ID)
		if errors.Is(err, lessons.ErrAttemptNotFound) {
			fmt.Println()
			printHint(fmt.Sprintf("Not started. Run `sprachiz lesson start %s`.", l.ID))
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Println()
		printAttempt(a)
		return nil
	},
}

func printAttempt(a *lessons.Attempt) {
	lipgloss.Println(components.StageTrack{Attempt: a}.View())
	lipgloss.Println(components.NewProgressBar("Progress", len(a.CompletedStages), lessons.NumStages, true, 50).View())
	printField("Status", theme.Badge(string(a.Status)))
	printField("Stage", a.CurrentStage.Label())
	if a.IsCompleted(lessons.StageChallenge) {
		printField("Challenge", fmt.Sprintf("%d/100", a.ChallengeScore))
	}
	printField("XP", a.XP)
	printField("Attempts", a.Attempts)
	if a.BestScore > 0 {
		printField("Best score", fmt.Sprintf("%.0f", a.BestScore))
	}
}

func printFinish(out *lessons.FinishOutcome) {
	r := out.Result
	printTitle(fmt.Sprintf("Score %.0f/100", r.Score))
	fmt.Println(r.Message)
	printField("Status", theme.Badge(string(r.Status)))
	if xp := out.TotalXP(); xp > 0 {
		printSuccess("+%d XP", xp)
	}
	if !r.Status.Finished() {
		printHint("Complete more stages and finish again to pass the lesson.")
	}
}

func init() {
	lessonListCmd.Flags().String("level", "", "Only show lessons at this CEFR level")
	lessonStartCmd.Flags().Bool("restart", false, "Start a fresh pass through the lesson")
	lessonCompleteCmd.Flags().IntSlice("exchange", nil, "Quality (0-10) of each challenge exchange")

	lessonCmd.AddCommand(lessonListCmd)
	lessonCmd.AddCommand(lessonRecommendCmd)
	lessonCmd.AddCommand(lessonStartCmd)
	lessonCmd.AddCommand(lessonCompleteCmd)
	lessonCmd.AddCommand(lessonGotoCmd)
	lessonCmd.AddCommand(lessonFinishCmd)
	lessonCmd.AddCommand(lessonShowCmd)
}
