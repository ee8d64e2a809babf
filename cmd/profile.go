package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/abhisek/sprachiz/internal/difficulty"
	"github.com/abhisek/sprachiz/internal/lessons"
	"github.com/abhisek/sprachiz/internal/profile"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show and edit the learner profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the learner profile and per-theme progress",
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
		printProfile(p)

		achievements, err := d.lessons.Achievements(cmd.Context(), d.learner)
		if err != nil {
			return err
		}
		earned := lo.FilterMap(achievements, func(a lessons.Achievement, _ int) (string, bool) {
			return a.Name, a.Earned()
		})
		badges := fmt.Sprintf("%d/%d", len(earned), len(achievements))
		if len(earned) > 0 {
			badges += "  " + strings.Join(earned, ", ")
		}
		printField("Badges", badges)

		progress, err := d.profiles.ThemeProgress(cmd.Context(), d.learner)
		if err != nil {
			return err
		}
		if len(progress) == 0 {
			return nil
		}
		fmt.Println()
		t := newTable("Theme", "Conversations", "Messages", "Accuracy", "Time")
		for _, tp := range progress {
			t.Row(
				tp.ThemeID,
				fmt.Sprint(tp.Conversations),
				fmt.Sprint(tp.TotalMessages),
				fmt.Sprintf("%.0f%%", tp.Accuracy()),
				tp.TotalTime.Round(time.Second).String(),
			)
		}
		printTable(t)
		return nil
	},
}

var profileSetLevelCmd = &cobra.Command{
	Use:   "set-level <A1|A2|B1|B2|C1|C2>",
	Short: "Set the CEFR level",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := difficulty.ParseLevel(args[0])
		if err != nil {
			return err
		}
		return updateProfile(cmd, func(d *deps, now time.Time) (*profile.Profile, error) {
			return d.profiles.SetLevel(cmd.Context(), d.learner, level, now)
		})
	},
}

var profileSetPreferenceCmd = &cobra.Command{
	Use:   "set-preference <simple|moderate|complex|auto>",
	Short: "Set the complexity preference",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pref, err := difficulty.ParsePreference(args[0])
		if err != nil {
			return err
		}
		return updateProfile(cmd, func(d *deps, now time.Time) (*profile.Profile, error) {
			return d.profiles.SetPreference(cmd.Context(), d.learner, pref, now)
		})
	},
}

var profileSetNameCmd = &cobra.Command{
	Use:   "set-name <name>",
	Short: "Set the display name used in reminders",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateProfile(cmd, func(d *deps, now time.Time) (*profile.Profile, error) {
			return d.profiles.SetDisplayName(cmd.Context(), d.learner, args[0], now)
		})
	},
}

var profileLinkTelegramCmd = &cobra.Command{
	Use:   "link-telegram <chat-id>",
	Short: "Send review reminders to a Telegram chat (0 unlinks)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		chatID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid chat ID %q: %w", args[0], err)
		}
		return updateProfile(cmd, func(d *deps, now time.Time) (*profile.Profile, error) {
			return d.profiles.LinkTelegram(cmd.Context(), d.learner, chatID, now)
		})
	},
}

var profileRecordConversationCmd = &cobra.Command{
	Use:   "record-conversation",
	Short: "Record a finished conversation and update the rolling accuracy",
	RunE: func(cmd *cobra.Command, args []string) error {
		themeID, _ := cmd.Flags().GetString("theme")
		messages, _ := cmd.Flags().GetInt("messages")
		correct, _ := cmd.Flags().GetInt("correct")
		duration, _ := cmd.Flags().GetDuration("duration")
		xp, _ := cmd.Flags().GetInt("xp")

		return updateProfile(cmd, func(d *deps, now time.Time) (*profile.Profile, error) {
			return d.profiles.RecordConversation(cmd.Context(), profile.Conversation{
				LearnerID:       d.learner,
				ThemeID:         themeID,
				Messages:        messages,
				CorrectMessages: correct,
				Duration:        duration,
				XP:              xp,
			}, now)
		})
	},
}

// updateProfile ensures the profile exists, applies fn and prints the result.
func updateProfile(cmd *cobra.Command, fn func(d *deps, now time.Time) (*profile.Profile, error)) error {
	d, err := setup(cmd)
	if err != nil {
		return err
	}
	defer d.close()

	if _, err := d.profile(cmd); err != nil {
		return err
	}
	p, err := fn(d, time.Now())
	if err != nil {
		return err
	}
	printProfile(p)
	return nil
}

func printProfile(p *profile.Profile) {
	printTitle("Learner " + p.LearnerID)
	if p.DisplayName != "" {
		printField("Name", p.DisplayName)
	}
	printField("Level", p.Level)
	printField("Preference", p.Preference)
	printField("Accuracy", fmt.Sprintf("%.1f%%", p.RollingAccuracy))
	printField("Vocabulary", p.VocabularySize)
	printField("XP", p.TotalXP)
	if p.TelegramChatID != 0 {
		printField("Telegram", p.TelegramChatID)
	}
}

func init() {
	f := profileRecordConversationCmd.Flags()
	f.String("theme", "", "Theme ID of the conversation")
	f.Int("messages", 0, "Number of learner messages")
	f.Int("correct", 0, "Number of messages without errors")
	f.Duration("duration", 0, "Conversation length, e.g. 12m")
	f.Int("xp", 0, "XP earned")
	_ = profileRecordConversationCmd.MarkFlagRequired("theme")
	_ = profileRecordConversationCmd.MarkFlagRequired("messages")

	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetLevelCmd)
	profileCmd.AddCommand(profileSetPreferenceCmd)
	profileCmd.AddCommand(profileSetNameCmd)
	profileCmd.AddCommand(profileLinkTelegramCmd)
	profileCmd.AddCommand(profileRecordConversationCmd)
}
