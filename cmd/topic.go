package cmd

import (
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/sprachiz/internal/ui/theme"
)

var topicCmd = &cobra.Command{
	Use:   "topic",
	Short: "Track grammar topic mastery",
}

var topicRecordCmd = &cobra.Command{
	Use:   "record <topic> <correct|wrong>",
	Short: "Record one use of a grammar topic",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		correct, err := parseOutcome(args[1])
		if err != nil {
			return err
		}

		d, err := setup(cmd)
		if err != nil {
			return err
		}
		defer d.close()

		tm, tr, err := d.topics.RecordUse(cmd.Context(), d.learner, args[0], correct, time.Now())
		if err != nil {
			return err
		}
		lipgloss.Printf("%s %s  %d correct / %d incorrect\n",
			tm.Tier.Icon(), theme.Badge(string(tm.Tier)), tm.CorrectUses, tm.IncorrectUses)
		if tr != nil {
			verb := "dropped"
			if tr.Promoted() {
				verb = "reached"
			}
			printSuccess("%s %s %s", tm.Topic, verb, tr.To.Label())
		}
		return nil
	},
}

var topicListCmd = &cobra.Command{
	Use:   "list",
	Short: "List grammar topics with their mastery tier",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup(cmd)
		if err != nil {
			return err
		}
		defer d.close()

		topics, err := d.topics.List(cmd.Context(), d.learner)
		if err != nil {
			return err
		}
		if len(topics) == 0 {
			fmt.Println("No topics practiced yet.")
			return nil
		}

		t := newTable("Topic", "Tier", "Correct", "Incorrect", "Accuracy", "Last practiced")
		for _, tm := range topics {
			name := tm.Topic
			if tm.IsWeak() {
				name += " (weak)"
			}
			t.Row(
				name,
				tm.Tier.Icon()+" "+tm.Tier.Label(),
				fmt.Sprint(tm.CorrectUses),
				fmt.Sprint(tm.IncorrectUses),
				fmt.Sprintf("%.0f%%", tm.Accuracy()*100),
				formatDate(tm.LastPracticedAt),
			)
		}
		printTable(t)
		return nil
	},
}

func parseOutcome(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "correct", "c", "yes", "y":
		return true, nil
	case "wrong", "w", "no", "n":
		return false, nil
	default:
		return false, fmt.Errorf("outcome must be correct or wrong, got %q", s)
	}
}

func init() {
	topicCmd.AddCommand(topicRecordCmd)
	topicCmd.AddCommand(topicListCmd)
}
