package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/sprachiz/internal/reminder"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Notify learners with due reviews",
	Long: "Runs the review reminder job on the configured cron schedule until interrupted.\n" +
		"With --once a single sweep runs immediately. Notices go to Telegram when a bot token\n" +
		"is configured and the learner linked a chat, and to the log otherwise.",
	RunE: func(cmd *cobra.Command, args []string) error {
		once, _ := cmd.Flags().GetBool("once")

		d, err := setup(cmd)
		if err != nil {
			return err
		}
		defer d.close()

		rc := d.cfg.Reminder
		var notifier reminder.Notifier = reminder.NewLogNotifier(d.log)
		if rc.TelegramToken != "" {
			tg, err := reminder.NewTelegramNotifier(rc.TelegramToken)
			if err != nil {
				return fmt.Errorf("telegram: %w", err)
			}
			notifier = reminder.Fallback{Primary: tg, Secondary: notifier}
		}
		quiet := reminder.QuietHours{Start: rc.QuietStart, End: rc.QuietEnd}
		sweeper := reminder.NewSweeper(d.profiles, d.vocab, notifier, quiet, rc.Concurrency, d.log)

		if once {
			sum, err := sweeper.Sweep(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			if sum.Quiet {
				printHint(fmt.Sprintf("Quiet hours (%02d:00-%02d:00), no reminders sent.", quiet.Start, quiet.End))
				return nil
			}
			printField("Learners", sum.Learners)
			printField("Notified", sum.Notified)
			printField("Unreachable", sum.Skipped)
			printField("Failed", sum.Failed)
			printField("Due items", sum.DueItems)
			return nil
		}

		sched, err := reminder.NewScheduler(rc.Schedule, sweeper, d.log)
		if err != nil {
			return err
		}
		if err := sched.Start(cmd.Context()); err != nil {
			return err
		}
		printHint(fmt.Sprintf("Reminders scheduled (%s). Press Ctrl+C to stop.", rc.Schedule))
		<-cmd.Context().Done()
		sched.Stop()
		return nil
	},
}

func init() {
	remindCmd.Flags().Bool("once", false, "Run a single sweep and exit")
}
