package cmd

import (
	"fmt"
	"os"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/sprachiz/internal/importer"
	"github.com/abhisek/sprachiz/internal/spacedrep"
	"github.com/abhisek/sprachiz/internal/ui/theme"
)

var vocabCmd = &cobra.Command{
	Use:   "vocab",
	Short: "Manage vocabulary and spaced-repetition reviews",
}

var vocabAddCmd = &cobra.Command{
	Use:   "add <source> <target>",
	Short: "Add a word, e.g. vocab add coffee \"der Kaffee\"",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup(cmd)
		if err != nil {
			return err
		}
		defer d.close()
		if _, err := d.profile(cmd); err != nil {
			return err
		}

		contextSentence, _ := cmd.Flags().GetString("context")
		themeID, _ := cmd.Flags().GetString("theme")
		diff, _ := cmd.Flags().GetString("difficulty")

		now := time.Now()
		item, err := d.vocab.Add(cmd.Context(), spacedrep.NewItem{
			LearnerID:       d.learner,
			SourceTerm:      args[0],
			TargetTerm:      args[1],
			ContextSentence: contextSentence,
			ThemeID:         themeID,
			Difficulty:      spacedrep.Difficulty(diff),
		}, now)
		if err != nil {
			return err
		}
		if _, err := d.profiles.RefreshVocabularySize(cmd.Context(), d.learner, now); err != nil {
			return err
		}
		printSuccess("Added %s = %s (%s)", item.SourceTerm, item.TargetTerm, item.ID)
		return nil
	},
}

var vocabListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all words",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup(cmd)
		if err != nil {
			return err
		}
		defer d.close()

		items, err := d.vocab.List(cmd.Context(), d.learner)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("No words yet. Add one with `sprachiz vocab add`.")
			return nil
		}
		printItems(items, time.Now())
		return nil
	},
}

var vocabDueCmd = &cobra.Command{
	Use:   "due",
	Short: "List words due for review",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup(cmd)
		if err != nil {
			return err
		}
		defer d.close()

		now := time.Now()
		items, err := d.vocab.Due(cmd.Context(), d.learner, now)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("Nothing is due.")
			return nil
		}
		printItems(items, now)
		printHint(fmt.Sprintf("%d due. Run `sprachiz flashcards` to review.", len(items)))
		return nil
	},
}

var vocabReviewCmd = &cobra.Command{
	Use:   "review <id> <correct|wrong>",
	Short: "Record a review outcome for one word",
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

		res, err := d.vocab.Review(cmd.Context(), d.learner, args[0], correct, time.Now())
		if err != nil {
			return err
		}
		mark := theme.Incorrect.Render("✗")
		if res.Correct {
			mark = theme.Correct.Render("✓")
		}
		lipgloss.Printf("%s %s  next review in %d day(s), %d/%d correct\n",
			mark, res.Item.TargetTerm, res.IntervalDays, res.Item.TimesCorrect, res.Item.TimesReviewed)
		return nil
	},
}

var vocabRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Delete a word",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup(cmd)
		if err != nil {
			return err
		}
		defer d.close()

		if err := d.vocab.Remove(cmd.Context(), d.learner, args[0]); err != nil {
			return err
		}
		if _, err := d.profiles.RefreshVocabularySize(cmd.Context(), d.learner, time.Now()); err != nil {
			return err
		}
		printSuccess("Removed %s", args[0])
		return nil
	},
}

var vocabImportCmd = &cobra.Command{
	Use:   "import <file.xlsx>",
	Short: "Import words from a spreadsheet (source, target, context, difficulty, theme)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sheet, _ := cmd.Flags().GetString("sheet")

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		rows, rowErrs, err := importer.ReadVocabulary(f, sheet)
		if err != nil {
			return err
		}

		d, err := setup(cmd)
		if err != nil {
			return err
		}
		defer d.close()
		if _, err := d.profile(cmd); err != nil {
			return err
		}

		now := time.Now()
		res, err := importer.Import(cmd.Context(), d.vocab, d.learner, rows, now, d.log)
		if err != nil {
			return err
		}
		if _, err := d.profiles.RefreshVocabularySize(cmd.Context(), d.learner, now); err != nil {
			return err
		}

		printSuccess("Imported %d word(s), skipped %d duplicate(s)", res.Created, res.Duplicates)
		for _, re := range append(rowErrs, res.Errors...) {
			lipgloss.Println(theme.Incorrect.Render("  " + re.Error()))
		}
		return nil
	},
}

func printItems(items []spacedrep.Item, now time.Time) {
	t := newTable("ID", "German", "English", "Level", "Reviews", "Next review")
	for _, it := range items {
		next := "due"
		if !it.IsDue(now) {
			next = fmt.Sprintf("in %dd", it.DaysUntilReview(now))
		}
		t.Row(
			it.ID,
			it.TargetTerm,
			it.SourceTerm,
			string(it.Difficulty),
			fmt.Sprintf("%d/%d", it.TimesCorrect, it.TimesReviewed),
			next,
		)
	}
	printTable(t)
}

func init() {
	vocabAddCmd.Flags().StringP("context", "c", "", "Example sentence using the word")
	vocabAddCmd.Flags().StringP("theme", "t", "", "Theme ID, e.g. coffee-shop")
	vocabAddCmd.Flags().StringP("difficulty", "d", string(spacedrep.DifficultyBeginner), "beginner, intermediate or advanced")
	vocabImportCmd.Flags().String("sheet", "", "Worksheet name (default: first sheet)")

	vocabCmd.AddCommand(vocabAddCmd)
	vocabCmd.AddCommand(vocabListCmd)
	vocabCmd.AddCommand(vocabDueCmd)
	vocabCmd.AddCommand(vocabReviewCmd)
	vocabCmd.AddCommand(vocabRemoveCmd)
	vocabCmd.AddCommand(vocabImportCmd)
}
