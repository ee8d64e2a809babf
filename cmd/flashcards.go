package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/sprachiz/internal/app"
	"github.com/abhisek/sprachiz/internal/screens/flashcards"
)

var flashcardsCmd = &cobra.Command{
	Use:     "flashcards",
	Aliases: []string{"cards"},
	Short:   "Review due vocabulary as flashcards",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFlashcards(cmd)
	},
}

func runFlashcards(cmd *cobra.Command) error {
	d, err := setup(cmd)
	if err != nil {
		return err
	}
	defer d.close()

	p, err := d.profile(cmd)
	if err != nil {
		return err
	}

	screen := flashcards.New(cmd.Context(), d.vocab, d.learner)
	if err := app.Run(screen, fmt.Sprintf("%d XP", p.TotalXP)); err != nil {
		return err
	}
	if screen.Reviewed() > 0 {
		printSuccess("Reviewed %d word(s), %d correct", screen.Reviewed(), screen.Correct())
	}
	return nil
}
