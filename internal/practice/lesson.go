package practice

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/sprachiz/internal/dialogue"
	"github.com/abhisek/sprachiz/internal/difficulty"
	"github.com/abhisek/sprachiz/internal/lessons"
	"github.com/abhisek/sprachiz/internal/spacedrep"
)

// MinFreePracticeMessages is the number of messages the free practice stage
// needs before the learner may move on.
const MinFreePracticeMessages = 3

// RunLesson starts or resumes a lesson and walks the learner through its
// stages from the current one. It returns the finish outcome, or nil when
// the learner stopped early; progress up to the last completed stage is
// kept either way.
func (c *Coach) RunLesson(ctx context.Context, l Learner, lessonID string) (*lessons.FinishOutcome, error) {
	lesson, err := c.opts.Lessons.Catalog().Get(lessonID)
	if err != nil {
		return nil, err
	}
	attempt, err := c.opts.Lessons.Start(ctx, l.ID, lesson.ID, c.now())
	if err != nil {
		return nil, fmt.Errorf("start lesson: %w", err)
	}
	theme, ok := c.themes.Get(lesson.ThemeID)
	if !ok {
		theme = dialogue.Theme{ID: lesson.ThemeID, Name: lesson.Title, Description: lesson.Scenario}
	}
	c.corrections = nil

	log := c.log.WithField("lesson", lesson.ID)
	c.println(titleStyle.Render(lesson.Title))
	c.println(subtleStyle.Render(lesson.Description))

	for {
		stage := attempt.CurrentStage
		c.println("")
		c.println(titleStyle.Render(fmt.Sprintf("Stage %d/%d: %s", stage, lessons.NumStages, stage.Label())))

		completion, ok, err := c.runStage(ctx, l, lesson, theme, attempt, stage)
		if err != nil {
			return nil, err
		}
		if !ok {
			c.println(hintStyle.Render("Progress saved. Run the lesson again to continue."))
			return nil, nil
		}

		var xp int
		attempt, xp, err = c.opts.Lessons.CompleteStage(ctx, l.ID, lesson.ID, completion, c.now())
		if err != nil {
			return nil, fmt.Errorf("complete %s: %w", stage, err)
		}
		log.WithField("stage", stage.String()).Debug("stage completed")
		if xp > 0 {
			c.println(successStyle.Render(fmt.Sprintf("+%d XP", xp)))
		}
		if stage == lessons.StageReflection {
			break
		}
	}

	outcome, err := c.opts.Lessons.Finish(ctx, l.ID, lesson.ID, c.now())
	if err != nil {
		return nil, fmt.Errorf("finish lesson: %w", err)
	}
	c.println("")
	c.println(titleStyle.Render(outcome.Result.Message))
	c.println(fmt.Sprintf("Score %.0f, %s, +%d XP", outcome.Result.Score, outcome.Result.Status, outcome.TotalXP()))
	return outcome, nil
}

// runStage runs the activity of one stage. ok is false when the learner
// quit before finishing it.
func (c *Coach) runStage(ctx context.Context, l Learner, lesson lessons.Lesson, theme dialogue.Theme, attempt *lessons.Attempt, stage lessons.Stage) (lessons.StageCompletion, bool, error) {
	switch stage {
	case lessons.StageIntro:
		return c.intro(ctx, l, lesson)
	case lessons.StageGuided:
		return c.guided(ctx, l, lesson, theme)
	case lessons.StageFreePractice:
		return c.freePractice(ctx, l, theme)
	case lessons.StageChallenge:
		return c.challenge(ctx, l, lesson, theme)
	case lessons.StageReflection:
		return c.reflection(ctx, l, lesson, attempt)
	}
	return lessons.StageCompletion{}, false, fmt.Errorf("%w: %d", lessons.ErrInvalidStage, stage)
}

func (c *Coach) intro(ctx context.Context, l Learner, lesson lessons.Lesson) (lessons.StageCompletion, bool, error) {
	c.println(lesson.Scenario)
	if len(lesson.Objectives) > 0 {
		c.println(subtleStyle.Render("Objectives:"))
		for _, o := range lesson.Objectives {
			c.println("  • " + o)
		}
	}
	if len(lesson.KeyPhrases) > 0 {
		c.println(subtleStyle.Render("Key phrases:"))
		for _, p := range lesson.KeyPhrases {
			line := fmt.Sprintf("  %s  %s", p.German, subtleStyle.Render(p.English))
			if p.Pronunciation != "" {
				line += hintStyle.Render(" [" + p.Pronunciation + "]")
			}
			c.println(line)
		}
	}
	if len(lesson.Vocabulary) > 0 {
		c.println(subtleStyle.Render("Vocabulary:"))
		for _, v := range lesson.Vocabulary {
			c.println(fmt.Sprintf("  %s  %s", v.German, subtleStyle.Render(v.English)))
		}
		c.saveVocabulary(ctx, l, lesson)
	}

	ok, err := c.confirm(ctx, "Press Enter to start, /quit to stop.")
	return lessons.StageCompletion{Stage: lessons.StageIntro}, ok, err
}

// saveVocabulary adds the lesson's words to the learner's review deck.
// Words the learner already has are left alone.
func (c *Coach) saveVocabulary(ctx context.Context, l Learner, lesson lessons.Lesson) {
	if c.opts.Vocab == nil {
		return
	}
	added := 0
	for _, v := range lesson.Vocabulary {
		_, err := c.opts.Vocab.Add(ctx, spacedrep.NewItem{
			LearnerID:  l.ID,
			SourceTerm: v.German,
			TargetTerm: v.English,
			ThemeID:    lesson.ThemeID,
			Difficulty: itemDifficulty(lesson),
		}, c.now())
		switch {
		case err == nil:
			added++
		case errors.Is(err, spacedrep.ErrDuplicateItem):
		default:
			c.log.WithError(err).WithField("term", v.German).Warn("add lesson vocabulary")
		}
	}
	if added > 0 {
		c.println(hintStyle.Render(fmt.Sprintf("%d new word(s) added to your review deck.", added)))
	}
}

func itemDifficulty(lesson lessons.Lesson) spacedrep.Difficulty {
	switch lesson.Level {
	case difficulty.LevelA1, difficulty.LevelA2:
		return spacedrep.DifficultyBeginner
	case difficulty.LevelB1, difficulty.LevelB2:
		return spacedrep.DifficultyIntermediate
	}
	return spacedrep.DifficultyAdvanced
}

func (c *Coach) guided(ctx context.Context, l Learner, lesson lessons.Lesson, theme dialogue.Theme) (lessons.StageCompletion, bool, error) {
	g := lessons.NewGuided(lesson.GuidedSteps)
	conv := dialogue.NewConversation(theme, dialogue.ModeGuided, c.now())

	showStep := func() {
		step, ok := g.Step()
		if !ok {
			return
		}
		i, n := g.Position()
		c.println(subtleStyle.Render(fmt.Sprintf("Step %d/%d", i, n)))
		c.println(speakerStyle.Render("Tutor: ") + step.AIMessage)
		if step.Prompt != "" {
			c.println(hintStyle.Render(step.Prompt))
		}
	}

	for !g.Done() {
		showStep()
		done, err := c.loop(ctx, func(ctx context.Context, line string) (bool, error) {
			step, _ := g.Step()
			if _, err := c.talk(ctx, &l, conv, dialogue.Request{Step: &step, Utterance: line}); err != nil {
				return false, err
			}
			matched, hint := g.Answer(line)
			if !matched {
				if hint != "" {
					c.println(hintStyle.Render("Hint: " + hint))
				}
				return false, nil
			}
			c.println(successStyle.Render("✓"))
			if g.Done() {
				return true, nil
			}
			showStep()
			return false, nil
		})
		if err != nil {
			return lessons.StageCompletion{}, false, err
		}
		if !done {
			return lessons.StageCompletion{}, false, nil
		}
		if !g.Done() {
			c.println(hintStyle.Render("Answer every step before moving on."))
		}
	}

	completion, err := g.Complete()
	return completion, err == nil, err
}

func (c *Coach) freePractice(ctx context.Context, l Learner, theme dialogue.Theme) (lessons.StageCompletion, bool, error) {
	conv := dialogue.NewConversation(theme, dialogue.ModePractice, c.now())
	c.println(hintStyle.Render(fmt.Sprintf("Chat freely in German. /done after %d messages moves on.", MinFreePracticeMessages)))
	c.println(speakerStyle.Render(speakerName(conv)+": ") + greeting(theme))

	for {
		done, err := c.loop(ctx, func(ctx context.Context, line string) (bool, error) {
			_, err := c.talk(ctx, &l, conv, dialogue.Request{Utterance: line})
			return false, err
		})
		if err != nil || !done {
			return lessons.StageCompletion{}, false, err
		}
		if conv.Messages >= MinFreePracticeMessages {
			return lessons.StageCompletion{Stage: lessons.StageFreePractice}, true, nil
		}
		c.println(hintStyle.Render(fmt.Sprintf("Send %d more message(s) first.", MinFreePracticeMessages-conv.Messages)))
	}
}

func (c *Coach) challenge(ctx context.Context, l Learner, lesson lessons.Lesson, theme dialogue.Theme) (lessons.StageCompletion, bool, error) {
	ch := &lessons.Challenge{}
	conv := dialogue.NewConversation(theme, dialogue.ModeChallenge, c.now())
	if lesson.Challenge != "" {
		c.println(lesson.Challenge)
	}
	c.println(hintStyle.Render(fmt.Sprintf("At least %d exchanges, at most %d. /done finishes the challenge.",
		lessons.MinChallengeExchanges, lessons.MaxChallengeExchanges)))

	for {
		done, err := c.loop(ctx, func(ctx context.Context, line string) (bool, error) {
			if ch.Remaining() == 0 {
				c.println(hintStyle.Render("No exchanges left. Type /done to finish."))
				return false, nil
			}
			reply, err := c.talk(ctx, &l, conv, dialogue.Request{Utterance: line})
			if err != nil || reply == nil {
				return false, err
			}
			quality := min(max(reply.Quality, 0), lessons.MaxExchangeQuality)
			if err := ch.RecordExchange(quality); err != nil {
				return false, err
			}
			c.println(subtleStyle.Render(fmt.Sprintf("Quality %d/%d, %d exchange(s) left",
				quality, lessons.MaxExchangeQuality, ch.Remaining())))
			return false, nil
		})
		if err != nil || !done {
			return lessons.StageCompletion{}, false, err
		}
		completion, err := ch.Complete()
		if errors.Is(err, lessons.ErrChallengeIncomplete) {
			c.println(hintStyle.Render(fmt.Sprintf("Keep going: %d of %d exchanges.", ch.Exchanges(), lessons.MinChallengeExchanges)))
			continue
		}
		if err != nil {
			return lessons.StageCompletion{}, false, err
		}
		c.println(successStyle.Render(fmt.Sprintf("Challenge score: %d", completion.ChallengeScore)))
		return completion, true, nil
	}
}

func (c *Coach) reflection(ctx context.Context, l Learner, lesson lessons.Lesson, attempt *lessons.Attempt) (lessons.StageCompletion, bool, error) {
	if c.opts.Reflector != nil {
		c.refresh(ctx, &l)
		r, err := c.opts.Reflector.Reflect(ctx, lessons.ReflectionInput{
			Lesson:      lesson,
			Attempt:     *attempt,
			Corrections: c.corrections,
			WeakTopics:  l.WeakTopics,
		})
		if err != nil {
			c.log.WithError(err).Warn("lesson reflection failed")
		} else {
			c.printReflection(r)
		}
	}
	c.println(fmt.Sprintf("Corrections this lesson: %d", len(c.corrections)))

	ok, err := c.confirm(ctx, "Press Enter to finish the lesson, /quit to stop.")
	return lessons.StageCompletion{Stage: lessons.StageReflection}, ok, err
}

func (c *Coach) printReflection(r *lessons.Reflection) {
	c.println(titleStyle.Render(r.Headline))
	if r.Summary != "" {
		c.println(r.Summary)
	}
	for _, s := range r.Strengths {
		c.println(successStyle.Render("✓ " + s))
	}
	for _, f := range r.FocusAreas {
		c.println(tipStyle.Render("→ " + f))
	}
	if r.NextStep != "" {
		c.println(hintStyle.Render("Next: " + r.NextStep))
	}
}
