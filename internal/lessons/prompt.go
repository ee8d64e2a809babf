package lessons

import (
	"fmt"
	"strings"
)

const reflectionSystemPrompt = `You are a warm, encouraging German tutor. A learner just finished a lesson and is looking at their results. Give short, specific feedback in English.`

func buildReflectionUserMessage(in ReflectionInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Lesson: %s (%s)\n", in.Lesson.Title, in.Lesson.Level)
	fmt.Fprintf(&b, "Scenario: %s\n", strings.TrimSpace(in.Lesson.Scenario))
	if len(in.Lesson.GrammarTopics) > 0 {
		fmt.Fprintf(&b, "Grammar topics: %s\n", strings.Join(in.Lesson.GrammarTopics, ", "))
	}
	fmt.Fprintf(&b, "Stages completed: %d of %d\n", len(in.Attempt.CompletedStages), NumStages)
	fmt.Fprintf(&b, "Challenge score: %d/100\n", in.Attempt.ChallengeScore)
	fmt.Fprintf(&b, "Lesson score: %.0f/100\n", in.Attempt.Score)

	b.WriteString("\nCorrections during the lesson:\n")
	if len(in.Corrections) == 0 {
		b.WriteString("None\n")
	} else {
		for _, c := range in.Corrections {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}

	if len(in.WeakTopics) > 0 {
		fmt.Fprintf(&b, "\nTopics the learner struggles with: %s\n", strings.Join(in.WeakTopics, ", "))
	}

	b.WriteString(`
Instructions:
1. Summarize the lesson in 2-3 sentences. Be encouraging and specific.
2. List what went well. Refer to phrases from this lesson where you can.
3. List what to practice next, based on the corrections and weak topics above.
4. Suggest one concrete next step. If the score is below 70, suggest repeating a stage.`)

	return b.String()
}
