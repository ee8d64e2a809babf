// Package practice runs interactive tutor sessions in the terminal: free
// conversations and the stage activities of a lesson. It feeds the tutor's
// judgments back into mastery tracking and the learner profile.
package practice

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/abhisek/sprachiz/internal/dialogue"
	"github.com/abhisek/sprachiz/internal/difficulty"
	"github.com/abhisek/sprachiz/internal/lessons"
	"github.com/abhisek/sprachiz/internal/llm"
	"github.com/abhisek/sprachiz/internal/logging"
	"github.com/abhisek/sprachiz/internal/mastery"
	"github.com/abhisek/sprachiz/internal/profile"
	"github.com/abhisek/sprachiz/internal/spacedrep"
)

// Learner commands typed at the prompt.
const (
	CmdQuit = "/quit"
	CmdDone = "/done"
)

// ErrGuidedNeedsLesson is returned when a free chat is started in guided mode.
var ErrGuidedNeedsLesson = errors.New("guided mode needs a lesson; use `lesson` practice instead")

// Responder answers learner utterances.
type Responder interface {
	Respond(ctx context.Context, req dialogue.Request) (*dialogue.Reply, error)
}

// TopicRecorder records judged grammar topic uses.
type TopicRecorder interface {
	RecordUse(ctx context.Context, learnerID, topic string, correct bool, now time.Time) (*mastery.TopicMastery, *mastery.TierTransition, error)
}

// ConversationRecorder stores finished conversations on the profile.
type ConversationRecorder interface {
	RecordConversation(ctx context.Context, c profile.Conversation, now time.Time) (*profile.Profile, error)
}

// VocabularyAdder saves lesson vocabulary for review.
type VocabularyAdder interface {
	Add(ctx context.Context, in spacedrep.NewItem, now time.Time) (*spacedrep.Item, error)
}

// Lessons drives lesson attempts.
type Lessons interface {
	Catalog() *lessons.Catalog
	Start(ctx context.Context, learnerID, lessonID string, now time.Time) (*lessons.Attempt, error)
	CompleteStage(ctx context.Context, learnerID, lessonID string, c lessons.StageCompletion, now time.Time) (*lessons.Attempt, int, error)
	Finish(ctx context.Context, learnerID, lessonID string, now time.Time) (*lessons.FinishOutcome, error)
}

// Reflector writes end-of-lesson feedback.
type Reflector interface {
	Reflect(ctx context.Context, in lessons.ReflectionInput) (*lessons.Reflection, error)
}

// Learner is who the coach is talking to.
type Learner struct {
	ID    string
	Level difficulty.Level

	// Instructions is the difficulty controller output for this learner.
	// It is rebuilt before every tutor turn when Options.Instructions is set.
	Instructions string
	WeakTopics   []string
}

// InstructionsFunc builds the current difficulty instructions and weak
// topics for a learner.
type InstructionsFunc func(ctx context.Context, learnerID string) (instructions string, weakTopics []string, err error)

// Options configures a Coach. Tutor, Topics and Profiles are required;
// Lessons is required for RunLesson. Vocab, Reflector and Instructions are
// optional.
type Options struct {
	Tutor        Responder
	Topics       TopicRecorder
	Profiles     ConversationRecorder
	Lessons      Lessons
	Vocab        VocabularyAdder
	Reflector    Reflector
	Instructions InstructionsFunc
	Themes       *dialogue.Themes

	In  io.Reader
	Out io.Writer
	Log logrus.FieldLogger
	Now func() time.Time
}

// Coach runs sessions over a line-oriented terminal.
type Coach struct {
	opts        Options
	in          *bufio.Scanner
	out         io.Writer
	log         logrus.FieldLogger
	now         func() time.Time
	themes      *dialogue.Themes
	corrections []string
}

// New creates a Coach.
func New(opts Options) *Coach {
	c := &Coach{
		opts:   opts,
		in:     bufio.NewScanner(opts.In),
		out:    opts.Out,
		log:    opts.Log,
		now:    opts.Now,
		themes: opts.Themes,
	}
	if c.log == nil {
		c.log = logging.Discard()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.themes == nil {
		c.themes = dialogue.DefaultThemes()
	}
	return c
}

// turnFunc handles one learner line. Returning finished ends the loop as
// if the learner had typed /done.
type turnFunc func(ctx context.Context, line string) (finished bool, err error)

// loop reads learner lines until /quit, /done, end of input or a finished
// turn. done reports whether the learner asked to move on.
func (c *Coach) loop(ctx context.Context, turn turnFunc) (done bool, err error) {
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		fmt.Fprint(c.out, promptStyle.Render("> "))
		if !c.in.Scan() {
			return false, c.in.Err()
		}
		line := strings.TrimSpace(c.in.Text())
		switch line {
		case "":
			continue
		case CmdQuit:
			return false, nil
		case CmdDone:
			return true, nil
		}
		finished, err := turn(ctx, line)
		if err != nil {
			return false, err
		}
		if finished {
			return true, nil
		}
	}
}

// confirm waits for a line and reports whether the learner wants to go on.
func (c *Coach) confirm(ctx context.Context, prompt string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.println(hintStyle.Render(prompt))
	if !c.in.Scan() {
		return false, c.in.Err()
	}
	return strings.TrimSpace(c.in.Text()) != CmdQuit, nil
}

// refresh rebuilds the learner's instructions and weak topics so that
// judgments from earlier turns steer the next one. On failure the previous
// values are kept.
func (c *Coach) refresh(ctx context.Context, l *Learner) {
	if c.opts.Instructions == nil {
		return
	}
	text, weak, err := c.opts.Instructions(ctx, l.ID)
	if err != nil {
		c.log.WithError(err).WithField("learner", l.ID).Warn("refresh difficulty instructions")
		return
	}
	l.Instructions, l.WeakTopics = text, weak
}

// talk sends one utterance to the tutor, prints the reply and records the
// topic judgments. Tutor failures are reported to the learner and yield a
// nil reply so the session can go on.
func (c *Coach) talk(ctx context.Context, l *Learner, conv *dialogue.Conversation, req dialogue.Request) (*dialogue.Reply, error) {
	c.refresh(ctx, l)
	req.Mode = conv.Mode
	req.Theme = conv.Theme
	req.Level = l.Level
	req.Instructions = l.Instructions
	req.History = conv.History

	reply, err := c.opts.Tutor.Respond(llm.WithLearner(ctx, l.ID), req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.log.WithError(err).Warn("tutor request failed")
		c.println(errorStyle.Render(llm.Explain(err)))
		return nil, nil
	}

	conv.Record(req.Utterance, reply)
	for _, corr := range reply.Corrections {
		c.corrections = append(c.corrections, corr.Text)
	}
	c.printReply(speakerName(conv), reply)
	c.judge(ctx, *l, reply)
	return reply, nil
}

// judge feeds the reply's topic judgments into mastery tracking. Failures
// are logged; they never interrupt the conversation.
func (c *Coach) judge(ctx context.Context, l Learner, reply *dialogue.Reply) {
	now := c.now()
	for _, j := range reply.Judgments() {
		_, tr, err := c.opts.Topics.RecordUse(ctx, l.ID, j.Topic, j.Correct, now)
		if err != nil {
			c.log.WithError(err).WithField("topic", j.Topic).Warn("record topic use")
			continue
		}
		if tr != nil && tr.Promoted() {
			c.println(successStyle.Render(fmt.Sprintf("★ %s is now %s", tr.Topic, tr.To.Label())))
		}
	}
}

// finishConversation stores the conversation outcome on the profile.
func (c *Coach) finishConversation(ctx context.Context, l Learner, conv *dialogue.Conversation) error {
	if conv.Messages == 0 {
		return nil
	}
	now := c.now()
	if _, err := c.opts.Profiles.RecordConversation(ctx, conv.Outcome(l.ID, now), now); err != nil {
		return fmt.Errorf("record conversation: %w", err)
	}
	c.println(subtleStyle.Render(fmt.Sprintf("%d message(s), %d without errors, +%d XP",
		conv.Messages, conv.Correct, conv.XP())))
	return nil
}

// Chat runs a free conversation in the given theme until the learner quits.
func (c *Coach) Chat(ctx context.Context, l Learner, theme dialogue.Theme, mode dialogue.Mode) (*dialogue.Conversation, error) {
	if mode == dialogue.ModeGuided {
		return nil, ErrGuidedNeedsLesson
	}
	conv := dialogue.NewConversation(theme, mode, c.now())

	c.println(titleStyle.Render(theme.Name))
	c.println(subtleStyle.Render(theme.Description))
	c.println(hintStyle.Render("Type in German. /quit ends the conversation."))
	c.println("")
	c.println(speakerStyle.Render(speakerName(conv)+": ") + greeting(theme))

	if _, err := c.loop(ctx, func(ctx context.Context, line string) (bool, error) {
		_, err := c.talk(ctx, &l, conv, dialogue.Request{Utterance: line})
		return false, err
	}); err != nil {
		return conv, err
	}
	return conv, c.finishConversation(ctx, l, conv)
}

func speakerName(conv *dialogue.Conversation) string {
	if conv.Mode == dialogue.ModePractice && conv.Theme.Character.Name != "" {
		return conv.Theme.Character.Name
	}
	return "Tutor"
}

func greeting(theme dialogue.Theme) string {
	if len(theme.Character.Catchphrases) > 0 {
		return theme.Character.Catchphrases[0]
	}
	return "Hallo!"
}

func (c *Coach) println(s string) {
	fmt.Fprintln(c.out, s)
}
