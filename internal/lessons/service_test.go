package lessons

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/sprachiz/internal/difficulty"
	"github.com/abhisek/sprachiz/internal/logging"
	"github.com/abhisek/sprachiz/internal/profile"
	"github.com/abhisek/sprachiz/internal/store"
)

type recordingEvents struct {
	store.EventRepo
	mu      sync.Mutex
	lessons []store.LessonEventData
}

func (r *recordingEvents) AppendLessonEvent(ctx context.Context, data store.LessonEventData) error {
	r.mu.Lock()
	r.lessons = append(r.lessons, data)
	r.mu.Unlock()
	return r.EventRepo.AppendLessonEvent(ctx, data)
}

type fixture struct {
	svc      *Service
	profiles *profile.Service
	events   *recordingEvents
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	s, err := store.OpenSQLite(ctx, filepath.Join(t.TempDir(), "lessons.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	log := logging.Discard()
	profiles := profile.NewService(s.ProfileRepo(), s.ConversationRepo(), s.ItemRepo(), s.Locks(), log)
	_, err = profiles.Ensure(ctx, "l1", t0)
	require.NoError(t, err)

	events := &recordingEvents{EventRepo: s.EventRepo()}
	svc := NewService(DefaultCatalog(), s.AttemptRepo(), events, profiles, s.Locks(), log)
	return fixture{svc: svc, profiles: profiles, events: events}
}

func TestService_FullLesson(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const lesson = "lesson-A1-1"

	_, err := f.svc.Get(ctx, "l1", lesson)
	require.ErrorIs(t, err, ErrAttemptNotFound)

	a, err := f.svc.Start(ctx, "l1", lesson, t0)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, a.Status)
	assert.Equal(t, 1, a.Attempts)

	for _, st := range []Stage{StageIntro, StageGuided, StageFreePractice} {
		_, xp, err := f.svc.CompleteStage(ctx, "l1", lesson, StageCompletion{Stage: st}, t0)
		require.NoError(t, err)
		assert.Equal(t, StageXP, xp)
	}

	var ch Challenge
	for range 3 {
		require.NoError(t, ch.RecordExchange(10))
	}
	c, err := ch.Complete()
	require.NoError(t, err)
	_, _, err = f.svc.CompleteStage(ctx, "l1", lesson, c, t0)
	require.NoError(t, err)
	_, _, err = f.svc.CompleteStage(ctx, "l1", lesson, StageCompletion{Stage: StageReflection}, t0)
	require.NoError(t, err)

	out, err := f.svc.Finish(ctx, "l1", lesson, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, float64(100), out.Result.Score)
	assert.Equal(t, StatusMastered, out.Attempt.Status)
	assert.Equal(t, 5*StageXP, out.Result.XPEarned)
	assert.Equal(t, 100, out.BonusXP)

	p, err := f.profiles.Get(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, 5*StageXP+100, p.TotalXP)

	// Finishing again credits nothing new.
	out, err = f.svc.Finish(ctx, "l1", lesson, t0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, out.TotalXP())
	p, err = f.profiles.Get(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, 5*StageXP+100, p.TotalXP)

	stored, err := f.svc.Get(ctx, "l1", lesson)
	require.NoError(t, err)
	assert.Equal(t, Stages, stored.CompletedStages)
	assert.Equal(t, 100, stored.ChallengeScore)
	assert.Equal(t, float64(100), stored.BestScore)
	assert.False(t, stored.CompletedAt.IsZero())

	require.Len(t, f.events.lessons, 2)
	assert.Equal(t, string(StatusNotStarted), f.events.lessons[0].FromStatus)
	assert.Equal(t, string(StatusInProgress), f.events.lessons[0].ToStatus)
	assert.Equal(t, string(StatusMastered), f.events.lessons[1].ToStatus)
}

func TestService_PersistsAcrossResume(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const lesson = "lesson-A1-2"

	_, err := f.svc.Start(ctx, "l1", lesson, t0)
	require.NoError(t, err)
	_, _, err = f.svc.CompleteStage(ctx, "l1", lesson, StageCompletion{Stage: StageIntro}, t0)
	require.NoError(t, err)

	_, _, err = f.svc.CompleteStage(ctx, "l1", lesson, StageCompletion{Stage: StageFreePractice}, t0)
	require.ErrorIs(t, err, ErrStageLocked)

	a, err := f.svc.Start(ctx, "l1", lesson, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, StageGuided, a.CurrentStage)
	assert.Equal(t, []Stage{StageIntro}, a.CompletedStages)
	assert.Equal(t, 2, a.Attempts)

	a, err = f.svc.GoTo(ctx, "l1", lesson, StageIntro, t0)
	require.NoError(t, err)
	assert.Equal(t, StageIntro, a.CurrentStage)

	out, err := f.svc.Finish(ctx, "l1", lesson, t0)
	require.NoError(t, err)
	assert.Equal(t, float64(14), out.Result.Score)
	assert.Equal(t, StatusInProgress, out.Attempt.Status)
	assert.Equal(t, 0, out.BonusXP)
}

func TestService_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, "l1", "lesson-Z9-1", t0)
	require.ErrorIs(t, err, ErrLessonNotFound)

	_, _, err = f.svc.CompleteStage(ctx, "l1", "lesson-A1-1", StageCompletion{Stage: StageIntro}, t0)
	require.ErrorIs(t, err, ErrAttemptNotFound)

	_, err = f.svc.GoTo(ctx, "l1", "lesson-A1-1", 9, t0)
	require.ErrorIs(t, err, ErrAttemptNotFound)

	_, err = f.svc.Start(ctx, "", "lesson-A1-1", t0)
	require.ErrorIs(t, err, ErrInvalidAttempt)
}

func TestService_RecommendSkipsFinished(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	recs, err := f.svc.Recommend(ctx, "l1", difficulty.LevelA1)
	require.NoError(t, err)
	require.NotEmpty(t, recs)
	assert.Equal(t, "lesson-A1-1", recs[0].ID)

	_, err = f.svc.Start(ctx, "l1", "lesson-A1-1", t0)
	require.NoError(t, err)
	for _, st := range Stages {
		_, _, err = f.svc.CompleteStage(ctx, "l1", "lesson-A1-1", StageCompletion{Stage: st}, t0)
		require.NoError(t, err)
	}
	_, err = f.svc.Finish(ctx, "l1", "lesson-A1-1", t0)
	require.NoError(t, err)

	recs, err = f.svc.Recommend(ctx, "l1", difficulty.LevelA1)
	require.NoError(t, err)
	for _, l := range recs {
		assert.NotEqual(t, "lesson-A1-1", l.ID)
	}
}

func TestService_RestartAfterMastery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const lesson = "lesson-A1-1"

	fullPass := func(now time.Time) *FinishOutcome {
		t.Helper()
		for _, st := range Stages {
			c := StageCompletion{Stage: st}
			if st == StageChallenge {
				c.ChallengeScore = 100
			}
			_, _, err := f.svc.CompleteStage(ctx, "l1", lesson, c, now)
			require.NoError(t, err)
		}
		out, err := f.svc.Finish(ctx, "l1", lesson, now)
		require.NoError(t, err)
		return out
	}

	_, err := f.svc.Start(ctx, "l1", lesson, t0)
	require.NoError(t, err)
	first := fullPass(t0)
	assert.Equal(t, 100, first.BonusXP)

	later := t0.Add(24 * time.Hour)
	a, err := f.svc.Restart(ctx, "l1", lesson, later)
	require.NoError(t, err)
	assert.Equal(t, StatusMastered, a.Status)
	assert.Empty(t, a.CompletedStages)
	assert.Equal(t, float64(100), a.BestScore)
	assert.True(t, a.CompletedAt.Equal(t0))

	second := fullPass(later)
	assert.Equal(t, 0, second.BonusXP)
	assert.Equal(t, NumStages*StageXP, second.TotalXP())
	assert.True(t, second.Attempt.CompletedAt.Equal(t0))

	p, err := f.profiles.Get(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, 2*NumStages*StageXP+100, p.TotalXP)

	list, err := f.svc.List(ctx, "l1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, StatusMastered, list[0].Status)
}

func TestService_Achievements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	achievements, err := f.svc.Achievements(ctx, "l1")
	require.NoError(t, err)
	require.Len(t, achievements, len(DefaultCatalog().All()))
	for _, a := range achievements {
		assert.False(t, a.Earned(), a.ID)
	}

	_, err = f.svc.Start(ctx, "l1", "lesson-A1-1", t0)
	require.NoError(t, err)
	for _, st := range Stages {
		c := StageCompletion{Stage: st}
		if st == StageChallenge {
			c.ChallengeScore = 40
		}
		_, _, err := f.svc.CompleteStage(ctx, "l1", "lesson-A1-1", c, t0)
		require.NoError(t, err)
	}
	_, err = f.svc.Finish(ctx, "l1", "lesson-A1-1", t0)
	require.NoError(t, err)

	achievements, err = f.svc.Achievements(ctx, "l1")
	require.NoError(t, err)
	earned := lo.Filter(achievements, func(a Achievement, _ int) bool { return a.Earned() })
	require.Len(t, earned, 1)
	assert.Equal(t, "conversation_starter", earned[0].ID)
	assert.Equal(t, "lesson-A1-1", earned[0].LessonID)
}
