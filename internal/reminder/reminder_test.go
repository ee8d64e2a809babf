package reminder

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/abhisek/sprachiz/internal/profile"
	"github.com/abhisek/sprachiz/internal/spacedrep"
)

type fakeLearners []profile.Profile

func (f fakeLearners) Learners(context.Context) ([]profile.Profile, error) { return f, nil }

type fakeDue struct {
	counts  map[string]int
	err     error
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (f *fakeDue) Due(_ context.Context, learnerID string, _ time.Time) ([]spacedrep.Item, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	if f.err != nil {
		return nil, f.err
	}
	return make([]spacedrep.Item, f.counts[learnerID]), nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
	err     map[string]error
}

func (r *recordingNotifier) Notify(_ context.Context, n Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.err[n.LearnerID]; err != nil {
		return err
	}
	r.notices = append(r.notices, n)
	return nil
}

func noon() time.Time { return time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC) }

func TestQuietHours(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2026, 5, 4, h, 30, 0, 0, time.UTC) }
	tests := []struct {
		name  string
		q     QuietHours
		hour  int
		quiet bool
	}{
		{"wrapping, late", QuietHours{22, 8}, 23, true},
		{"wrapping, early", QuietHours{22, 8}, 7, true},
		{"wrapping, end is exclusive", QuietHours{22, 8}, 8, false},
		{"wrapping, daytime", QuietHours{22, 8}, 12, false},
		{"same day", QuietHours{13, 15}, 14, true},
		{"same day, outside", QuietHours{13, 15}, 15, false},
		{"disabled", QuietHours{0, 0}, 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.quiet, tt.q.Contains(at(tt.hour)))
		})
	}
}

func TestSweep_NotifiesLearnersWithDueItems(t *testing.T) {
	learners := fakeLearners{
		{LearnerID: "ana", DisplayName: "Ana", TelegramChatID: 11},
		{LearnerID: "ben"},
		{LearnerID: "cem", TelegramChatID: 33},
		{LearnerID: "dia"},
		{LearnerID: "eli"},
	}
	due := &fakeDue{counts: map[string]int{"ana": 3, "cem": 1, "dia": 2, "eli": 4}}
	notifier := &recordingNotifier{err: map[string]error{
		"dia": ErrNoChat,
		"eli": errors.New("network down"),
	}}

	s := NewSweeper(learners, due, notifier, QuietHours{22, 8}, 2, nil)
	sum, err := s.Sweep(context.Background(), noon())
	require.NoError(t, err)

	assert.Equal(t, Summary{Learners: 5, Notified: 2, Skipped: 1, Failed: 1, DueItems: 10}, *sum)
	assert.LessOrEqual(t, due.maxSeen.Load(), int32(2))

	byLearner := map[string]Notice{}
	for _, n := range notifier.notices {
		byLearner[n.LearnerID] = n
	}
	assert.Equal(t, Notice{LearnerID: "ana", DisplayName: "Ana", ChatID: 11, DueCount: 3}, byLearner["ana"])
	assert.Equal(t, 1, byLearner["cem"].DueCount)
}

func TestSweep_QuietHours(t *testing.T) {
	due := &fakeDue{}
	s := NewSweeper(fakeLearners{{LearnerID: "ana"}}, due, &recordingNotifier{}, QuietHours{22, 8}, 1, nil)

	sum, err := s.Sweep(context.Background(), time.Date(2026, 5, 4, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, sum.Quiet)
	assert.Zero(t, due.maxSeen.Load())
}

func TestSweep_DueErrorAborts(t *testing.T) {
	due := &fakeDue{err: errors.New("db locked")}
	s := NewSweeper(fakeLearners{{LearnerID: "ana"}, {LearnerID: "ben"}}, due, &recordingNotifier{}, QuietHours{}, 4, nil)

	_, err := s.Sweep(context.Background(), noon())
	assert.ErrorContains(t, err, "db locked")
}

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func TestTelegramNotifier(t *testing.T) {
	sender := &fakeSender{}
	n := NewTelegramNotifierWithSender(sender)

	err := n.Notify(context.Background(), Notice{LearnerID: "ana", DisplayName: "Ana", ChatID: 42, DueCount: 1})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(42), sender.sent[0].ChatID)
	assert.Equal(t, "Hallo Ana! 1 word is due for review. Run `sprachiz flashcards` to practice.", sender.sent[0].Text)

	err = n.Notify(context.Background(), Notice{LearnerID: "ben", DueCount: 2})
	assert.ErrorIs(t, err, ErrNoChat)

	sender.err = errors.New("forbidden")
	err = n.Notify(context.Background(), Notice{LearnerID: "ana", ChatID: 42, DueCount: 2})
	assert.ErrorContains(t, err, "forbidden")
}

func TestFallback(t *testing.T) {
	primary := NewTelegramNotifierWithSender(&fakeSender{})
	secondary := &recordingNotifier{}
	f := Fallback{Primary: primary, Secondary: secondary}

	require.NoError(t, f.Notify(context.Background(), Notice{LearnerID: "ben", DueCount: 2}))
	require.Len(t, secondary.notices, 1)
	assert.Equal(t, "Hallo ben! 2 words are due for review. Run `sprachiz flashcards` to practice.", secondary.notices[0].Text())
}

func TestScheduler(t *testing.T) {
	defer goleak.VerifyNone(t)

	_, err := NewScheduler("every tuesday", nil, nil)
	require.Error(t, err)

	notifier := &recordingNotifier{}
	sweeper := NewSweeper(fakeLearners{{LearnerID: "ana"}}, &fakeDue{counts: map[string]int{"ana": 2}}, notifier, QuietHours{}, 1, nil)
	s, err := NewScheduler("@every 1s", sweeper, nil)
	require.NoError(t, err)
	s.now = noon

	require.NoError(t, s.Start(context.Background()))
	assert.Error(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool {
		notifier.mu.Lock()
		defer notifier.mu.Unlock()
		return len(notifier.notices) > 0
	}, 3*time.Second, 20*time.Millisecond)

	s.Stop()
	s.Stop()
}
