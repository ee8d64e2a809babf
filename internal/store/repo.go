package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record addressed by key does not exist.
var ErrNotFound = errors.New("record not found")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit int       // max results (0 = unlimited)
	From  time.Time // timestamp >= From
	To    time.Time // timestamp <= To
}

// ItemRecord is the persisted form of a learnable vocabulary item.
type ItemRecord struct {
	ID              string    `db:"id"`
	LearnerID       string    `db:"learner_id"`
	SourceTerm      string    `db:"source_term"`
	NormalizedTerm  string    `db:"normalized_term"`
	TargetTerm      string    `db:"target_term"`
	ContextSentence string    `db:"context_sentence"`
	ThemeID         string    `db:"theme_id"`
	Difficulty      string    `db:"difficulty"`
	TimesReviewed   int       `db:"times_reviewed"`
	TimesCorrect    int       `db:"times_correct"`
	NextReviewAt    time.Time `db:"next_review_at"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// ItemRepo persists learnable items.
type ItemRepo interface {
	// CreateItem inserts a new item.
	CreateItem(ctx context.Context, rec *ItemRecord) error

	// UpdateItem overwrites an existing item. Returns ErrNotFound if the
	// item does not exist for the learner.
	UpdateItem(ctx context.Context, rec *ItemRecord) error

	// GetItem returns one item. Returns ErrNotFound if absent.
	GetItem(ctx context.Context, learnerID, id string) (*ItemRecord, error)

	// FindItemByTerm looks an item up by its normalized source term.
	// Returns ErrNotFound if absent.
	FindItemByTerm(ctx context.Context, learnerID, normalizedTerm string) (*ItemRecord, error)

	// ListItems returns all items for the learner, oldest first.
	ListItems(ctx context.Context, learnerID string) ([]ItemRecord, error)

	// DeleteItem removes an item. Returns ErrNotFound if absent.
	DeleteItem(ctx context.Context, learnerID, id string) error

	// CountItems returns the number of items the learner owns.
	CountItems(ctx context.Context, learnerID string) (int, error)
}

// TopicRecord is the persisted form of per-topic mastery counters.
type TopicRecord struct {
	LearnerID       string    `db:"learner_id"`
	Topic           string    `db:"topic"`
	CorrectUses     int       `db:"correct_uses"`
	IncorrectUses   int       `db:"incorrect_uses"`
	Tier            string    `db:"tier"`
	LastPracticedAt time.Time `db:"last_practiced_at"`
	CreatedAt       time.Time `db:"created_at"`
}

// TopicRepo persists topic mastery records.
type TopicRepo interface {
	// GetTopic returns the record for one topic. Returns ErrNotFound if the
	// learner has never practiced it.
	GetTopic(ctx context.Context, learnerID, topic string) (*TopicRecord, error)

	// SaveTopic inserts or overwrites a topic record.
	SaveTopic(ctx context.Context, rec *TopicRecord) error

	// ListTopics returns the learner's topics in first-practiced order.
	ListTopics(ctx context.Context, learnerID string) ([]TopicRecord, error)
}

// ProfileRecord is the persisted learner profile.
type ProfileRecord struct {
	LearnerID       string    `db:"learner_id"`
	DisplayName     string    `db:"display_name"`
	Level           string    `db:"level"`
	RollingAccuracy float64   `db:"rolling_accuracy"`
	VocabularySize  int       `db:"vocabulary_size"`
	Preference      string    `db:"preference"`
	TotalXP         int       `db:"total_xp"`
	TelegramChatID  int64     `db:"telegram_chat_id"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// ProfileRepo persists learner profiles.
type ProfileRepo interface {
	// GetProfile returns a profile. Returns ErrNotFound if absent.
	GetProfile(ctx context.Context, learnerID string) (*ProfileRecord, error)

	// SaveProfile inserts or overwrites a profile.
	SaveProfile(ctx context.Context, rec *ProfileRecord) error

	// ListProfiles returns every profile ordered by learner ID.
	ListProfiles(ctx context.Context) ([]ProfileRecord, error)
}

// AttemptRecord is the persisted state of one learner's attempt at one lesson.
type AttemptRecord struct {
	ID              string     `db:"id"`
	LearnerID       string     `db:"learner_id"`
	LessonID        string     `db:"lesson_id"`
	Status          string     `db:"status"`
	CurrentStage    int        `db:"current_stage"`
	CompletedStages IntSet     `db:"completed_stages"`
	ChallengeScore  int        `db:"challenge_score"`
	Score           float64    `db:"score"`
	BestScore       float64    `db:"best_score"`
	Attempts        int        `db:"attempts"`
	XP              int        `db:"xp"`
	CreditedXP      int        `db:"credited_xp"`
	StartedAt       *time.Time `db:"started_at"`
	LastAccessedAt  *time.Time `db:"last_accessed_at"`
	CompletedAt     *time.Time `db:"completed_at"`
}

// AttemptRepo persists lesson attempts.
type AttemptRepo interface {
	// GetAttempt returns the attempt for a lesson. Returns ErrNotFound if
	// the learner never opened it.
	GetAttempt(ctx context.Context, learnerID, lessonID string) (*AttemptRecord, error)

	// SaveAttempt inserts or overwrites the attempt keyed by (learner, lesson).
	SaveAttempt(ctx context.Context, rec *AttemptRecord) error

	// ListAttempts returns all of the learner's attempts.
	ListAttempts(ctx context.Context, learnerID string) ([]AttemptRecord, error)
}

// ConversationRecord is one finished conversation.
type ConversationRecord struct {
	ID              string    `db:"id"`
	LearnerID       string    `db:"learner_id"`
	ThemeID         string    `db:"theme_id"`
	Messages        int       `db:"messages"`
	CorrectMessages int       `db:"correct_messages"`
	Accuracy        float64   `db:"accuracy"`
	DurationSeconds int       `db:"duration_seconds"`
	XP              int       `db:"xp"`
	CreatedAt       time.Time `db:"created_at"`
}

// ThemeStats aggregates conversations per theme.
type ThemeStats struct {
	ThemeID         string `db:"theme_id"`
	Conversations   int    `db:"conversations"`
	TotalMessages   int    `db:"total_messages"`
	CorrectMessages int    `db:"correct_messages"`
	TotalSeconds    int    `db:"total_seconds"`
}

// ConversationRepo persists conversation history.
type ConversationRepo interface {
	// AppendConversation stores a finished conversation.
	AppendConversation(ctx context.Context, rec *ConversationRecord) error

	// RecentConversations returns up to limit conversations, newest first.
	RecentConversations(ctx context.Context, learnerID string, limit int) ([]ConversationRecord, error)

	// ThemeStats aggregates the learner's conversations by theme.
	ThemeStats(ctx context.Context, learnerID string) ([]ThemeStats, error)

	// RecordConversation appends rec and saves the profile returned by
	// apply in one transaction. apply sees up to window recent
	// conversations, rec included. Nothing is written if apply fails.
	RecordConversation(ctx context.Context, rec *ConversationRecord, window int, apply func(recent []ConversationRecord) (*ProfileRecord, error)) error
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID           int       `db:"id"`
	Timestamp    time.Time `db:"timestamp"`
	Provider     string    `db:"provider"`
	Model        string    `db:"model"`
	Purpose      string    `db:"purpose"`
	InputTokens  int       `db:"input_tokens"`
	OutputTokens int       `db:"output_tokens"`
	LatencyMs    int64     `db:"latency_ms"`
	Success      bool      `db:"success"`
	ErrorMessage string    `db:"error_message"`
	RequestBody  string    `db:"request_body"`
	ResponseBody string    `db:"response_body"`
}

// LLMUsage aggregates token usage for one purpose.
type LLMUsage struct {
	Purpose      string `db:"purpose"`
	Calls        int    `db:"calls"`
	InputTokens  int    `db:"input_tokens"`
	OutputTokens int    `db:"output_tokens"`
	AvgLatencyMs int    `db:"avg_latency_ms"`
}

// ModelUsage aggregates token usage for one model.
type ModelUsage struct {
	Model        string `db:"model"`
	Calls        int    `db:"calls"`
	InputTokens  int    `db:"input_tokens"`
	OutputTokens int    `db:"output_tokens"`
}

// MasteryEventData records a topic tier transition.
type MasteryEventData struct {
	LearnerID     string
	Topic         string
	FromTier      string
	ToTier        string
	CorrectUses   int
	IncorrectUses int
}

// LessonEventData records a lesson status transition.
type LessonEventData struct {
	LearnerID  string
	LessonID   string
	FromStatus string
	ToStatus   string
	Score      float64
}

// EventRepo provides append access to domain events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// AppendMasteryEvent records a tier change for a topic.
	AppendMasteryEvent(ctx context.Context, data MasteryEventData) error

	// AppendLessonEvent records a lesson status change.
	AppendLessonEvent(ctx context.Context, data LessonEventData) error

	// QueryLLMEvents returns LLM events, newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)

	// GetLLMEvent returns one LLM event. Returns ErrNotFound if absent.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)

	// LLMUsageByPurpose aggregates token usage per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)

	// LLMUsageByModel aggregates token usage per model.
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)
}
