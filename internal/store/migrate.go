package store

import (
	"context"
	"fmt"
	"strings"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// ItemsColumns holds the columns for the "items" table.
	ItemsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "source_term", Type: field.TypeString},
		{Name: "normalized_term", Type: field.TypeString},
		{Name: "target_term", Type: field.TypeString},
		{Name: "context_sentence", Type: field.TypeString, Default: ""},
		{Name: "theme_id", Type: field.TypeString, Default: ""},
		{Name: "difficulty", Type: field.TypeString},
		{Name: "times_reviewed", Type: field.TypeInt, Default: 0},
		{Name: "times_correct", Type: field.TypeInt, Default: 0},
		{Name: "next_review_at", Type: field.TypeTime},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// ItemsTable holds the schema information for the "items" table.
	ItemsTable = &schema.Table{
		Name:       "items",
		Columns:    ItemsColumns,
		PrimaryKey: []*schema.Column{ItemsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "item_learner_id_normalized_term", Unique: true, Columns: []*schema.Column{ItemsColumns[1], ItemsColumns[3]}},
			{Name: "item_learner_id_next_review_at", Columns: []*schema.Column{ItemsColumns[1], ItemsColumns[10]}},
		},
	}

	// TopicMasteriesColumns holds the columns for the "topic_masteries" table.
	TopicMasteriesColumns = []*schema.Column{
		{Name: "learner_id", Type: field.TypeString},
		{Name: "topic", Type: field.TypeString},
		{Name: "correct_uses", Type: field.TypeInt, Default: 0},
		{Name: "incorrect_uses", Type: field.TypeInt, Default: 0},
		{Name: "tier", Type: field.TypeString},
		{Name: "last_practiced_at", Type: field.TypeTime},
		{Name: "created_at", Type: field.TypeTime},
	}
	// TopicMasteriesTable holds the schema information for the "topic_masteries" table.
	TopicMasteriesTable = &schema.Table{
		Name:       "topic_masteries",
		Columns:    TopicMasteriesColumns,
		PrimaryKey: []*schema.Column{TopicMasteriesColumns[0], TopicMasteriesColumns[1]},
	}

	// ProfilesColumns holds the columns for the "profiles" table.
	ProfilesColumns = []*schema.Column{
		{Name: "learner_id", Type: field.TypeString},
		{Name: "display_name", Type: field.TypeString, Default: ""},
		{Name: "level", Type: field.TypeString},
		{Name: "rolling_accuracy", Type: field.TypeFloat64, Default: 0},
		{Name: "vocabulary_size", Type: field.TypeInt, Default: 0},
		{Name: "preference", Type: field.TypeString},
		{Name: "total_xp", Type: field.TypeInt, Default: 0},
		{Name: "telegram_chat_id", Type: field.TypeInt64, Default: 0},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// ProfilesTable holds the schema information for the "profiles" table.
	ProfilesTable = &schema.Table{
		Name:       "profiles",
		Columns:    ProfilesColumns,
		PrimaryKey: []*schema.Column{ProfilesColumns[0]},
	}

	// LessonAttemptsColumns holds the columns for the "lesson_attempts" table.
	LessonAttemptsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "lesson_id", Type: field.TypeString},
		{Name: "status", Type: field.TypeString},
		{Name: "current_stage", Type: field.TypeInt},
		{Name: "completed_stages", Type: field.TypeString, Default: ""},
		{Name: "challenge_score", Type: field.TypeInt, Default: 0},
		{Name: "score", Type: field.TypeFloat64, Default: 0},
		{Name: "best_score", Type: field.TypeFloat64, Default: 0},
		{Name: "attempts", Type: field.TypeInt, Default: 0},
		{Name: "xp", Type: field.TypeInt, Default: 0},
		{Name: "credited_xp", Type: field.TypeInt, Default: 0},
		{Name: "started_at", Type: field.TypeTime, Nullable: true},
		{Name: "last_accessed_at", Type: field.TypeTime, Nullable: true},
		{Name: "completed_at", Type: field.TypeTime, Nullable: true},
	}
	// LessonAttemptsTable holds the schema information for the "lesson_attempts" table.
	LessonAttemptsTable = &schema.Table{
		Name:       "lesson_attempts",
		Columns:    LessonAttemptsColumns,
		PrimaryKey: []*schema.Column{LessonAttemptsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "lessonattempt_learner_id_lesson_id", Unique: true, Columns: []*schema.Column{LessonAttemptsColumns[1], LessonAttemptsColumns[2]}},
		},
	}

	// ConversationsColumns holds the columns for the "conversations" table.
	ConversationsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "theme_id", Type: field.TypeString},
		{Name: "messages", Type: field.TypeInt},
		{Name: "correct_messages", Type: field.TypeInt},
		{Name: "accuracy", Type: field.TypeFloat64},
		{Name: "duration_seconds", Type: field.TypeInt},
		{Name: "xp", Type: field.TypeInt, Default: 0},
		{Name: "created_at", Type: field.TypeTime},
	}
	// ConversationsTable holds the schema information for the "conversations" table.
	ConversationsTable = &schema.Table{
		Name:       "conversations",
		Columns:    ConversationsColumns,
		PrimaryKey: []*schema.Column{ConversationsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "conversation_learner_id_created_at", Columns: []*schema.Column{ConversationsColumns[1], ConversationsColumns[8]}},
		},
	}

	// LlmRequestEventsColumns holds the columns for the "llm_request_events" table.
	LlmRequestEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt},
		{Name: "output_tokens", Type: field.TypeInt},
		{Name: "latency_ms", Type: field.TypeInt64},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	// LlmRequestEventsTable holds the schema information for the "llm_request_events" table.
	LlmRequestEventsTable = &schema.Table{
		Name:       "llm_request_events",
		Columns:    LlmRequestEventsColumns,
		PrimaryKey: []*schema.Column{LlmRequestEventsColumns[0]},
	}

	// MasteryEventsColumns holds the columns for the "mastery_events" table.
	MasteryEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "topic", Type: field.TypeString},
		{Name: "from_tier", Type: field.TypeString},
		{Name: "to_tier", Type: field.TypeString},
		{Name: "correct_uses", Type: field.TypeInt},
		{Name: "incorrect_uses", Type: field.TypeInt},
	}
	// MasteryEventsTable holds the schema information for the "mastery_events" table.
	MasteryEventsTable = &schema.Table{
		Name:       "mastery_events",
		Columns:    MasteryEventsColumns,
		PrimaryKey: []*schema.Column{MasteryEventsColumns[0]},
	}

	// LessonEventsColumns holds the columns for the "lesson_events" table.
	LessonEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "lesson_id", Type: field.TypeString},
		{Name: "from_status", Type: field.TypeString},
		{Name: "to_status", Type: field.TypeString},
		{Name: "score", Type: field.TypeFloat64},
	}
	// LessonEventsTable holds the schema information for the "lesson_events" table.
	LessonEventsTable = &schema.Table{
		Name:       "lesson_events",
		Columns:    LessonEventsColumns,
		PrimaryKey: []*schema.Column{LessonEventsColumns[0]},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		ItemsTable,
		TopicMasteriesTable,
		ProfilesTable,
		LessonAttemptsTable,
		ConversationsTable,
		LlmRequestEventsTable,
		MasteryEventsTable,
		LessonEventsTable,
	}
)

// migrate creates or upgrades every table in Tables.
func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("new migrate: %w", err)
	}
	return m.Create(ctx, Tables...)
}

// upsertQuery builds a named INSERT for table that updates every
// non-conflict column when a row with the same conflict key exists.
// Auto-increment columns are left to the database.
func upsertQuery(table *schema.Table, conflict ...string) string {
	var cols []string
	for _, c := range table.Columns {
		if c.Increment {
			continue
		}
		cols = append(cols, c.Name)
	}

	skip := make(map[string]struct{}, len(conflict)+1)
	for _, c := range conflict {
		skip[c] = struct{}{}
	}
	// The primary key of an existing row is never rewritten.
	for _, c := range table.PrimaryKey {
		skip[c.Name] = struct{}{}
	}

	var assignments []string
	for _, c := range cols {
		if _, ok := skip[c]; ok {
			continue
		}
		assignments = append(assignments, fmt.Sprintf("%s = excluded.%s", c, c))
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (:%s) ON CONFLICT (%s) DO UPDATE SET %s",
		table.Name,
		strings.Join(cols, ", "),
		strings.Join(cols, ", :"),
		strings.Join(conflict, ", "),
		strings.Join(assignments, ", "),
	)
}

// insertQuery builds a plain named INSERT for table.
func insertQuery(table *schema.Table) string {
	var cols []string
	for _, c := range table.Columns {
		if c.Increment {
			continue
		}
		cols = append(cols, c.Name)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (:%s)",
		table.Name,
		strings.Join(cols, ", "),
		strings.Join(cols, ", :"),
	)
}
