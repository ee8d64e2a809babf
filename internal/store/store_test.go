package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil db")
	}
	if s.Driver() != DriverSQLite {
		t.Errorf("Driver() = %q, want %q", s.Driver(), DriverSQLite)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "oracle", "x"); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestMigrationIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	ctx := context.Background()

	s1, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	s1.Close()

	s2, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	s2.Close()
}

func testItem(id, learner, term string, now time.Time) *ItemRecord {
	return &ItemRecord{
		ID:             id,
		LearnerID:      learner,
		SourceTerm:     term,
		NormalizedTerm: term,
		TargetTerm:     "t-" + term,
		Difficulty:     "beginner",
		NextReviewAt:   now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestItemRepo_CRUD(t *testing.T) {
	s := openTestStore(t)
	repo := s.ItemRepo()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	if err := repo.CreateItem(ctx, testItem("i1", "l1", "hund", now)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.CreateItem(ctx, testItem("i2", "l1", "katze", now.Add(time.Second))); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.CreateItem(ctx, testItem("i3", "l2", "hund", now)); err != nil {
		t.Fatalf("same term for another learner should be allowed: %v", err)
	}

	got, err := repo.GetItem(ctx, "l1", "i1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.SourceTerm != "hund" || !got.NextReviewAt.Equal(now) {
		t.Errorf("got %+v", got)
	}

	got.TimesReviewed = 1
	got.TimesCorrect = 1
	got.NextReviewAt = now.AddDate(0, 0, 1)
	if err := repo.UpdateItem(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}

	found, err := repo.FindItemByTerm(ctx, "l1", "hund")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.TimesCorrect != 1 || !found.NextReviewAt.Equal(now.AddDate(0, 0, 1)) {
		t.Errorf("update not persisted: %+v", found)
	}

	items, err := repo.ListItems(ctx, "l1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[0].ID != "i1" || items[1].ID != "i2" {
		t.Errorf("list order = %+v", items)
	}

	n, err := repo.CountItems(ctx, "l1")
	if err != nil || n != 2 {
		t.Errorf("count = %d, %v; want 2", n, err)
	}

	if err := repo.DeleteItem(ctx, "l1", "i2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetItem(ctx, "l1", "i2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get deleted: err = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteItem(ctx, "l1", "i2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete twice: err = %v, want ErrNotFound", err)
	}
	if err := repo.UpdateItem(ctx, testItem("missing", "l1", "x", now)); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing: err = %v, want ErrNotFound", err)
	}
}

func TestItemRepo_UniqueTerm(t *testing.T) {
	s := openTestStore(t)
	repo := s.ItemRepo()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.CreateItem(ctx, testItem("a", "l1", "haus", now)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.CreateItem(ctx, testItem("b", "l1", "haus", now)); err == nil {
		t.Fatal("expected unique violation for duplicate normalized term")
	}
}

func TestTopicRepo_SaveOverwrites(t *testing.T) {
	s := openTestStore(t)
	repo := s.TopicRepo()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	if _, err := repo.GetTopic(ctx, "l1", "dative"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	rec := &TopicRecord{LearnerID: "l1", Topic: "dative", CorrectUses: 1, Tier: "beginner", LastPracticedAt: now, CreatedAt: now}
	if err := repo.SaveTopic(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	rec.CorrectUses = 5
	rec.Tier = "intermediate"
	if err := repo.SaveTopic(ctx, rec); err != nil {
		t.Fatalf("save again: %v", err)
	}
	second := &TopicRecord{LearnerID: "l1", Topic: "akkusativ", IncorrectUses: 2, Tier: "beginner", LastPracticedAt: now, CreatedAt: now.Add(time.Minute)}
	if err := repo.SaveTopic(ctx, second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	got, err := repo.GetTopic(ctx, "l1", "dative")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CorrectUses != 5 || got.Tier != "intermediate" {
		t.Errorf("got %+v", got)
	}

	list, err := repo.ListTopics(ctx, "l1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Topic != "dative" || list[1].Topic != "akkusativ" {
		t.Errorf("list = %+v", list)
	}
}

func TestProfileRepo(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProfileRepo()
	ctx := context.Background()
	now := time.Now().UTC()

	for _, id := range []string{"bob", "alice"} {
		rec := &ProfileRecord{LearnerID: id, Level: "A1", Preference: "auto", CreatedAt: now, UpdatedAt: now}
		if err := repo.SaveProfile(ctx, rec); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	p, err := repo.GetProfile(ctx, "alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	p.Level = "B1"
	p.TotalXP = 150
	p.TelegramChatID = 42
	if err := repo.SaveProfile(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}

	p, err = repo.GetProfile(ctx, "alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.Level != "B1" || p.TotalXP != 150 || p.TelegramChatID != 42 {
		t.Errorf("got %+v", p)
	}

	all, err := repo.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].LearnerID != "alice" {
		t.Errorf("list = %+v", all)
	}

	if _, err := repo.GetProfile(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAttemptRepo_UpsertKeepsID(t *testing.T) {
	s := openTestStore(t)
	repo := s.AttemptRepo()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	rec := &AttemptRecord{
		ID:           "first-id",
		LearnerID:    "l1",
		LessonID:     "lesson-A1-1",
		Status:       "in_progress",
		CurrentStage: 2,
		Attempts:     1,
		StartedAt:    &now,
	}
	rec.CompletedStages = IntSet{1}
	if err := repo.SaveAttempt(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	rec.ID = "second-id"
	rec.CompletedStages = IntSet{3, 1, 2}
	rec.CurrentStage = 4
	rec.CompletedAt = &now
	if err := repo.SaveAttempt(ctx, rec); err != nil {
		t.Fatalf("save again: %v", err)
	}

	got, err := repo.GetAttempt(ctx, "l1", "lesson-A1-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "first-id" {
		t.Errorf("ID = %q, want first-id", got.ID)
	}
	if len(got.CompletedStages) != 3 || got.CompletedStages[0] != 1 || got.CompletedStages[2] != 3 {
		t.Errorf("CompletedStages = %v", got.CompletedStages)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(now) {
		t.Errorf("CompletedAt = %v", got.CompletedAt)
	}
	if got.LastAccessedAt != nil {
		t.Errorf("LastAccessedAt = %v, want nil", got.LastAccessedAt)
	}

	list, err := repo.ListAttempts(ctx, "l1")
	if err != nil || len(list) != 1 {
		t.Errorf("list = %v, %v", list, err)
	}

	if _, err := repo.GetAttempt(ctx, "l1", "other"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestConversationRepo(t *testing.T) {
	s := openTestStore(t)
	repo := s.ConversationRepo()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	convs := []ConversationRecord{
		{ID: "c1", LearnerID: "l1", ThemeID: "cafe", Messages: 10, CorrectMessages: 8, Accuracy: 80, DurationSeconds: 60, CreatedAt: base},
		{ID: "c2", LearnerID: "l1", ThemeID: "cafe", Messages: 4, CorrectMessages: 4, Accuracy: 100, DurationSeconds: 30, CreatedAt: base.Add(time.Minute)},
		{ID: "c3", LearnerID: "l1", ThemeID: "airport", Messages: 5, CorrectMessages: 1, Accuracy: 20, DurationSeconds: 90, CreatedAt: base.Add(2 * time.Minute)},
	}
	for i := range convs {
		if err := repo.AppendConversation(ctx, &convs[i]); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	recent, err := repo.RecentConversations(ctx, "l1", 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "c3" || recent[1].ID != "c2" {
		t.Errorf("recent = %+v", recent)
	}

	stats, err := repo.ThemeStats(ctx, "l1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("len(stats) = %d, want 2", len(stats))
	}
	cafe := stats[1]
	if cafe.ThemeID != "cafe" || cafe.Conversations != 2 || cafe.TotalMessages != 14 || cafe.CorrectMessages != 12 || cafe.TotalSeconds != 90 {
		t.Errorf("cafe stats = %+v", cafe)
	}
}

func TestConversationRepo_RecordConversation(t *testing.T) {
	s := openTestStore(t)
	repo := s.ConversationRepo()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	profile := &ProfileRecord{LearnerID: "l1", Level: "A1", Preference: "auto", CreatedAt: base, UpdatedAt: base}
	if err := s.ProfileRepo().SaveProfile(ctx, profile); err != nil {
		t.Fatal(err)
	}

	first := &ConversationRecord{ID: "c1", LearnerID: "l1", ThemeID: "cafe", Messages: 4, CorrectMessages: 3, Accuracy: 75, XP: 10, CreatedAt: base}
	err := repo.RecordConversation(ctx, first, 20, func(recent []ConversationRecord) (*ProfileRecord, error) {
		if len(recent) != 1 || recent[0].ID != "c1" {
			t.Errorf("recent = %+v, want the new conversation", recent)
		}
		p := *profile
		p.TotalXP = 10
		return &p, nil
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	boom := errors.New("profile rejected")
	second := &ConversationRecord{ID: "c2", LearnerID: "l1", ThemeID: "cafe", Messages: 2, CorrectMessages: 2, Accuracy: 100, XP: 5, CreatedAt: base.Add(time.Minute)}
	err = repo.RecordConversation(ctx, second, 20, func([]ConversationRecord) (*ProfileRecord, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}

	recent, err := repo.RecentConversations(ctx, "l1", 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].ID != "c1" {
		t.Errorf("recent = %+v, want only c1 after rollback", recent)
	}
	got, err := s.ProfileRepo().GetProfile(ctx, "l1")
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalXP != 10 {
		t.Errorf("TotalXP = %d, want 10", got.TotalXP)
	}
}

func TestEventRepo_LLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "anthropic", Model: "m1", Purpose: "dialogue-practice", InputTokens: 100, OutputTokens: 50, LatencyMs: 200, Success: true, RequestBody: "req", ResponseBody: "resp"},
		{Provider: "anthropic", Model: "m1", Purpose: "dialogue-practice", InputTokens: 300, OutputTokens: 150, LatencyMs: 400, Success: true},
		{Provider: "anthropic", Model: "m1", Purpose: "dialogue-challenge", Success: false, ErrorMessage: "boom"},
	}
	for _, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	list, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(list) != 2 || list[0].Purpose != "dialogue-challenge" || list[0].Success {
		t.Errorf("query = %+v", list)
	}

	first, err := repo.GetLLMEvent(ctx, list[1].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first.InputTokens != 300 {
		t.Errorf("InputTokens = %d, want 300", first.InputTokens)
	}
	if _, err := repo.GetLLMEvent(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("by purpose: %v", err)
	}
	if len(byPurpose) != 2 || byPurpose[0].Purpose != "dialogue-practice" || byPurpose[0].Calls != 2 ||
		byPurpose[0].InputTokens != 400 || byPurpose[0].AvgLatencyMs != 300 {
		t.Errorf("by purpose = %+v", byPurpose)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("by model: %v", err)
	}
	if len(byModel) != 1 || byModel[0].Calls != 2 || byModel[0].OutputTokens != 200 {
		t.Errorf("by model = %+v", byModel)
	}
}

func TestEventRepo_DomainEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	if err := repo.AppendMasteryEvent(ctx, MasteryEventData{LearnerID: "l1", Topic: "dative", FromTier: "beginner", ToTier: "intermediate", CorrectUses: 5}); err != nil {
		t.Fatalf("mastery event: %v", err)
	}
	if err := repo.AppendLessonEvent(ctx, LessonEventData{LearnerID: "l1", LessonID: "lesson-A1-1", FromStatus: "in_progress", ToStatus: "completed", Score: 70}); err != nil {
		t.Fatalf("lesson event: %v", err)
	}

	var n int
	if err := s.DB().QueryRow("SELECT COUNT(*) FROM mastery_events").Scan(&n); err != nil || n != 1 {
		t.Errorf("mastery_events count = %d, %v", n, err)
	}
	if err := s.DB().QueryRow("SELECT COUNT(*) FROM lesson_events").Scan(&n); err != nil || n != 1 {
		t.Errorf("lesson_events count = %d, %v", n, err)
	}
}

func TestIntSet_ValueAndScan(t *testing.T) {
	v, err := IntSet{3, 1, 3, 2}.Value()
	if err != nil {
		t.Fatal(err)
	}
	if v != "1,2,3" {
		t.Errorf("Value() = %v, want 1,2,3", v)
	}

	var s IntSet
	if err := s.Scan([]byte("4, 2")); err != nil {
		t.Fatal(err)
	}
	if len(s) != 2 || s[0] != 2 || s[1] != 4 {
		t.Errorf("Scan = %v", s)
	}

	if err := s.Scan(""); err != nil || s != nil {
		t.Errorf("Scan(\"\") = %v, %v", s, err)
	}
	if err := s.Scan("x"); err == nil {
		t.Error("expected error for malformed set")
	}
}

func TestUpsertQuery(t *testing.T) {
	got := upsertQuery(ProfilesTable, "learner_id")
	want := "INSERT INTO profiles (learner_id, display_name, level, rolling_accuracy, vocabulary_size, preference, total_xp, telegram_chat_id, created_at, updated_at) " +
		"VALUES (:learner_id, :display_name, :level, :rolling_accuracy, :vocabulary_size, :preference, :total_xp, :telegram_chat_id, :created_at, :updated_at) " +
		"ON CONFLICT (learner_id) DO UPDATE SET display_name = excluded.display_name, level = excluded.level, rolling_accuracy = excluded.rolling_accuracy, " +
		"vocabulary_size = excluded.vocabulary_size, preference = excluded.preference, total_xp = excluded.total_xp, telegram_chat_id = excluded.telegram_chat_id, " +
		"created_at = excluded.created_at, updated_at = excluded.updated_at"
	if got != want {
		t.Errorf("upsertQuery =\n%s\nwant\n%s", got, want)
	}
}

func TestKeyedMutex(t *testing.T) {
	km := NewKeyedMutex()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		counter int
		maxSeen int
		active  int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("l1")
			defer unlock()

			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			counter++

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if counter != 20 {
		t.Errorf("counter = %d, want 20", counter)
	}
	if maxSeen != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxSeen)
	}
	if km.held() != 0 {
		t.Errorf("held() = %d after release, want 0", km.held())
	}

	// Distinct keys do not block each other.
	unlockA := km.Lock("a")
	unlockB := km.Lock("b")
	unlockB()
	unlockA()
}
