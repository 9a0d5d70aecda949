package storage

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/mikey/llm-email-triage/internal/core"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "triage.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func insertRecord(t *testing.T, store core.HistoryRepository, userID, content string) *core.ClassificationRecord {
	t.Helper()
	rec := &core.ClassificationRecord{
		UserID:            userID,
		Classification:    core.ClassificationProductive,
		ConfidenceScore:   0.9,
		KeyTopic:          "suporte",
		Sentiment:         "Neutro",
		SuggestedResponse: "Olá.",
		EmailContent:      content,
	}
	if err := store.Insert(context.Background(), rec); err != nil {
		t.Fatalf("failed to insert record: %v", err)
	}
	return rec
}

func TestSQLiteMigrationsApplyInOrder(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := store.Initialize(ctx); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}

	versions, err := store.AppliedMigrations(ctx)
	if err != nil {
		t.Fatalf("failed to read applied migrations: %v", err)
	}
	if len(versions) != len(sqliteMigrations) {
		t.Fatalf("expected %d applied migrations, got %v", len(sqliteMigrations), versions)
	}
	for i, v := range versions {
		if v != i+1 {
			t.Errorf("expected version %d at position %d, got %d", i+1, i, v)
		}
	}
}

func TestSQLiteInitializeIsIdempotent(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := store.Initialize(ctx); err != nil {
		t.Fatalf("first initialize failed: %v", err)
	}
	insertRecord(t, store, "user-a", "conteúdo existente")

	// A second pass over an already migrated database with data must not
	// fail or touch the rows.
	store.initialized = false
	if err := store.Initialize(ctx); err != nil {
		t.Fatalf("repeated initialize failed: %v", err)
	}

	records, err := store.ListAll(ctx, "user-a")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 1 || records[0].EmailContent != "conteúdo existente" {
		t.Errorf("existing rows were disturbed: %v", records)
	}

	versions, err := store.AppliedMigrations(ctx)
	if err != nil {
		t.Fatalf("failed to read applied migrations: %v", err)
	}
	if len(versions) != len(sqliteMigrations) {
		t.Errorf("expected no duplicate migration records, got %v", versions)
	}
}

func TestSQLiteInsertAssignsIDAndTimestamp(t *testing.T) {
	store := newTestSQLiteStore(t)

	rec := insertRecord(t, store, "user-a", "primeiro")
	if rec.ID == 0 {
		t.Error("expected assigned ID")
	}
	if rec.CreatedAt.IsZero() {
		t.Error("expected assigned CreatedAt")
	}

	second := insertRecord(t, store, "user-a", "segundo")
	if second.ID <= rec.ID {
		t.Errorf("expected increasing IDs, got %d then %d", rec.ID, second.ID)
	}
}

func TestSQLiteListRecentNewestFirstWithLimit(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, content := range []string{"um", "dois", "três"} {
		insertRecord(t, store, "user-a", content)
	}

	records, err := store.ListRecent(ctx, "user-a", 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].EmailContent != "três" || records[1].EmailContent != "dois" {
		t.Errorf("expected newest first, got %q then %q", records[0].EmailContent, records[1].EmailContent)
	}
}

func TestSQLiteListAllOldestFirst(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, content := range []string{"um", "dois", "três"} {
		insertRecord(t, store, "user-a", content)
	}

	records, err := store.ListAll(ctx, "user-a")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].EmailContent != "um" || records[2].EmailContent != "três" {
		t.Errorf("expected oldest first, got %v", records)
	}
}

func TestSQLiteScopesRecordsByUser(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	insertRecord(t, store, "user-a", "do A")
	insertRecord(t, store, "user-b", "do B")

	records, err := store.ListAll(ctx, "user-a")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 1 || records[0].EmailContent != "do A" {
		t.Errorf("history leaked across users: %v", records)
	}

	recent, err := store.ListRecent(ctx, "user-b", 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(recent) != 1 || recent[0].EmailContent != "do B" {
		t.Errorf("history leaked across users: %v", recent)
	}
}

func TestSQLiteRoundTripsFields(t *testing.T) {
	store := newTestSQLiteStore(t)

	rec := &core.ClassificationRecord{
		UserID:            "user-a",
		Classification:    core.ClassificationUnproductive,
		ConfidenceScore:   0.42,
		KeyTopic:          "felicitações",
		Sentiment:         "Positivo",
		SuggestedResponse: core.DefaultSuggestedResponse,
		EmailContent:      "Feliz natal a todos!\nAbraços.",
	}
	if err := store.Insert(context.Background(), rec); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	records, err := store.ListAll(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	got := records[0]
	if got.Classification != rec.Classification ||
		got.ConfidenceScore != rec.ConfidenceScore ||
		got.KeyTopic != rec.KeyTopic ||
		got.Sentiment != rec.Sentiment ||
		got.SuggestedResponse != rec.SuggestedResponse ||
		got.EmailContent != rec.EmailContent {
		t.Errorf("record did not round-trip: %+v", got)
	}
}
