package storage

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestMemoryStoreListRecentNewestFirst(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
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
		t.Errorf("expected newest first, got %v", records)
	}
}

func TestMemoryStoreScopesRecordsByUser(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
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
}

func TestMemoryStoreAssignsSequentialIDs(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())

	first := insertRecord(t, store, "user-a", "um")
	second := insertRecord(t, store, "user-a", "dois")
	if first.ID != 1 || second.ID != 2 {
		t.Errorf("expected sequential IDs from 1, got %d and %d", first.ID, second.ID)
	}
}
