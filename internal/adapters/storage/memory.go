package storage

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/llm-email-triage/internal/core"
)

// MemoryStore is an in-memory implementation of the HistoryRepository
// interface. Selected by configuration for no-infrastructure deployments
// and used throughout the tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records []core.ClassificationRecord
	nextID  int64
	logger  *zap.Logger
}

// NewMemoryStore creates a new in-memory history store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		logger: logger,
	}
}

// Initialize is a no-op for the in-memory store.
func (s *MemoryStore) Initialize(ctx context.Context) error {
	return nil
}

// Insert appends one record, stamping ID and CreatedAt.
func (s *MemoryStore) Insert(ctx context.Context, rec *core.ClassificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = s.nextID
	s.nextID++
	rec.CreatedAt = time.Now().UTC()
	s.records = append(s.records, *rec)
	return nil
}

// ListRecent returns up to limit records for the user, newest first.
func (s *MemoryStore) ListRecent(ctx context.Context, userID string, limit int) ([]core.ClassificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.ClassificationRecord
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		if s.records[i].UserID == userID {
			out = append(out, s.records[i])
		}
	}
	return out, nil
}

// ListAll returns every record for the user, oldest first.
func (s *MemoryStore) ListAll(ctx context.Context, userID string) ([]core.ClassificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.ClassificationRecord
	for _, rec := range s.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
