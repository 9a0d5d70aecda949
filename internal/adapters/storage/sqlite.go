package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-triage/internal/core"
)

var sqliteMigrations = []migration{
	{
		version: 1,
		name:    "create_classifications",
		statements: []string{`
			CREATE TABLE IF NOT EXISTS classifications (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				classification TEXT NOT NULL,
				confidence_score REAL NOT NULL,
				suggested_response TEXT,
				email_content TEXT,
				created_at TEXT NOT NULL
			)`,
		},
	},
	{
		version: 2,
		name:    "add_topic_and_sentiment",
		statements: []string{
			`ALTER TABLE classifications ADD COLUMN key_topic TEXT`,
			`ALTER TABLE classifications ADD COLUMN sentiment TEXT`,
		},
	},
	{
		version: 3,
		name:    "add_user_scoping",
		statements: []string{
			`ALTER TABLE classifications ADD COLUMN user_id TEXT NOT NULL DEFAULT ''`,
			`CREATE INDEX IF NOT EXISTS idx_classifications_user_id ON classifications (user_id)`,
		},
	},
}

// SQLiteStore is a SQLite implementation of the HistoryRepository interface
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger

	mu          sync.Mutex
	initialized bool
}

// NewSQLiteStore opens (or creates) the SQLite database at dbPath. Pass
// ":memory:" for an in-memory database (used by tests).
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Single connection avoids "database is locked" errors under
	// concurrent requests.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Initialize applies pending migrations. Idempotent; a failed attempt is
// retried on the next call.
func (s *SQLiteStore) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	if err := applyMigrations(ctx, s.db, sqliteMigrations); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStorage, err)
	}
	s.initialized = true
	return nil
}

// Insert appends one classification row, stamping ID and CreatedAt.
func (s *SQLiteStore) Insert(ctx context.Context, rec *core.ClassificationRecord) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO classifications (user_id, classification, confidence_score, key_topic, sentiment, suggested_response, email_content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.UserID, rec.Classification, rec.ConfidenceScore, rec.KeyTopic, rec.Sentiment,
		rec.SuggestedResponse, rec.EmailContent, now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert classification: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted id: %w", err)
	}
	rec.ID = id
	rec.CreatedAt = now
	return nil
}

// ListRecent returns up to limit records for the user, newest first.
func (s *SQLiteStore) ListRecent(ctx context.Context, userID string, limit int) ([]core.ClassificationRecord, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	return s.list(ctx, `
		SELECT id, user_id, classification, confidence_score, key_topic, sentiment, suggested_response, email_content, created_at
		FROM classifications
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, userID, limit)
}

// ListAll returns every record for the user, oldest first.
func (s *SQLiteStore) ListAll(ctx context.Context, userID string) ([]core.ClassificationRecord, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	return s.list(ctx, `
		SELECT id, user_id, classification, confidence_score, key_topic, sentiment, suggested_response, email_content, created_at
		FROM classifications
		WHERE user_id = ?
		ORDER BY created_at ASC, id ASC`, userID)
}

func (s *SQLiteStore) list(ctx context.Context, query string, args ...interface{}) ([]core.ClassificationRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query classifications: %w", err)
	}
	defer rows.Close()

	var records []core.ClassificationRecord
	for rows.Next() {
		var rec core.ClassificationRecord
		var keyTopic, sentiment sql.NullString
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Classification, &rec.ConfidenceScore,
			&keyTopic, &sentiment, &rec.SuggestedResponse, &rec.EmailContent, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan classification row: %w", err)
		}
		rec.KeyTopic = keyTopic.String
		rec.Sentiment = sentiment.String
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			s.logger.Warn("Unparseable created_at in history row",
				zap.Int64("id", rec.ID),
				zap.String("created_at", createdAt))
		}
		rec.CreatedAt = t
		records = append(records, rec)
	}
	return records, rows.Err()
}

// AppliedMigrations returns the applied migration versions in ascending order.
func (s *SQLiteStore) AppliedMigrations(ctx context.Context) ([]int, error) {
	return appliedVersions(ctx, s.db)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
