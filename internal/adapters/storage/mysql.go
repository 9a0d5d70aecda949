package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-triage/internal/core"
)

var mysqlMigrations = []migration{
	{
		version: 1,
		name:    "create_classifications",
		statements: []string{`
			CREATE TABLE IF NOT EXISTS classifications (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				classification VARCHAR(32) NOT NULL,
				confidence_score DOUBLE NOT NULL,
				suggested_response TEXT,
				email_content MEDIUMTEXT,
				created_at DATETIME NOT NULL
			)`,
		},
	},
	{
		version: 2,
		name:    "add_topic_and_sentiment",
		statements: []string{
			`ALTER TABLE classifications ADD COLUMN key_topic VARCHAR(255)`,
			`ALTER TABLE classifications ADD COLUMN sentiment VARCHAR(64)`,
		},
	},
	{
		version: 3,
		name:    "add_user_scoping",
		statements: []string{
			`ALTER TABLE classifications ADD COLUMN user_id VARCHAR(64) NOT NULL DEFAULT ''`,
			`CREATE INDEX idx_classifications_user_id ON classifications (user_id)`,
		},
	},
}

// MySQLStore is a MySQL implementation of the HistoryRepository interface
type MySQLStore struct {
	db     *sql.DB
	logger *zap.Logger

	mu          sync.Mutex
	initialized bool
}

// NewMySQLStore opens a connection pool against the given DSN and verifies
// connectivity. An unreachable server fails loudly here rather than on the
// first request.
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	return &MySQLStore{db: db, logger: logger}, nil
}

// Initialize applies pending migrations. Idempotent; a failed attempt is
// retried on the next call.
func (s *MySQLStore) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	if err := applyMigrations(ctx, s.db, mysqlMigrations); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStorage, err)
	}
	s.initialized = true
	return nil
}

// Insert appends one classification row, stamping ID and CreatedAt.
func (s *MySQLStore) Insert(ctx context.Context, rec *core.ClassificationRecord) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO classifications (user_id, classification, confidence_score, key_topic, sentiment, suggested_response, email_content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.UserID, rec.Classification, rec.ConfidenceScore, rec.KeyTopic, rec.Sentiment,
		rec.SuggestedResponse, rec.EmailContent, now.Format("2006-01-02 15:04:05"),
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
func (s *MySQLStore) ListRecent(ctx context.Context, userID string, limit int) ([]core.ClassificationRecord, error) {
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
func (s *MySQLStore) ListAll(ctx context.Context, userID string) ([]core.ClassificationRecord, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	return s.list(ctx, `
		SELECT id, user_id, classification, confidence_score, key_topic, sentiment, suggested_response, email_content, created_at
		FROM classifications
		WHERE user_id = ?
		ORDER BY created_at ASC, id ASC`, userID)
}

func (s *MySQLStore) list(ctx context.Context, query string, args ...interface{}) ([]core.ClassificationRecord, error) {
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
		t, err := time.Parse("2006-01-02 15:04:05", createdAt)
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

// Close closes the database connection pool.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
