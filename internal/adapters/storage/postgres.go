package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-triage/internal/core"
)

var postgresMigrations = []migration{
	{
		version: 1,
		name:    "create_classifications",
		statements: []string{`
			CREATE TABLE IF NOT EXISTS classifications (
				id BIGSERIAL PRIMARY KEY,
				classification TEXT NOT NULL,
				confidence_score DOUBLE PRECISION NOT NULL,
				suggested_response TEXT,
				email_content TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
		},
	},
	{
		version: 2,
		name:    "add_topic_and_sentiment",
		statements: []string{
			`ALTER TABLE classifications ADD COLUMN IF NOT EXISTS key_topic TEXT`,
			`ALTER TABLE classifications ADD COLUMN IF NOT EXISTS sentiment TEXT`,
		},
	},
	{
		version: 3,
		name:    "add_user_scoping",
		statements: []string{
			`ALTER TABLE classifications ADD COLUMN IF NOT EXISTS user_id TEXT NOT NULL DEFAULT ''`,
			`CREATE INDEX IF NOT EXISTS idx_classifications_user_id ON classifications (user_id)`,
		},
	},
}

// PostgresStore is a PostgreSQL implementation of the HistoryRepository
// interface backed by a pgx connection pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger

	mu          sync.Mutex
	initialized bool
}

// NewPostgresStore opens a connection pool against the given DSN and
// verifies connectivity. A missing or unreachable database fails loudly
// here rather than on the first request.
func NewPostgresStore(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is not configured")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create Postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	return &PostgresStore{pool: pool, logger: logger}, nil
}

// Initialize applies pending migrations. Idempotent; a failed attempt is
// retried on the next call.
func (s *PostgresStore) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	if err := s.applyMigrations(ctx); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStorage, err)
	}
	s.initialized = true
	return nil
}

func (s *PostgresStore) applyMigrations(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	for _, m := range postgresMigrations {
		var applied int
		if err := s.pool.QueryRow(ctx,
			"SELECT COUNT(*) FROM schema_migrations WHERE version = $1", m.version,
		).Scan(&applied); err != nil {
			return fmt.Errorf("checking migration %d: %w", m.version, err)
		}
		if applied > 0 {
			continue
		}

		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", m.version, err)
		}
		if err := s.runMigration(ctx, tx, m); err != nil {
			tx.Rollback(ctx)
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("committing migration %d: %w", m.version, err)
		}
	}

	return nil
}

func (s *PostgresStore) runMigration(ctx context.Context, tx pgx.Tx, m migration) error {
	for _, stmt := range m.statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying migration %d (%s): %w", m.version, m.name, err)
		}
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO schema_migrations (version, name) VALUES ($1, $2)", m.version, m.name,
	); err != nil {
		return fmt.Errorf("recording migration %d: %w", m.version, err)
	}
	return nil
}

// Insert appends one classification row, stamping ID and CreatedAt.
func (s *PostgresStore) Insert(ctx context.Context, rec *core.ClassificationRecord) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}

	now := time.Now().UTC()
	err := s.pool.QueryRow(ctx, `
		INSERT INTO classifications (user_id, classification, confidence_score, key_topic, sentiment, suggested_response, email_content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		rec.UserID, rec.Classification, rec.ConfidenceScore, rec.KeyTopic, rec.Sentiment,
		rec.SuggestedResponse, rec.EmailContent, now,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to insert classification: %w", err)
	}
	rec.CreatedAt = now
	return nil
}

// ListRecent returns up to limit records for the user, newest first.
func (s *PostgresStore) ListRecent(ctx context.Context, userID string, limit int) ([]core.ClassificationRecord, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	return s.list(ctx, `
		SELECT id, user_id, classification, confidence_score, key_topic, sentiment, suggested_response, email_content, created_at
		FROM classifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, userID, limit)
}

// ListAll returns every record for the user, oldest first.
func (s *PostgresStore) ListAll(ctx context.Context, userID string) ([]core.ClassificationRecord, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	return s.list(ctx, `
		SELECT id, user_id, classification, confidence_score, key_topic, sentiment, suggested_response, email_content, created_at
		FROM classifications
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC`, userID)
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...interface{}) ([]core.ClassificationRecord, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query classifications: %w", err)
	}
	defer rows.Close()

	var records []core.ClassificationRecord
	for rows.Next() {
		var rec core.ClassificationRecord
		var keyTopic, sentiment *string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Classification, &rec.ConfidenceScore,
			&keyTopic, &sentiment, &rec.SuggestedResponse, &rec.EmailContent, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan classification row: %w", err)
		}
		if keyTopic != nil {
			rec.KeyTopic = *keyTopic
		}
		if sentiment != nil {
			rec.Sentiment = *sentiment
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
