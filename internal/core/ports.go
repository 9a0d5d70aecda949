package core

import (
	"context"
	"io"
)

// LLMClient defines the interface for the external classification model.
type LLMClient interface {
	// ClassifyEmail sends one email text to the model and returns the
	// normalized result.
	ClassifyEmail(ctx context.Context, text string) (*ClassificationResult, error)
}

// HistoryRepository defines the interface for the classification history store.
type HistoryRepository interface {
	// Initialize creates the schema and applies pending migrations.
	// Safe to call repeatedly.
	Initialize(ctx context.Context) error

	// Insert appends one record, stamping ID and CreatedAt on the argument.
	Insert(ctx context.Context, rec *ClassificationRecord) error

	// ListRecent returns up to limit records for the user, newest first.
	ListRecent(ctx context.Context, userID string, limit int) ([]ClassificationRecord, error)

	// ListAll returns every record for the user, oldest first.
	ListAll(ctx context.Context, userID string) ([]ClassificationRecord, error)

	// Close releases the underlying connections.
	Close() error
}

// Exporter defines the interface for serializing a history set.
type Exporter interface {
	// Encode writes all records to w, header row included.
	Encode(w io.Writer, records []ClassificationRecord) error

	// ContentType returns the MIME type of the encoded output.
	ContentType() string

	// Filename returns the attachment filename for downloads.
	Filename() string
}
