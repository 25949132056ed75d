package storage

import (
	"context"

	"github.com/poiesic/kinfolk/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the repository and releases resources.
	Close() error
}

// Collection is the similarity-searchable view over the records of one kind.
type Collection interface {
	// Kind returns the record kind this collection holds.
	Kind() core.ContentType

	// FindSimilar returns records with a stored embedding whose cosine
	// similarity to vector is >= minSimilarity, highest first, up to limit.
	// Records whose ID is in exclude are skipped. Records whose embedding
	// length differs from vector are skipped.
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float64, limit int, exclude ...core.ID) ([]*core.Match, error)

	// KeywordSearch returns records whose title or body contains query,
	// ignoring case, up to limit.
	KeywordSearch(ctx context.Context, query string, limit int) ([]core.Record, error)
}

// EmbeddingWriter persists a record's embedding fields without touching anything else.
type EmbeddingWriter interface {
	// UpdateEmbedding stores record's embedding and freshness timestamp.
	// Post-write hooks are not fired.
	// Returns ErrNotFound if the record doesn't exist.
	UpdateEmbedding(ctx context.Context, record core.Record) error
}

// RecordRepository stores family records of every kind.
type RecordRepository interface {
	Repository
	EmbeddingWriter

	// SaveRecord inserts or replaces a record.
	// For records with ID=0, generates a new ID from sequence.
	// Sets CreatedAt on first save and UpdatedAt on every save.
	// Returns true when the record did not exist before.
	SaveRecord(ctx context.Context, record core.Record) (bool, error)

	// GetRecord retrieves a single record.
	// Returns ErrNotFound if the record doesn't exist.
	GetRecord(ctx context.Context, kind core.ContentType, id core.ID) (core.Record, error)

	// DeleteRecord removes a record.
	// Returns ErrNotFound if the record doesn't exist.
	DeleteRecord(ctx context.Context, kind core.ContentType, id core.ID) error

	// ListRecords returns every record of a kind, ordered by ID.
	ListRecords(ctx context.Context, kind core.ContentType) ([]core.Record, error)

	// NeedingEmbedding returns records of a kind whose embedding or
	// freshness timestamp is missing, ordered by ID.
	NeedingEmbedding(ctx context.Context, kind core.ContentType) ([]core.Record, error)

	// CountRecords returns the number of records of a kind and how many carry an embedding.
	CountRecords(ctx context.Context, kind core.ContentType) (total, embedded int, err error)

	// Collection returns the searchable view over one kind.
	Collection(kind core.ContentType) Collection
}

// EmbeddingCacheStore maps content hashes to embeddings.
// Implementations must be safe for concurrent use.
type EmbeddingCacheStore interface {
	// GetEmbedding returns the entry for hash.
	// Returns ErrNotFound on a miss.
	GetEmbedding(ctx context.Context, hash string) (*core.EmbeddingCacheEntry, error)

	// PutEmbedding inserts or replaces the entry keyed by entry.ContentHash.
	PutEmbedding(ctx context.Context, entry *core.EmbeddingCacheEntry) error

	// Close releases resources held by the store.
	Close() error
}

// SessionRepository stores chat sessions and their query logs.
type SessionRepository interface {
	// CreateSession stores a new session.
	// Returns ErrDuplicateKey if a session with the same ID exists.
	CreateSession(ctx context.Context, session *core.ChatSession) error

	// GetSession retrieves a session.
	// Returns ErrNotFound if the session doesn't exist.
	GetSession(ctx context.Context, id string) (*core.ChatSession, error)

	// AddQueryLog appends a log entry to its session.
	// Returns ErrNotFound if the session doesn't exist.
	AddQueryLog(ctx context.Context, log *core.QueryLog) (*core.QueryLog, error)

	// GetQueryLogs returns a session's log entries in insertion order.
	GetQueryLogs(ctx context.Context, sessionID string) ([]*core.QueryLog, error)
}

// CheckpointRepository stores the outcome of the last bulk embedding run per kind.
type CheckpointRepository interface {
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, kind core.ContentType) (*core.Checkpoint, error)
}
