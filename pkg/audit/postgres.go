package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/yourorg/azure-blob-kit/pkg/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS blob_deletions (
	id               BIGSERIAL PRIMARY KEY,
	container        TEXT NOT NULL,
	blob             TEXT NOT NULL,
	snapshots_method TEXT NOT NULL,
	request_id       TEXT NOT NULL DEFAULT '',
	client_request_id TEXT NOT NULL DEFAULT '',
	outcome          TEXT NOT NULL,
	status_code      INTEGER NOT NULL DEFAULT 0,
	created_at       TIMESTAMPTZ NOT NULL
)`

// PostgresRecorder persists audit entries in a Postgres table.
type PostgresRecorder struct {
	db     *sql.DB
	logger logging.Logger
}

// NewPostgresRecorder opens the database, verifies connectivity, and
// creates the audit table if it does not exist.
func NewPostgresRecorder(dsn string, logger logging.Logger) (*PostgresRecorder, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure audit schema: %w", err)
	}

	logger.Info("Audit store ready")
	return &PostgresRecorder{db: db, logger: logger}, nil
}

// Record inserts one audit entry.
func (r *PostgresRecorder) Record(ctx context.Context, entry Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	const query = `
		INSERT INTO blob_deletions
			(container, blob, snapshots_method, request_id, client_request_id, outcome, status_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		entry.Container, entry.Blob, entry.SnapshotsMethod,
		entry.RequestID, entry.ClientRequestID,
		string(entry.Outcome), entry.StatusCode, entry.CreatedAt)
	if err != nil {
		r.logger.WithError(err).Error("Failed to record audit entry",
			logging.NewField("container", entry.Container),
			logging.NewField("blob", entry.Blob))
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// Close closes the database.
func (r *PostgresRecorder) Close() error {
	return r.db.Close()
}
