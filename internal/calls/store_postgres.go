package calls

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PostgresStore persists calls in a single table with JSONB metadata.
//
// Schema (migration managed outside this package):
//
//	CREATE TABLE calls (
//	    call_id          TEXT PRIMARY KEY,
//	    to_number        TEXT NOT NULL,
//	    strategy         TEXT NOT NULL,
//	    status           TEXT NOT NULL,
//	    verdict          TEXT NOT NULL,
//	    confidence       DOUBLE PRECISION NOT NULL DEFAULT 0,
//	    metadata         JSONB NOT NULL DEFAULT '{}',
//	    duration_seconds INT NOT NULL DEFAULT 0,
//	    cost_minor       BIGINT NOT NULL DEFAULT 0,
//	    currency         TEXT NOT NULL DEFAULT '',
//	    created_at       TIMESTAMPTZ NOT NULL,
//	    updated_at       TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX calls_metadata_gin ON calls USING GIN (metadata);
type PostgresStore struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, clock: time.Now}
}

const callColumns = `call_id, to_number, strategy, status, verdict, confidence, metadata, duration_seconds, cost_minor, currency, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, c Call) error {
	if c.CallID == "" {
		return ErrInvalidCall
	}
	now := s.clock().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	meta, err := marshalMeta(c.Metadata)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO calls (`+callColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.CallID, c.To, c.Strategy, c.Status, c.Verdict, c.Confidence,
		meta, c.DurationSeconds, c.CostMinor, c.Currency, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("calls: insert failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, callID string) (Call, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+callColumns+` FROM calls WHERE call_id = $1`, callID)
	return scanCall(row)
}

func (s *PostgresStore) Update(ctx context.Context, c Call) error {
	meta, err := marshalMeta(c.Metadata)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE calls
		SET status = $2, verdict = $3, confidence = $4, metadata = $5,
		    duration_seconds = $6, cost_minor = $7, currency = $8, updated_at = $9
		WHERE call_id = $1`,
		c.CallID, c.Status, c.Verdict, c.Confidence, meta,
		c.DurationSeconds, c.CostMinor, c.Currency, s.clock().UTC(),
	)
	if err != nil {
		return fmt.Errorf("calls: update failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByProviderID(ctx context.Context, metaKey, providerCallID string) (Call, error) {
	if metaKey == "" || providerCallID == "" {
		return Call{}, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+callColumns+` FROM calls WHERE metadata->>$1 = $2 ORDER BY created_at DESC LIMIT 1`,
		metaKey, providerCallID,
	)
	return scanCall(row)
}

func (s *PostgresStore) List(ctx context.Context, from, to time.Time, limit int) ([]Call, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+callColumns+` FROM calls
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC
		LIMIT $3`, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("calls: list failed: %w", err)
	}
	defer rows.Close()

	out := make([]Call, 0)
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCall(row rowScanner) (Call, error) {
	var c Call
	var meta []byte
	err := row.Scan(&c.CallID, &c.To, &c.Strategy, &c.Status, &c.Verdict, &c.Confidence,
		&meta, &c.DurationSeconds, &c.CostMinor, &c.Currency, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Call{}, ErrNotFound
	}
	if err != nil {
		return Call{}, fmt.Errorf("calls: scan failed: %w", err)
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &c.Metadata); err != nil {
			return Call{}, fmt.Errorf("calls: metadata decode failed: %w", err)
		}
	}
	return c, nil
}

func marshalMeta(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("calls: metadata encode failed: %w", err)
	}
	return b, nil
}
