// Package snapshots persists the last good row snapshot of each cached dataset.
// Rows are stored as msgpack blobs so a restarted process can serve stale
// data before its first reload completes.
package snapshots

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/smartwealth/internal/database"
	"github.com/aristath/smartwealth/internal/domain"
)

// Meta describes a persisted snapshot without its rows
type Meta struct {
	Dataset   string        `json:"dataset"`
	Rows      int           `json:"rows"`
	FetchedAt time.Time     `json:"fetched_at"`
	TTL       time.Duration `json:"ttl"`
}

// Repository stores snapshots in the dataset_snapshots table.
// It satisfies cachestore.Persister.
type Repository struct {
	db *database.DB
}

// NewRepository creates a new snapshot repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

func encodeRows(rows []domain.Row) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRows(data []byte) ([]domain.Row, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	var rows []domain.Row
	if err := dec.Decode(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// SaveSnapshot upserts the snapshot for a dataset
func (r *Repository) SaveSnapshot(ctx context.Context, dataset string, rows []domain.Row, fetchedAt time.Time, ttl time.Duration) error {
	data, err := encodeRows(rows)
	if err != nil {
		return fmt.Errorf("failed to encode %s snapshot: %w", dataset, err)
	}

	err = database.WithTransaction(r.db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO dataset_snapshots (dataset, data, row_count, fetched_at, ttl_seconds)
			 VALUES (?, ?, ?, ?, ?)`,
			dataset, data, len(rows), fetchedAt.UnixMilli(), int64(ttl.Seconds()),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to store %s snapshot: %w", dataset, err)
	}
	return nil
}

// LoadSnapshot returns the persisted rows regardless of age.
// found is false when the dataset has never been saved.
func (r *Repository) LoadSnapshot(ctx context.Context, dataset string) ([]domain.Row, time.Time, bool, error) {
	var data []byte
	var fetchedAtMs int64
	err := r.db.QueryRowContext(ctx,
		"SELECT data, fetched_at FROM dataset_snapshots WHERE dataset = ?", dataset,
	).Scan(&data, &fetchedAtMs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("failed to load %s snapshot: %w", dataset, err)
	}

	rows, err := decodeRows(data)
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("failed to decode %s snapshot: %w", dataset, err)
	}
	return rows, time.UnixMilli(fetchedAtMs).UTC(), true, nil
}

// List returns metadata for every persisted snapshot, ordered by dataset
func (r *Repository) List(ctx context.Context) ([]Meta, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT dataset, row_count, fetched_at, ttl_seconds FROM dataset_snapshots ORDER BY dataset")
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Meta
	for rows.Next() {
		var m Meta
		var fetchedAtMs, ttlSeconds int64
		if err := rows.Scan(&m.Dataset, &m.Rows, &fetchedAtMs, &ttlSeconds); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot meta: %w", err)
		}
		m.FetchedAt = time.UnixMilli(fetchedAtMs).UTC()
		m.TTL = time.Duration(ttlSeconds) * time.Second
		out = append(out, m)
	}
	return out, rows.Err()
}

// Delete removes a dataset's snapshot
func (r *Repository) Delete(ctx context.Context, dataset string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM dataset_snapshots WHERE dataset = ?", dataset); err != nil {
		return fmt.Errorf("failed to delete %s snapshot: %w", dataset, err)
	}
	return nil
}

// DeleteOlderThan removes snapshots fetched before cutoff and returns how many were deleted
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM dataset_snapshots WHERE fetched_at < ?", cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old snapshots: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}
