package cachestore

import (
	"time"

	"github.com/aristath/smartwealth/internal/domain"
)

// Snapshot is an immutable point-in-time copy of a dataset's rows.
// Callers must treat the rows as read-only.
type Snapshot struct {
	dataset   string
	rows      []domain.Row
	fetchedAt time.Time
	ttl       time.Duration
}

func (s *Snapshot) Dataset() string                 { return s.dataset }
func (s *Snapshot) FetchedAt() time.Time            { return s.fetchedAt }
func (s *Snapshot) TTL() time.Duration              { return s.ttl }
func (s *Snapshot) Len() int                        { return len(s.rows) }
func (s *Snapshot) Age(now time.Time) time.Duration { return now.Sub(s.fetchedAt) }

// Rows returns the snapshot's rows. The slice is a copy; the row maps are shared.
func (s *Snapshot) Rows() []domain.Row {
	return append([]domain.Row(nil), s.rows...)
}

// IsStale reports whether the snapshot is older than its TTL or holds no rows
func (s *Snapshot) IsStale(now time.Time) bool {
	if s == nil || len(s.rows) == 0 {
		return true
	}
	return now.Sub(s.fetchedAt) > s.ttl
}
