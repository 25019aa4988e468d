// Package datasets loads, normalises and serves the four company datasets.
package datasets

import (
	"fmt"
	"time"

	"github.com/aristath/smartwealth/internal/domain"
)

// Source selects where a dataset's rows come from
type Source string

const (
	SourceWarehouse Source = "warehouse"
	SourceFile      Source = "file"
	SourceS3        Source = "s3"
)

// ParseSource validates a source name from configuration
func ParseSource(dataset, name string) (Source, error) {
	switch s := Source(name); s {
	case SourceWarehouse, SourceFile, SourceS3:
		return s, nil
	case "":
		return SourceWarehouse, nil
	default:
		return "", &domain.ConfigError{Field: dataset + ".source", Reason: fmt.Sprintf("unsupported source %q", name)}
	}
}

// Settings controls how one dataset is loaded and cached
type Settings struct {
	Dataset string
	Source  Source
	TTL     time.Duration
	Limit   int
	// Path is the JSON file for file sources and the object key for S3 sources
	Path string
}

// Validate checks a dataset's settings
func (s Settings) Validate() error {
	if s.TTL <= 0 {
		return &domain.ConfigError{Field: s.Dataset + ".ttl", Reason: "must be positive"}
	}
	if s.Limit < 1 {
		return &domain.ConfigError{Field: s.Dataset + ".limit", Reason: "must be positive"}
	}
	if s.Source == SourceFile && s.Path == "" {
		return &domain.ConfigError{Field: s.Dataset + ".path", Reason: "required for file source"}
	}
	return nil
}

// DefaultSettings returns the built-in TTLs and row limits
func DefaultSettings() []Settings {
	return []Settings{
		{Dataset: domain.DatasetProfiles, Source: SourceWarehouse, TTL: 15 * time.Minute, Limit: 5000},
		{Dataset: domain.DatasetScores, Source: SourceWarehouse, TTL: 10 * time.Minute, Limit: 200},
		{Dataset: domain.DatasetEarnings, Source: SourceWarehouse, TTL: 15 * time.Minute, Limit: 50000},
		{Dataset: domain.DatasetVendors, Source: SourceWarehouse, TTL: time.Hour, Limit: 200000},
	}
}
