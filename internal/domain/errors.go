package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownDataset is returned when a dataset key is not registered.
var ErrUnknownDataset = errors.New("unknown dataset")

// FetchError reports a failed SQL execution or cache reload.
// The cache keeps its last good snapshot when this is returned.
type FetchError struct {
	Dataset string
	Mode    ExecutionMode
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s (%s): %v", e.Dataset, e.Mode, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError wraps err as a FetchError unless it already is one.
func NewFetchError(dataset string, mode ExecutionMode, err error) error {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &FetchError{Dataset: dataset, Mode: mode, Err: err}
}

// IsFetchError reports whether err is, or wraps, a FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// ConfigError reports invalid static or environment configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}
