package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloat(t *testing.T) {
	testCases := []struct {
		name   string
		in     interface{}
		want   float64
		wantOK bool
	}{
		{"float64", 12.5, 12.5, true},
		{"int64", int64(7), 7, true},
		{"json number", json.Number("3.25"), 3.25, true},
		{"numeric string", " 42 ", 42, true},
		{"bytes", []byte("1.5"), 1.5, true},
		{"text", "abc", 0, false},
		{"bool", true, 0, false},
		{"nil", nil, 0, false},
		{"nan", math.NaN(), 0, false},
		{"inf string", "Inf", 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Float(tc.in)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestText(t *testing.T) {
	s, ok := Text(nil)
	assert.False(t, ok)
	assert.Equal(t, "", s)

	s, ok = Text(time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, "2024-05-01", s)

	s, _ = Text(1.5)
	assert.Equal(t, "1.5", s)

	s, _ = Text(true)
	assert.Equal(t, "true", s)
}

func TestRowProject(t *testing.T) {
	row := Row{"symbol": "AAPL", "price": 10.0, "extra": "x"}

	out := row.Project([]string{"symbol", "marketCap"})

	assert.Equal(t, Row{"symbol": "AAPL", "marketCap": nil}, out)
	out["symbol"] = "MSFT"
	assert.Equal(t, "AAPL", row["symbol"])
}

func TestFetchError(t *testing.T) {
	cause := errors.New("connection refused")

	err := NewFetchError(DatasetScores, ModeSQL, cause)
	require.Error(t, err)
	assert.True(t, IsFetchError(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "scores")

	wrapped := fmt.Errorf("execute: %w", err)
	assert.True(t, IsFetchError(wrapped))
	assert.Same(t, err, NewFetchError(DatasetScores, ModeCache, err))

	assert.NoError(t, NewFetchError(DatasetScores, ModeSQL, nil))
	assert.False(t, IsFetchError(cause))
}
