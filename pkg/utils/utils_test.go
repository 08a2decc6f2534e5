package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name       string
		offset     int
		limit      int
		total      int64
		wantOffset int
		wantLimit  int
		wantPages  int64
	}{
		{name: "standard page", offset: 0, limit: 10, total: 95, wantOffset: 0, wantLimit: 10, wantPages: 10},
		{name: "negative offset and zero limit", offset: -5, limit: 0, total: 3, wantOffset: 0, wantLimit: 10, wantPages: 1},
		{name: "limit capped at 100", offset: 10, limit: 200, total: 1000, wantOffset: 10, wantLimit: 100, wantPages: 10},
		{name: "empty result set", offset: 0, limit: 10, total: 0, wantOffset: 0, wantLimit: 10, wantPages: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.offset, tt.limit, tt.total)
			assert.Equal(t, tt.wantOffset, p.Offset)
			assert.Equal(t, tt.wantLimit, p.Limit)
			assert.Equal(t, tt.total, p.Total)
			assert.Equal(t, tt.wantPages, p.Pages)
		})
	}
}

func TestRetryWithBackoffEventualSuccess(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(5, time.Millisecond, 5*time.Millisecond, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoffExhausted(t *testing.T) {
	attempts := 0
	wantErr := errors.New("permanent")
	err := RetryWithBackoff(3, time.Millisecond, 2*time.Millisecond, func() error {
		attempts++
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)
	assert.Equal(t, 3, attempts)
}

func TestRandIntRange(t *testing.T) {
	for i := 0; i < 100; i++ {
		n := RandInt(5, 10)
		assert.GreaterOrEqual(t, n, 5)
		assert.LessOrEqual(t, n, 10)
	}
}

func TestRandFloatRange(t *testing.T) {
	for i := 0; i < 100; i++ {
		f := RandFloat(1.5, 2.5)
		assert.GreaterOrEqual(t, f, 1.5)
		assert.Less(t, f, 2.5)
	}
}
