// Package utils provides small shared helpers: pagination, retries and
// random value generation.
package utils

import (
	"math/rand"
	"time"
)

// Pagination describes an offset-based page of results.
type Pagination struct {
	Offset int   `json:"offset"`
	Limit  int   `json:"limit"`
	Total  int64 `json:"total"`
	Pages  int64 `json:"pages"`
}

// NewPagination normalizes offset and limit and computes the page count.
// The limit defaults to 10 and is capped at 100.
func NewPagination(offset, limit int, total int64) *Pagination {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	pages := (total + int64(limit) - 1) / int64(limit)

	return &Pagination{
		Offset: offset,
		Limit:  limit,
		Total:  total,
		Pages:  pages,
	}
}

// RetryWithBackoff retries fn with exponentially growing delays, capped at
// maxDelay. It returns the last error when all attempts fail.
func RetryWithBackoff(maxAttempts int, initialDelay time.Duration, maxDelay time.Duration, fn func() error) error {
	var lastErr error
	delay := initialDelay

	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt < maxAttempts-1 {
			time.Sleep(delay)
			delay = time.Duration(float64(delay) * 1.5)
			if delay > maxDelay {
				delay = maxDelay
			}
		}
	}
	return lastErr
}

// RandInt returns a random integer in [min, max].
func RandInt(min, max int) int {
	return min + rand.Intn(max-min+1)
}

// RandFloat returns a random float in [min, max).
func RandFloat(min, max float64) float64 {
	return min + rand.Float64()*(max-min)
}
