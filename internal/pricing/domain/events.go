package domain

import "time"

const (
	CalculationCompletedEventType      = "CalculationCompleted"
	BatchCalculationCompletedEventType = "BatchCalculationCompleted"
	CalculationsDeletedEventType       = "CalculationsDeleted"
)

// CalculationCompletedEvent is published after a calculation is stored.
type CalculationCompletedEvent struct {
	CalculationID uint      `json:"calculation_id"`
	S0            float64   `json:"s0"`
	X             float64   `json:"x"`
	T             float64   `json:"t"`
	R             float64   `json:"r"`
	D             float64   `json:"d"`
	V             float64   `json:"v"`
	CallPrice     float64   `json:"call_price"`
	PutPrice      float64   `json:"put_price"`
	CreatedAt     int64     `json:"created_at"`
	OccurredOn    time.Time `json:"occurred_on"`
}

// BatchCalculationCompletedEvent is published after a batch of calculations
// is stored.
type BatchCalculationCompletedEvent struct {
	BatchID     string    `json:"batch_id"`
	Total       int       `json:"total"`
	Successful  int       `json:"successful"`
	Failed      int       `json:"failed"`
	DurationMs  float64   `json:"duration_ms"`
	CompletedAt int64     `json:"completed_at"`
	OccurredOn  time.Time `json:"occurred_on"`
}

// CalculationsDeletedEvent is published after history rows are removed.
type CalculationsDeletedEvent struct {
	IDs        []uint    `json:"ids"`
	Deleted    int64     `json:"deleted"`
	OccurredOn time.Time `json:"occurred_on"`
}
