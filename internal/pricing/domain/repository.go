package domain

import "context"

// CalculationRepository is the persistence contract for calculations.
type CalculationRepository interface {
	// WithTx runs fn inside a transaction. The context passed to fn carries
	// the transaction, and repository calls made with it join it.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	// Save stores a calculation and backfills its ID and CreatedAt.
	Save(ctx context.Context, calc *Calculation) error

	// SaveBatch stores calculations in one write and backfills their IDs.
	SaveBatch(ctx context.Context, calcs []*Calculation) error

	// FindByID returns the calculation, or nil when it does not exist.
	FindByID(ctx context.Context, id uint) (*Calculation, error)

	// List returns calculations ordered newest first.
	List(ctx context.Context, offset, limit int) ([]*Calculation, error)

	// Count returns the number of stored calculations.
	Count(ctx context.Context) (int64, error)

	// DeleteByIDs removes the given calculations and reports how many rows
	// actually existed.
	DeleteByIDs(ctx context.Context, ids []uint) (int64, error)
}
