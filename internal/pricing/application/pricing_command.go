package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/cache"
	"github.com/wyfcoding/optionpricing/pkg/config"
	"github.com/wyfcoding/optionpricing/pkg/logger"
	"github.com/wyfcoding/optionpricing/pkg/metrics"
)

var (
	// ErrEmptyBatch rejects a batch command without inputs.
	ErrEmptyBatch = errors.New("batch must contain at least one input")
	// ErrBatchTooLarge rejects a batch command above the configured limit.
	ErrBatchTooLarge = errors.New("batch size exceeds the maximum")
	// ErrNoIDs rejects a delete command without IDs.
	ErrNoIDs = errors.New("ids must contain at least one id")
)

// CalculationCommandService handles the write side: pricing calculations,
// persisting them and staging their domain events.
type CalculationCommandService struct {
	repo      domain.CalculationRepository
	publisher domain.EventPublisher
	history   *historyCache
	metrics   *metrics.Metrics
	pool      pond.Pool
	maxRows   int
}

// NewCalculationCommandService creates the command service. redisCache may
// be nil, which disables the count cache.
func NewCalculationCommandService(
	repo domain.CalculationRepository,
	publisher domain.EventPublisher,
	redisCache *cache.RedisCache,
	m *metrics.Metrics,
	cfg config.BatchConfig,
) *CalculationCommandService {
	queueSize := cfg.MaxRows
	if queueSize < 16 {
		queueSize = 16
	}
	return &CalculationCommandService{
		repo:      repo,
		publisher: publisher,
		history:   newHistoryCache(redisCache, m),
		metrics:   m,
		pool:      pond.NewPool(cfg.Workers, pond.WithQueueSize(queueSize)),
		maxRows:   cfg.MaxRows,
	}
}

// Calculate prices one input, stores the calculation and stages its event in
// the same transaction. Validation failures and non-finite results are
// returned without touching storage.
func (s *CalculationCommandService) Calculate(ctx context.Context, cmd CalculateCommand) (*CalculationDetailDTO, error) {
	start := time.Now()
	defer logger.LogDuration(ctx, "Calculation processed")()

	result, err := domain.Price(cmd.Input())
	if err != nil {
		s.metrics.CalculationErrorsTotal.Inc()
		return nil, err
	}

	calc, err := domain.NewCalculation(result)
	if err != nil {
		s.metrics.CalculationErrorsTotal.Inc()
		return nil, fmt.Errorf("%w (call=%v, put=%v, d1=%v, d2=%v)",
			err, result.CallPrice, result.PutPrice, result.D1, result.D2)
	}

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Save(txCtx, calc); err != nil {
			return err
		}
		if s.publisher == nil {
			return nil
		}
		return s.publisher.PublishCalculationCompleted(txCtx, completedEvent(calc, result))
	})
	if err != nil {
		s.metrics.CalculationErrorsTotal.Inc()
		return nil, err
	}

	s.history.Invalidate(ctx)
	s.metrics.CalculationsTotal.Inc()
	s.metrics.CalculationDuration.Observe(time.Since(start).Seconds())

	return toCalculationDetailDTO(calc, result), nil
}

// CalculateBatch prices up to maxRows inputs concurrently, stores the
// successful rows in one transaction and stages their events plus a batch
// summary event. Rows that fail validation or price to non-finite values are
// counted as failed; the rest keep their input order.
func (s *CalculationCommandService) CalculateBatch(ctx context.Context, cmd BatchCalculateCommand) (*BatchResultDTO, error) {
	start := time.Now()

	total := len(cmd.Inputs)
	if total == 0 {
		return nil, ErrEmptyBatch
	}
	if total > s.maxRows {
		return nil, fmt.Errorf("%w: got %d, max %d", ErrBatchTooLarge, total, s.maxRows)
	}

	batchID := cmd.BatchID
	if batchID == "" {
		batchID = uuid.New().String()
	}
	defer logger.LogDuration(ctx, "Batch calculation processed", "batch_id", batchID, "rows", total)()

	s.metrics.BatchCalculationsTotal.Inc()
	s.metrics.BatchRowsTotal.Add(float64(total))

	// Index-addressed slots keep the results in input order regardless of
	// completion order.
	slots := make([]*domain.CalculationResult, total)

	group := s.pool.NewGroupContext(ctx)
	for i, in := range cmd.Inputs {
		input := in.Input()
		group.Submit(func() {
			if res, err := domain.Price(input); err == nil {
				slots[i] = res
			}
		})
	}
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	calcs := make([]*domain.Calculation, 0, total)
	ordered := make([]*domain.CalculationResult, 0, total)
	failed := 0
	for _, res := range slots {
		if res == nil || !res.Finite() {
			failed++
			continue
		}
		calc, err := domain.NewCalculation(res)
		if err != nil {
			failed++
			continue
		}
		calcs = append(calcs, calc)
		ordered = append(ordered, res)
	}
	if failed > 0 {
		s.metrics.BatchRowFailuresTotal.Add(float64(failed))
	}

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if len(calcs) > 0 {
			if err := s.repo.SaveBatch(txCtx, calcs); err != nil {
				return err
			}
		}
		if s.publisher == nil {
			return nil
		}
		for i, calc := range calcs {
			if err := s.publisher.PublishCalculationCompleted(txCtx, completedEvent(calc, ordered[i])); err != nil {
				return err
			}
		}
		return s.publisher.PublishBatchCalculationCompleted(txCtx, domain.BatchCalculationCompletedEvent{
			BatchID:     batchID,
			Total:       total,
			Successful:  len(calcs),
			Failed:      failed,
			DurationMs:  time.Since(start).Seconds() * 1000,
			CompletedAt: time.Now().Unix(),
			OccurredOn:  time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.history.Invalidate(ctx)

	results := make([]*CalculationDetailDTO, len(calcs))
	for i, calc := range calcs {
		results[i] = toCalculationDetailDTO(calc, ordered[i])
	}

	return &BatchResultDTO{
		BatchID:    batchID,
		Results:    results,
		Total:      total,
		Successful: len(calcs),
		Failed:     failed,
	}, nil
}

// DeleteCalculations removes stored calculations and stages a deletion
// event. IDs that do not exist are skipped; the returned count reflects the
// rows actually removed.
func (s *CalculationCommandService) DeleteCalculations(ctx context.Context, cmd DeleteCalculationsCommand) (int64, error) {
	if len(cmd.IDs) == 0 {
		return 0, ErrNoIDs
	}

	var deleted int64
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		deleted, err = s.repo.DeleteByIDs(txCtx, cmd.IDs)
		if err != nil {
			return err
		}
		if s.publisher == nil || deleted == 0 {
			return nil
		}
		return s.publisher.PublishCalculationsDeleted(txCtx, domain.CalculationsDeletedEvent{
			IDs:        cmd.IDs,
			Deleted:    deleted,
			OccurredOn: time.Now(),
		})
	})
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		s.metrics.CalculationsDeletedTotal.Add(float64(deleted))
		s.history.Invalidate(ctx)
		s.history.InvalidateDetails(ctx, cmd.IDs)
	}

	return deleted, nil
}

// Close drains the batch worker pool.
func (s *CalculationCommandService) Close() {
	s.pool.StopAndWait()
}

func completedEvent(calc *domain.Calculation, result *domain.CalculationResult) domain.CalculationCompletedEvent {
	return domain.CalculationCompletedEvent{
		CalculationID: calc.ID,
		S0:            calc.Input.S0,
		X:             calc.Input.X,
		T:             calc.Input.T,
		R:             calc.Input.R,
		D:             calc.Input.D,
		V:             calc.Input.V,
		CallPrice:     result.CallPrice,
		PutPrice:      result.PutPrice,
		CreatedAt:     calc.CreatedAt.Unix(),
		OccurredOn:    time.Now(),
	}
}
