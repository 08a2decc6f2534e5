package application

import (
	"context"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/cache"
	"github.com/wyfcoding/optionpricing/pkg/metrics"
)

// CalculationQueryService handles the read side: stored calculations and
// their counts.
type CalculationQueryService struct {
	repo    domain.CalculationRepository
	history *historyCache
}

// NewCalculationQueryService creates the query service. redisCache may be
// nil, which disables the count cache.
func NewCalculationQueryService(repo domain.CalculationRepository, redisCache *cache.RedisCache, m *metrics.Metrics) *CalculationQueryService {
	return &CalculationQueryService{
		repo:    repo,
		history: newHistoryCache(redisCache, m),
	}
}

// GetCalculation returns one stored calculation with its intermediate
// values, or nil when the ID is unknown. d1 and d2 are recomputed from the
// stored inputs; the persisted prices stay authoritative.
func (s *CalculationQueryService) GetCalculation(ctx context.Context, id uint) (*CalculationDetailDTO, error) {
	if dto, ok := s.history.GetDetail(ctx, id); ok {
		return dto, nil
	}

	calc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if calc == nil {
		return nil, nil
	}

	result, err := domain.Price(calc.Input)
	if err != nil {
		return nil, err
	}

	dto := toCalculationDetailDTO(calc, result)
	s.history.SetDetail(ctx, dto)
	return dto, nil
}

// ListCalculations returns a page of stored calculations, newest first,
// together with the total count. Offset and limit are clamped to sane
// bounds.
func (s *CalculationQueryService) ListCalculations(ctx context.Context, offset, limit int) ([]*CalculationDTO, int64, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	calcs, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.CountCalculations(ctx)
	if err != nil {
		return nil, 0, err
	}

	dtos := make([]*CalculationDTO, len(calcs))
	for i, calc := range calcs {
		dto := toCalculationDTO(calc)
		dtos[i] = &dto
	}
	return dtos, total, nil
}

// CountCalculations returns the number of stored calculations, served from
// the count cache when it is warm.
func (s *CalculationQueryService) CountCalculations(ctx context.Context) (int64, error) {
	if total, ok := s.history.GetCount(ctx); ok {
		return total, nil
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return 0, err
	}

	s.history.SetCount(ctx, total)
	return total, nil
}
