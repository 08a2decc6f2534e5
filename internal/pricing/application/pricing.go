package application

import (
	"context"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/cache"
	"github.com/wyfcoding/optionpricing/pkg/config"
	"github.com/wyfcoding/optionpricing/pkg/metrics"
)

// PricingService is the facade over the command and query services.
type PricingService struct {
	Command *CalculationCommandService
	Query   *CalculationQueryService
}

// NewPricingService wires both sides over the same repository and caches.
func NewPricingService(
	repo domain.CalculationRepository,
	publisher domain.EventPublisher,
	redisCache *cache.RedisCache,
	m *metrics.Metrics,
	batchCfg config.BatchConfig,
) *PricingService {
	return &PricingService{
		Command: NewCalculationCommandService(repo, publisher, redisCache, m, batchCfg),
		Query:   NewCalculationQueryService(repo, redisCache, m),
	}
}

// Close releases the command side's worker pool.
func (s *PricingService) Close() {
	s.Command.Close()
}

// --- Command Facade ---

func (s *PricingService) Calculate(ctx context.Context, cmd CalculateCommand) (*CalculationDetailDTO, error) {
	return s.Command.Calculate(ctx, cmd)
}

func (s *PricingService) CalculateBatch(ctx context.Context, cmd BatchCalculateCommand) (*BatchResultDTO, error) {
	return s.Command.CalculateBatch(ctx, cmd)
}

func (s *PricingService) DeleteCalculations(ctx context.Context, cmd DeleteCalculationsCommand) (int64, error) {
	return s.Command.DeleteCalculations(ctx, cmd)
}

// --- Query Facade ---

func (s *PricingService) GetCalculation(ctx context.Context, id uint) (*CalculationDetailDTO, error) {
	return s.Query.GetCalculation(ctx, id)
}

func (s *PricingService) ListCalculations(ctx context.Context, offset, limit int) ([]*CalculationDTO, int64, error) {
	return s.Query.ListCalculations(ctx, offset, limit)
}

func (s *PricingService) CountCalculations(ctx context.Context) (int64, error) {
	return s.Query.CountCalculations(ctx)
}
