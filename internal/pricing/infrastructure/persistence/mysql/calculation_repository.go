package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/contextx"
)

type calculationRepository struct {
	db *gorm.DB
}

// NewCalculationRepository creates the MySQL-backed calculation repository.
func NewCalculationRepository(db *gorm.DB) domain.CalculationRepository {
	return &calculationRepository{db: db}
}

// WithTx runs fn in a transaction carried through the context, so nested
// repository and outbox writes join it.
func (r *calculationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(contextx.WithTx(ctx, tx))
	})
}

func (r *calculationRepository) Save(ctx context.Context, calc *domain.Calculation) error {
	model := toCalculationModel(calc)
	if model == nil {
		return nil
	}
	if err := r.getDB(ctx).WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	calc.ID = model.ID
	calc.CreatedAt = model.CreatedAt
	return nil
}

func (r *calculationRepository) SaveBatch(ctx context.Context, calcs []*domain.Calculation) error {
	if len(calcs) == 0 {
		return nil
	}
	models := make([]*CalculationModel, len(calcs))
	for i, calc := range calcs {
		models[i] = toCalculationModel(calc)
	}
	if err := r.getDB(ctx).WithContext(ctx).CreateInBatches(models, 100).Error; err != nil {
		return err
	}
	for i, model := range models {
		calcs[i].ID = model.ID
		calcs[i].CreatedAt = model.CreatedAt
	}
	return nil
}

func (r *calculationRepository) FindByID(ctx context.Context, id uint) (*domain.Calculation, error) {
	var model CalculationModel
	err := r.getDB(ctx).WithContext(ctx).First(&model, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toCalculation(&model), nil
}

func (r *calculationRepository) List(ctx context.Context, offset, limit int) ([]*domain.Calculation, error) {
	var models []CalculationModel
	if err := r.getDB(ctx).WithContext(ctx).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	calcs := make([]*domain.Calculation, len(models))
	for i := range models {
		calcs[i] = toCalculation(&models[i])
	}
	return calcs, nil
}

func (r *calculationRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.getDB(ctx).WithContext(ctx).Model(&CalculationModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *calculationRepository) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.getDB(ctx).WithContext(ctx).Where("id IN ?", ids).Delete(&CalculationModel{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *calculationRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return r.db
}
