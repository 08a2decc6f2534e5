package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/metrics"
)

func seedCalculation(t *testing.T, repo *fakeCalculationRepository, input domain.CalculationInput) *domain.Calculation {
	t.Helper()
	result, err := domain.Price(input)
	require.NoError(t, err)
	calc, err := domain.NewCalculation(result)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), calc))
	return calc
}

func TestGetCalculationRecomputesIntermediates(t *testing.T) {
	repo := newFakeRepository()
	calc := seedCalculation(t, repo, domain.CalculationInput{S0: 100, X: 100, T: 1, R: 0.05, D: 0.02, V: 0.2})

	svc := NewCalculationQueryService(repo, nil, metrics.New("test"))

	dto, err := svc.GetCalculation(context.Background(), calc.ID)
	require.NoError(t, err)
	require.NotNil(t, dto)

	assert.Equal(t, calc.ID, dto.ID)
	assert.InDelta(t, 0.25, dto.D1, 1e-9)
	assert.InDelta(t, 0.05, dto.D2, 1e-9)
	assert.True(t, dto.CallPrice.Equal(calc.CallPrice), "stored price is authoritative")
	assert.True(t, dto.PutPrice.Equal(calc.PutPrice))
}

func TestGetCalculationNotFound(t *testing.T) {
	svc := NewCalculationQueryService(newFakeRepository(), nil, metrics.New("test"))

	dto, err := svc.GetCalculation(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, dto)
}

func TestListCalculationsNewestFirst(t *testing.T) {
	repo := newFakeRepository()
	for i := 0; i < 5; i++ {
		seedCalculation(t, repo, domain.CalculationInput{S0: 100 + float64(i), X: 100, T: 1, R: 0.05, D: 0, V: 0.2})
	}

	svc := NewCalculationQueryService(repo, nil, metrics.New("test"))

	dtos, total, err := svc.ListCalculations(context.Background(), 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, dtos, 2)
	assert.Equal(t, 104.0, dtos[0].S0)
	assert.Equal(t, 103.0, dtos[1].S0)

	dtos, _, err = svc.ListCalculations(context.Background(), 2, 2)
	require.NoError(t, err)
	require.Len(t, dtos, 2)
	assert.Equal(t, 102.0, dtos[0].S0)
}

func TestListCalculationsClampsBounds(t *testing.T) {
	repo := newFakeRepository()
	for i := 0; i < 5; i++ {
		seedCalculation(t, repo, domain.CalculationInput{S0: 100, X: 100, T: 1, R: 0.05, D: 0, V: 0.2})
	}

	svc := NewCalculationQueryService(repo, nil, metrics.New("test"))

	dtos, total, err := svc.ListCalculations(context.Background(), -3, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, dtos, 5, "negative offset and zero limit fall back to defaults")

	dtos, _, err = svc.ListCalculations(context.Background(), 0, 100000)
	require.NoError(t, err)
	assert.Len(t, dtos, 5)
}

func TestCountCalculations(t *testing.T) {
	repo := newFakeRepository()
	for i := 0; i < 3; i++ {
		seedCalculation(t, repo, domain.CalculationInput{S0: 100, X: 100, T: 1, R: 0.05, D: 0, V: 0.2})
	}

	svc := NewCalculationQueryService(repo, nil, metrics.New("test"))

	total, err := svc.CountCalculations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}
