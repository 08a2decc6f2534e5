package mysql

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
)

// CalculationModel maps a stored calculation to the calculations table.
// Prices are stored as decimal strings so the database column keeps the full
// precision of the computed value.
type CalculationModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"column:created_at;index"`
	S0        float64   `gorm:"column:s0;type:double;not null"`
	X         float64   `gorm:"column:x;type:double;not null"`
	T         float64   `gorm:"column:t;type:double;not null"`
	R         float64   `gorm:"column:r;type:double;not null"`
	D         float64   `gorm:"column:d;type:double;not null"`
	V         float64   `gorm:"column:v;type:double;not null"`
	CallPrice string    `gorm:"column:call_price;type:decimal(32,18);not null"`
	PutPrice  string    `gorm:"column:put_price;type:decimal(32,18);not null"`
}

func (CalculationModel) TableName() string { return "calculations" }

// mapping helpers

func toCalculationModel(calc *domain.Calculation) *CalculationModel {
	if calc == nil {
		return nil
	}
	return &CalculationModel{
		ID:        calc.ID,
		CreatedAt: calc.CreatedAt,
		S0:        calc.Input.S0,
		X:         calc.Input.X,
		T:         calc.Input.T,
		R:         calc.Input.R,
		D:         calc.Input.D,
		V:         calc.Input.V,
		CallPrice: calc.CallPrice.String(),
		PutPrice:  calc.PutPrice.String(),
	}
}

func toCalculation(m *CalculationModel) *domain.Calculation {
	if m == nil {
		return nil
	}
	callPrice, _ := decimal.NewFromString(m.CallPrice)
	putPrice, _ := decimal.NewFromString(m.PutPrice)

	return &domain.Calculation{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		Input: domain.CalculationInput{
			S0: m.S0,
			X:  m.X,
			T:  m.T,
			R:  m.R,
			D:  m.D,
			V:  m.V,
		},
		CallPrice: callPrice,
		PutPrice:  putPrice,
	}
}
