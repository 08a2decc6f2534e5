package application

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
)

// CalculateCommand carries the six pricing parameters of one calculation.
type CalculateCommand struct {
	S0 float64 `json:"s0"`
	X  float64 `json:"x"`
	T  float64 `json:"t"`
	R  float64 `json:"r"`
	D  float64 `json:"d"`
	V  float64 `json:"v"`
}

// Input converts the command into a domain input.
func (c CalculateCommand) Input() domain.CalculationInput {
	return domain.CalculationInput{S0: c.S0, X: c.X, T: c.T, R: c.R, D: c.D, V: c.V}
}

// BatchCalculateCommand prices several inputs as one batch. BatchID is
// assigned when the caller leaves it empty.
type BatchCalculateCommand struct {
	BatchID string
	Inputs  []CalculateCommand
}

// DeleteCalculationsCommand removes stored calculations by ID.
type DeleteCalculationsCommand struct {
	IDs []uint
}

// CalculationDTO is the read model of a stored calculation. Prices keep
// their decimal representation so responses show the stored value exactly.
type CalculationDTO struct {
	ID        uint            `json:"id"`
	S0        float64         `json:"s0"`
	X         float64         `json:"x"`
	T         float64         `json:"t"`
	R         float64         `json:"r"`
	D         float64         `json:"d"`
	V         float64         `json:"v"`
	CallPrice decimal.Decimal `json:"call_price"`
	PutPrice  decimal.Decimal `json:"put_price"`
	CreatedAt time.Time       `json:"created_at"`
}

// CalculationDetailDTO extends the read model with the intermediate terms.
type CalculationDetailDTO struct {
	CalculationDTO
	D1 float64 `json:"d1"`
	D2 float64 `json:"d2"`
}

// BatchResultDTO is the outcome of a batch calculation. Results holds the
// stored calculations in input order.
type BatchResultDTO struct {
	BatchID    string                  `json:"batch_id"`
	Results    []*CalculationDetailDTO `json:"results"`
	Total      int                     `json:"total"`
	Successful int                     `json:"successful"`
	Failed     int                     `json:"failed"`
}

func toCalculationDTO(calc *domain.Calculation) CalculationDTO {
	return CalculationDTO{
		ID:        calc.ID,
		S0:        calc.Input.S0,
		X:         calc.Input.X,
		T:         calc.Input.T,
		R:         calc.Input.R,
		D:         calc.Input.D,
		V:         calc.Input.V,
		CallPrice: calc.CallPrice,
		PutPrice:  calc.PutPrice,
		CreatedAt: calc.CreatedAt,
	}
}

func toCalculationDetailDTO(calc *domain.Calculation, result *domain.CalculationResult) *CalculationDetailDTO {
	return &CalculationDetailDTO{
		CalculationDTO: toCalculationDTO(calc),
		D1:             result.D1,
		D2:             result.D2,
	}
}
