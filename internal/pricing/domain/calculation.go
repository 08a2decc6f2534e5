package domain

import (
	"errors"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// ErrResultNotFinite marks a priced result whose outputs left the range of
// finite floats and therefore cannot be stored.
var ErrResultNotFinite = errors.New("calculation result is not finite")

// CalculationInput holds the six Black-Scholes parameters.
type CalculationInput struct {
	S0 float64 `json:"s0"` // spot price of the underlying
	X  float64 `json:"x"`  // strike price
	T  float64 `json:"t"`  // time to expiry in years
	R  float64 `json:"r"`  // risk-free rate, continuously compounded
	D  float64 `json:"d"`  // continuous dividend yield
	V  float64 `json:"v"`  // volatility
}

// CalculationResult is a priced input together with both option prices and
// the intermediate d1/d2 terms.
type CalculationResult struct {
	CalculationInput
	CallPrice float64 `json:"call_price"`
	PutPrice  float64 `json:"put_price"`
	D1        float64 `json:"d1"`
	D2        float64 `json:"d2"`
}

// Finite reports whether every output is a finite float. Degenerate inputs,
// such as t or v near zero, can drive the terms to ±Inf or NaN.
func (r *CalculationResult) Finite() bool {
	for _, f := range []float64{r.CallPrice, r.PutPrice, r.D1, r.D2} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// BatchResult aggregates the outcome of pricing a list of inputs. Results
// holds the successful calculations in input order.
type BatchResult struct {
	Results    []*CalculationResult `json:"results"`
	Total      int                  `json:"total"`
	Successful int                  `json:"successful"`
	Failed     int                  `json:"failed"`
}

// Calculation is a stored pricing calculation. Prices are kept as decimals
// so persistence does not lose precision.
type Calculation struct {
	ID        uint
	Input     CalculationInput
	CallPrice decimal.Decimal
	PutPrice  decimal.Decimal
	CreatedAt time.Time
}

// NewCalculation builds a Calculation from a priced result. Non-finite
// results are refused, they have no decimal representation.
func NewCalculation(result *CalculationResult) (*Calculation, error) {
	if !result.Finite() {
		return nil, ErrResultNotFinite
	}
	return &Calculation{
		Input:     result.CalculationInput,
		CallPrice: decimal.NewFromFloat(result.CallPrice),
		PutPrice:  decimal.NewFromFloat(result.PutPrice),
	}, nil
}
