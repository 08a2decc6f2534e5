package domain

import "math"

// Price values a European option under Black-Scholes with a continuous
// dividend yield. Inputs outside the model's domain return a
// *ValidationError. Degenerate but in-domain inputs, such as a vanishingly
// small t or v, price normally and may produce non-finite outputs, which
// callers detect with Finite.
func Price(in CalculationInput) (*CalculationResult, error) {
	if err := ValidateInput(in); err != nil {
		return nil, err
	}

	sqrtT := math.Sqrt(in.T)
	d1 := (math.Log(in.S0/in.X) + (in.R-in.D+0.5*in.V*in.V)*in.T) / (in.V * sqrtT)
	d2 := d1 - in.V*sqrtT

	discountedSpot := in.S0 * math.Exp(-in.D*in.T)
	discountedStrike := in.X * math.Exp(-in.R*in.T)

	call := discountedSpot*NormCDF(d1) - discountedStrike*NormCDF(d2)
	put := discountedStrike*NormCDF(-d2) - discountedSpot*NormCDF(-d1)

	return &CalculationResult{
		CalculationInput: in,
		CallPrice:        call,
		PutPrice:         put,
		D1:               d1,
		D2:               d2,
	}, nil
}

// PriceBatch prices inputs one by one, collecting successful results in
// input order and counting the inputs validation rejected.
func PriceBatch(inputs []CalculationInput) *BatchResult {
	batch := &BatchResult{
		Results: make([]*CalculationResult, 0, len(inputs)),
		Total:   len(inputs),
	}

	for _, in := range inputs {
		res, err := Price(in)
		if err != nil {
			batch.Failed++
			continue
		}
		batch.Results = append(batch.Results, res)
		batch.Successful++
	}

	return batch
}
