package domain

import "strings"

// FieldViolation describes one invalid input field.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violation found in a calculation input, so a
// caller sees all problems at once instead of one per attempt.
type ValidationError struct {
	Violations []FieldViolation
}

// Error joins the violation messages.
func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return "invalid calculation input: " + strings.Join(msgs, "; ")
}

// ValidateInput checks the positivity constraints on s0, x, t and v. The
// rate r and dividend yield d may take any value, including negative ones.
// The negated comparisons also reject NaN.
func ValidateInput(in CalculationInput) error {
	var violations []FieldViolation

	if !(in.S0 > 0) {
		violations = append(violations, FieldViolation{Field: "s0", Message: "s0 must be greater than 0"})
	}
	if !(in.X > 0) {
		violations = append(violations, FieldViolation{Field: "x", Message: "x must be greater than 0"})
	}
	if !(in.T > 0) {
		violations = append(violations, FieldViolation{Field: "t", Message: "t must be greater than 0"})
	}
	if !(in.V > 0) {
		violations = append(violations, FieldViolation{Field: "v", Message: "v must be greater than 0"})
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}
