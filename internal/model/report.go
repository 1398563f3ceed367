package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FieldError describes why a single form field was rejected.
type FieldError struct {
	ErrorItem    string `json:"errorItem"`
	ErrorMessage string `json:"errorMessage"`
}

// ErrorReport is the result of a failed validation, one entry per field.
type ErrorReport struct {
	Errors []FieldError `json:"errors"`
}

// Find returns the first error recorded for field.
func (r *ErrorReport) Find(field string) (FieldError, bool) {
	if r == nil {
		return FieldError{}, false
	}

	for _, fe := range r.Errors {
		if fe.ErrorItem == field {
			return fe, true
		}
	}

	return FieldError{}, false
}

// Without returns a report with the entries for field removed, or nil
// when nothing is left.
func (r *ErrorReport) Without(field string) *ErrorReport {
	if r == nil {
		return nil
	}

	rest := make([]FieldError, 0, len(r.Errors))
	for _, fe := range r.Errors {
		if fe.ErrorItem != field {
			rest = append(rest, fe)
		}
	}

	if len(rest) == 0 {
		return nil
	}

	return &ErrorReport{Errors: rest}
}

// Totals are the aggregates shown in the list footer.
type Totals struct {
	TotalQtd    decimal.Decimal `json:"totalQtd"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// ParseNumber parses numeric form text. Surrounding spaces are ignored
// and a comma decimal separator is accepted ("4,50").
func ParseNumber(text string) (decimal.Decimal, error) {
	s := strings.TrimSpace(text)
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return decimal.NewFromString(s)
}
