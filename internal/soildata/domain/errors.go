package domain

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrNotFound      = errors.New("not_found")
	ErrInvalidID     = errors.New("invalid_id")
	ErrPlotNotFound  = errors.New("plot_not_found")
	ErrEmptyBatch    = errors.New("empty_batch")
	ErrBatchTooLarge = errors.New("batch_too_large")
)

// Violation is a rejected input field.
type Violation interface {
	error
	ViolationField() string
	ViolationCode() string
}

// RangeViolation reports a value outside its field's closed interval.
type RangeViolation struct {
	Field string
	Min   float64
	Max   float64
	Value float64
}

func (e *RangeViolation) Error() string {
	return fmt.Sprintf("%s must be between %s and %s", e.Field, formatBound(e.Min), formatBound(e.Max))
}

func (e *RangeViolation) ViolationField() string { return e.Field }
func (e *RangeViolation) ViolationCode() string  { return "out_of_range" }

// PrecisionViolation reports a value with more decimal places than the field stores.
type PrecisionViolation struct {
	Field  string
	Places int
}

func (e *PrecisionViolation) Error() string {
	if e.Places == 1 {
		return fmt.Sprintf("%s allows at most 1 decimal place", e.Field)
	}
	return fmt.Sprintf("%s allows at most %d decimal places", e.Field, e.Places)
}

func (e *PrecisionViolation) ViolationField() string { return e.Field }
func (e *PrecisionViolation) ViolationCode() string  { return "too_many_decimals" }

type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string          { return e.Field + " is required" }
func (e *MissingFieldError) ViolationField() string { return e.Field }
func (e *MissingFieldError) ViolationCode() string  { return "required" }

type InvalidFieldError struct {
	Field  string
	Reason string
}

func (e *InvalidFieldError) Error() string          { return e.Field + " " + e.Reason }
func (e *InvalidFieldError) ViolationField() string { return e.Field }
func (e *InvalidFieldError) ViolationCode() string  { return "invalid" }

// BatchItemError ties a failure to its position in a bulk request.
type BatchItemError struct {
	Index int
	Err   error
}

func (e *BatchItemError) Error() string {
	return fmt.Sprintf("items[%d]: %v", e.Index, e.Err)
}

func (e *BatchItemError) Unwrap() error { return e.Err }

// ViolationField prefixes the inner field with the item index.
func (e *BatchItemError) ViolationField() string {
	var v Violation
	if errors.As(e.Err, &v) {
		return fmt.Sprintf("items[%d].%s", e.Index, v.ViolationField())
	}
	if errors.Is(e.Err, ErrPlotNotFound) {
		return fmt.Sprintf("items[%d].plotId", e.Index)
	}
	return fmt.Sprintf("items[%d]", e.Index)
}

func (e *BatchItemError) ViolationCode() string {
	var v Violation
	if errors.As(e.Err, &v) {
		return v.ViolationCode()
	}
	if errors.Is(e.Err, ErrPlotNotFound) {
		return "not_found"
	}
	return "invalid"
}

// IsValidation reports whether err is a client input problem.
func IsValidation(err error) bool {
	if errors.Is(err, ErrPlotNotFound) || errors.Is(err, ErrNotFound) {
		return false
	}
	var v Violation
	return errors.As(err, &v) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrEmptyBatch) ||
		errors.Is(err, ErrBatchTooLarge)
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
