// Package apperr defines the typed error taxonomy of the core engine.
// Every mutating operation either commits fully or returns one of these;
// nothing is logged-and-swallowed.
package apperr

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ValidationError reports malformed input such as non-positive quantities.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func Validation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError reports an unknown reference.
type NotFoundError struct {
	Resource string
	Ref      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Ref)
}

func NotFound(resource, ref string) *NotFoundError {
	return &NotFoundError{Resource: resource, Ref: ref}
}

// InsufficientStockError reports a single lot or aggregate short.
type InsufficientStockError struct {
	MaterialCode string
	Requested    decimal.Decimal
	Available    decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock of %s: requested %s, available %s",
		e.MaterialCode, e.Requested, e.Available)
}

// ShortageItem is one short material in a bulk pre-flight check.
type ShortageItem struct {
	MaterialID   uuid.UUID       `json:"material_id"`
	MaterialCode string          `json:"material_code"`
	Required     decimal.Decimal `json:"required"`
	Available    decimal.Decimal `json:"available"`
	Shortfall    decimal.Decimal `json:"shortfall"`
}

// ShortageError lists every short material found before a bulk allocation,
// not just the first one encountered.
type ShortageError struct {
	Items []ShortageItem
}

func (e *ShortageError) Error() string {
	codes := make([]string, len(e.Items))
	for i, it := range e.Items {
		codes[i] = fmt.Sprintf("%s (short %s)", it.MaterialCode, it.Shortfall)
	}
	return "insufficient stock for allocation: " + strings.Join(codes, ", ")
}

// GuardViolationError reports an illegal lifecycle transition attempt.
type GuardViolationError struct {
	From   string
	To     string
	Reason string
}

func (e *GuardViolationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("transition %s -> %s not permitted: %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("transition %s -> %s not permitted", e.From, e.To)
}

// ConcurrencyConflictError reports a lost race, e.g. on serial-number
// allocation or revision activation. The core never retries internally.
type ConcurrencyConflictError struct {
	Op string
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("concurrent modification conflict during %s", e.Op)
}
