// Package services holds the store's consistency engine: catalog hierarchy
// with cascading deactivation, the stock ledger, carts with snapshot prices
// and the cart-to-order conversion. Handlers stay thin; every multi-row
// effect lives here and runs inside a single transaction.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Kind classifies a domain error. All kinds except KindConflict and
// KindTimeout are terminal for the given input and must not be retried.
type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindDuplicateName      Kind = "duplicate_name"
	KindParentNotFound     Kind = "parent_not_found"
	KindParentInactive     Kind = "parent_inactive"
	KindHierarchyMismatch  Kind = "hierarchy_mismatch"
	KindInvalidPrice       Kind = "invalid_price"
	KindInvalidStock       Kind = "invalid_stock"
	KindInsufficientStock  Kind = "insufficient_stock"
	KindHasDependents      Kind = "has_dependents"
	KindProductInactive    Kind = "product_inactive"
	KindProductUnavailable Kind = "product_unavailable"
	KindEmptyCart          Kind = "empty_cart"
	KindConflict           Kind = "conflict"
	KindTimeout            Kind = "timeout"
)

// Error is a domain error with enough context for the caller to render a
// message: the offending product and the current stock where relevant.
type Error struct {
	Kind      Kind
	Message   string
	ProductID uuid.UUID
	Available int
}

func (e *Error) Error() string {
	return e.Message
}

// Retryable reports whether the caller may retry the operation as-is.
func (e *Error) Retryable() bool {
	return e.Kind == KindConflict || e.Kind == KindTimeout
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or "" if err is not a domain error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Retryable reports whether err is a transient domain error.
func Retryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable()
}

// Postgres error codes worth distinguishing
const (
	pqUniqueViolation   = "23505"
	pqSerializationFail = "40001"
	pqDeadlockDetected  = "40P01"
	pqLockNotAvailable  = "55P03"
	pqQueryCanceled     = "57014"
)

// translateDB maps driver and context failures onto domain errors. Unique
// violations become DuplicateName (name uniqueness is enforced by the
// schema); serialization failures, deadlocks and lock timeouts become
// Conflict; statement/context timeouts become Timeout. Anything else passes
// through wrapped for the infrastructure log.
func translateDB(err error, op string) error {
	if err == nil {
		return nil
	}
	var domain *Error
	if errors.As(err, &domain) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(KindTimeout, "%s timed out", op)
	}
	if errors.Is(err, context.Canceled) {
		return newError(KindTimeout, "%s canceled", op)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqUniqueViolation:
			return newError(KindDuplicateName, "%s: name already in use", op)
		case pqSerializationFail, pqDeadlockDetected, pqLockNotAvailable:
			return newError(KindConflict, "%s hit a write conflict, retry", op)
		case pqQueryCanceled:
			return newError(KindTimeout, "%s timed out", op)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
