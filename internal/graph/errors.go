package graph

import "github.com/pkg/errors"

// Sentinel error kinds for the evaluation core. Callers classify failures
// with errors.Is; the wrapped message carries the expected-vs-actual detail.
var (
	// ErrInvalidModel marks a construction-time violation: wrong arity,
	// wrong parent type or shape, or an out-of-range constant parameter.
	// Always fatal to graph construction.
	ErrInvalidModel = errors.New("invalid model")

	// ErrTypeMismatch marks an operation invoked with a value whose
	// semantic type disagrees with the declared contract.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrNotImplemented marks a differentiation path a distribution or
	// operator has not provided. Distinct from a zero-valued gradient.
	ErrNotImplemented = errors.New("not implemented")

	// ErrInternalInconsistency marks a runtime-computed quantity that
	// violates its own invariant. It indicates a bug, not a usage error.
	ErrInternalInconsistency = errors.New("internal inconsistency")
)

// InvalidModelf wraps ErrInvalidModel with a formatted message.
func InvalidModelf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidModel, format, args...)
}

// TypeMismatchf wraps ErrTypeMismatch with a formatted message.
func TypeMismatchf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrTypeMismatch, format, args...)
}

// NotImplementedf wraps ErrNotImplemented with a formatted message.
func NotImplementedf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrNotImplemented, format, args...)
}

// InternalInconsistencyf wraps ErrInternalInconsistency with a formatted message.
func InternalInconsistencyf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInternalInconsistency, format, args...)
}
