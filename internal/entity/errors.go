package entity

import (
	"errors"
	"fmt"
)

// ErrCode categorizes operation failures.
type ErrCode string

const (
	// ErrCodeUnsupported indicates the operation name is not registered for
	// the entity's kind. State is unchanged.
	ErrCodeUnsupported ErrCode = "UNSUPPORTED_OPERATION"

	// ErrCodeDecoding indicates the content payload did not match the type
	// the handler declared. State is unchanged.
	ErrCodeDecoding ErrCode = "CONTENT_DECODING"

	// ErrCodePrecondition indicates a handler-raised logical failure, e.g.
	// a get against a never-set entity. The handler decides whether the
	// failure also requests destruction.
	ErrCodePrecondition ErrCode = "PRECONDITION"

	// ErrCodeExternalCall indicates an awaited activity failed or timed
	// out. Surfaced to the handler as the failure of that one call.
	ErrCodeExternalCall ErrCode = "EXTERNAL_CALL"

	// ErrCodeStoreUnavailable indicates the backing store failed during
	// materialize or commit. Fatal for the current operation only; the
	// in-memory cell keeps its last known-good state.
	ErrCodeStoreUnavailable ErrCode = "STORE_UNAVAILABLE"
)

// OpError is a structured operation failure. All codes except
// STORE_UNAVAILABLE are local to one operation and never abort the entity's
// queue.
type OpError struct {
	Code    ErrCode
	Entity  ID
	Op      string
	Message string
	Err     error // wrapped cause, if any
}

// Error implements the error interface.
func (e *OpError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s (entity=%s, op=%s)", e.Code, msg, e.Entity, e.Op)
	}
	return fmt.Sprintf("%s: %s (entity=%s)", e.Code, msg, e.Entity)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *OpError) Unwrap() error {
	return e.Err
}

// NewUnsupported creates an UNSUPPORTED_OPERATION error.
func NewUnsupported(id ID, op string) *OpError {
	return &OpError{
		Code:    ErrCodeUnsupported,
		Entity:  id,
		Op:      op,
		Message: "operation not registered for kind",
	}
}

// NewDecodeError creates a CONTENT_DECODING error wrapping the codec failure.
func NewDecodeError(id ID, op string, err error) *OpError {
	return &OpError{Code: ErrCodeDecoding, Entity: id, Op: op, Err: err}
}

// NewPrecondition creates a PRECONDITION error with a handler-supplied message.
func NewPrecondition(id ID, op, message string) *OpError {
	return &OpError{Code: ErrCodePrecondition, Entity: id, Op: op, Message: message}
}

// NewExternalCall creates an EXTERNAL_CALL error for a failed activity invocation.
func NewExternalCall(id ID, op, activity string, err error) *OpError {
	return &OpError{
		Code:    ErrCodeExternalCall,
		Entity:  id,
		Op:      op,
		Message: fmt.Sprintf("activity %q failed", activity),
		Err:     err,
	}
}

// NewStoreUnavailable creates a STORE_UNAVAILABLE error wrapping the store failure.
func NewStoreUnavailable(id ID, op string, err error) *OpError {
	return &OpError{Code: ErrCodeStoreUnavailable, Entity: id, Op: op, Err: err}
}

// CodeOf extracts the error code from a (possibly wrapped) OpError.
// Returns "" for non-operation errors.
func CodeOf(err error) ErrCode {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Code
	}
	return ""
}

// IsUnsupported reports whether err is an UNSUPPORTED_OPERATION failure.
func IsUnsupported(err error) bool { return CodeOf(err) == ErrCodeUnsupported }

// IsDecodeError reports whether err is a CONTENT_DECODING failure.
func IsDecodeError(err error) bool { return CodeOf(err) == ErrCodeDecoding }

// IsPrecondition reports whether err is a PRECONDITION failure.
func IsPrecondition(err error) bool { return CodeOf(err) == ErrCodePrecondition }

// IsExternalCall reports whether err is an EXTERNAL_CALL failure.
func IsExternalCall(err error) bool { return CodeOf(err) == ErrCodeExternalCall }

// IsStoreUnavailable reports whether err is a STORE_UNAVAILABLE failure.
func IsStoreUnavailable(err error) bool { return CodeOf(err) == ErrCodeStoreUnavailable }
