package service

import (
	"errors"
	"fmt"

	"github.com/roach88/whisper/internal/ledger"
)

// OperationError is the typed failure surfaced by ledger operations.
//
// Every failure is synchronous and terminal for the operation that raised
// it: the core never retries internally, and no partial state is committed.
// Callers decide retryability from the code - a duplicate creation means
// "already done", a validation failure means "fix the input".
type OperationError struct {
	// Code identifies the failure category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Op names the operation that failed: "publish", "react", "comment",
	// "get-post", "get-comment".
	Op string

	// Address identifies the affected record, when known.
	Address ledger.Address
}

// ErrorCode categorizes operation failures.
type ErrorCode string

const (
	// ErrCodeEmptyContentURI indicates a zero-length content reference.
	ErrCodeEmptyContentURI ErrorCode = "EMPTY_CONTENT_URI"

	// ErrCodeContentURITooLong indicates a content reference over the
	// 200-byte bound.
	ErrCodeContentURITooLong ErrorCode = "CONTENT_URI_TOO_LONG"

	// ErrCodeAlreadyExists indicates the derived target address is occupied:
	// a duplicate publish by one owner, or a duplicate comment by one author
	// on one post.
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// ErrCodeNotInitialized indicates the referenced address has no record.
	ErrCodeNotInitialized ErrorCode = "ACCOUNT_NOT_INITIALIZED"

	// ErrCodeUnauthorizedSigner indicates the authorizing identity does not
	// match the required role identity.
	ErrCodeUnauthorizedSigner ErrorCode = "UNAUTHORIZED_SIGNER"

	// ErrCodeDerivationExhausted indicates the address derivation found no
	// usable bump. Fatal; signals an address-space bug.
	ErrCodeDerivationExhausted ErrorCode = "DERIVATION_EXHAUSTED"

	// ErrCodeCounterOverflow indicates a counter bump would wrap uint64.
	ErrCodeCounterOverflow ErrorCode = "COUNTER_OVERFLOW"
)

// Error implements the error interface.
func (e *OperationError) Error() string {
	if e.Address != "" {
		return fmt.Sprintf("%s: %s: %s (address=%s)", e.Op, e.Code, e.Message, e.Address)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Message)
}

// CodeOf extracts the error code from an error.
// Returns the empty code if err is not an OperationError.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var oe *OperationError
	if errors.As(err, &oe) {
		return oe.Code
	}
	return ""
}

// IsAlreadyExists returns true if the error is a duplicate-creation failure.
func IsAlreadyExists(err error) bool {
	return CodeOf(err) == ErrCodeAlreadyExists
}

// IsNotInitialized returns true if the error is a missing-record failure.
func IsNotInitialized(err error) bool {
	return CodeOf(err) == ErrCodeNotInitialized
}

// IsValidation returns true for input-validation failures: the operation
// can never succeed without changing its input.
func IsValidation(err error) bool {
	switch CodeOf(err) {
	case ErrCodeEmptyContentURI, ErrCodeContentURITooLong, ErrCodeUnauthorizedSigner:
		return true
	}
	return false
}

// NewEmptyContentURIError creates an OperationError for a zero-length
// content reference.
func NewEmptyContentURIError(op string) *OperationError {
	return &OperationError{
		Code:    ErrCodeEmptyContentURI,
		Message: "content URI cannot be empty",
		Op:      op,
	}
}

// NewContentURITooLongError creates an OperationError for an oversized
// content reference.
func NewContentURITooLongError(op string, length int) *OperationError {
	return &OperationError{
		Code:    ErrCodeContentURITooLong,
		Message: fmt.Sprintf("content URI is %d bytes, max %d", length, ledger.MaxContentRefLen),
		Op:      op,
	}
}

// NewAlreadyExistsError creates an OperationError for an occupied address.
func NewAlreadyExistsError(op string, addr ledger.Address) *OperationError {
	return &OperationError{
		Code:    ErrCodeAlreadyExists,
		Message: "record already exists at derived address",
		Op:      op,
		Address: addr,
	}
}

// NewNotInitializedError creates an OperationError for a missing record.
func NewNotInitializedError(op string, addr ledger.Address) *OperationError {
	return &OperationError{
		Code:    ErrCodeNotInitialized,
		Message: "no record exists at address",
		Op:      op,
		Address: addr,
	}
}

// NewUnauthorizedSignerError creates an OperationError for a signer/role
// mismatch.
func NewUnauthorizedSignerError(op string, signer, required ledger.Identity) *OperationError {
	return &OperationError{
		Code:    ErrCodeUnauthorizedSigner,
		Message: fmt.Sprintf("signer %q does not match required identity %q", signer, required),
		Op:      op,
	}
}

// NewDerivationExhaustedError wraps a failed bump search.
func NewDerivationExhaustedError(op string, err error) *OperationError {
	return &OperationError{
		Code:    ErrCodeDerivationExhausted,
		Message: err.Error(),
		Op:      op,
	}
}

// NewCounterOverflowError creates an OperationError for a counter at the
// uint64 ceiling.
func NewCounterOverflowError(op string, addr ledger.Address) *OperationError {
	return &OperationError{
		Code:    ErrCodeCounterOverflow,
		Message: "counter increment would overflow",
		Op:      op,
		Address: addr,
	}
}
