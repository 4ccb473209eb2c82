package mintledger

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// Ledger errors
	ErrInsufficientBalance = errors.New("mintledger: insufficient balance")
	ErrInvalidRecipient    = errors.New("mintledger: invalid recipient")
	ErrArithmeticOverflow  = errors.New("mintledger: arithmetic overflow")

	// Mint admission errors
	ErrExceedsDailyMintLimit = errors.New("mintledger: exceeds daily mint limit")
	ErrAlreadyMintedToday    = errors.New("mintledger: can only mint once per day")

	// Privileged operation errors
	ErrUnauthorized   = errors.New("mintledger: caller is not the owner")
	ErrTransferFailed = errors.New("mintledger: treasury transfer failed")

	// Lifecycle errors
	ErrNotStarted     = errors.New("mintledger: engine not started")
	ErrAlreadyStarted = errors.New("mintledger: engine already started")
	ErrInvalidGenesis = errors.New("mintledger: invalid genesis")
	ErrInvalidInput   = errors.New("mintledger: invalid input")

	// Store errors
	ErrSequenceConflict = errors.New("mintledger: event sequence already taken")
	ErrJournalCorrupt   = errors.New("mintledger: event journal corrupt")
	ErrStoreClosed      = errors.New("mintledger: store is closed")
)

// Reason codes reported to callers and plugins for rejected operations.
const (
	ReasonInsufficientBalance   = "InsufficientBalance"
	ReasonInvalidRecipient      = "InvalidRecipient"
	ReasonExceedsDailyMintLimit = "ExceedsDailyMintLimit"
	ReasonAlreadyMintedToday    = "AlreadyMintedToday"
	ReasonArithmeticOverflow    = "ArithmeticOverflow"
	ReasonUnauthorized          = "Unauthorized"
	ReasonTransferFailed        = "TransferFailed"
	ReasonInternal              = "Internal"
)

// Reason maps err to a stable reason code. Errors outside the ledger's
// domain map to ReasonInternal; nil maps to the empty string.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInsufficientBalance):
		return ReasonInsufficientBalance
	case errors.Is(err, ErrInvalidRecipient):
		return ReasonInvalidRecipient
	case errors.Is(err, ErrExceedsDailyMintLimit):
		return ReasonExceedsDailyMintLimit
	case errors.Is(err, ErrAlreadyMintedToday):
		return ReasonAlreadyMintedToday
	case errors.Is(err, ErrArithmeticOverflow):
		return ReasonArithmeticOverflow
	case errors.Is(err, ErrUnauthorized):
		return ReasonUnauthorized
	case errors.Is(err, ErrTransferFailed):
		return ReasonTransferFailed
	default:
		return ReasonInternal
	}
}

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("mintledger: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "mintledger: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("mintledger: %d errors occurred (first: %v)", len(e.Errors), e.Errors[0])
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error {
	return e.Errors
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// ErrOrNil returns e if it holds errors, nil otherwise.
func (e MultiError) ErrOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// IsAdmissionError returns true if a mint was refused by the daily
// ceiling or the once-per-day cooldown.
func IsAdmissionError(err error) bool {
	return errors.Is(err, ErrExceedsDailyMintLimit) ||
		errors.Is(err, ErrAlreadyMintedToday)
}

// IsRejection returns true if err is a domain rejection: the request was
// well-formed but the ledger refused it without changing state.
func IsRejection(err error) bool {
	return err != nil && Reason(err) != ReasonInternal
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransferFailed) ||
		errors.Is(err, ErrSequenceConflict) ||
		errors.Is(err, ErrNotStarted)
}
