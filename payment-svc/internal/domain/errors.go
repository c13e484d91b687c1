package domain

import "errors"

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindCycle
	KindProvider
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindCycle:
		return "cycle"
	case KindProvider:
		return "provider"
	default:
		return "internal"
	}
}

// Error is a classified error. Two Errors match with errors.Is when they are
// the same value, so package-level sentinels keep working after wrapping.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Validation builds an ad hoc validation error for messages that carry input
// details and therefore cannot be sentinels.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Wrap attaches a kind to an underlying error, keeping it reachable via
// errors.Is/As.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first classified error in err's chain, or
// KindInternal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

var (
	ErrCycleDetected = NewError(KindCycle, "invalid branch payment configuration (cycle detected)")

	ErrTableNotFound     = NewError(KindNotFound, "table not found")
	ErrTableInactive     = NewError(KindForbidden, "table is not active")
	ErrInvalidTableToken = NewError(KindUnauthorized, "invalid token for this table")
	ErrTableTokenExpired = NewError(KindUnauthorized, "table token has expired, scan the QR code again")

	ErrPaymentNotConfigured = NewError(KindValidation, "payment provider is not configured for this branch")
	ErrProvider             = NewError(KindProvider, "payment provider request failed")

	ErrOrderNotFound     = NewError(KindNotFound, "order not found")
	ErrInvalidOrderToken = NewError(KindUnauthorized, "invalid order token")
	ErrInvalidTransition = NewError(KindConflict, "order status transition not allowed")

	ErrBranchNotFound = NewError(KindNotFound, "branch not found")

	ErrUnauthenticated = NewError(KindUnauthorized, "missing or invalid credentials")
	ErrForbidden       = NewError(KindForbidden, "insufficient role for this operation")

	ErrInvalidSignature = NewError(KindUnauthorized, "invalid webhook signature")
)
