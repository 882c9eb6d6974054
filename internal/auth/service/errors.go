package service

import "errors"

var (
	ErrMissingFields       = errors.New("missing required fields")
	ErrPasswordMismatch    = errors.New("passwords do not match")
	ErrWeakPassword        = errors.New("password must be at least 6 characters")
	ErrInvalidPhoneFormat  = errors.New("valid phone number required")
	ErrInvalidOrExpiredOTP = errors.New("invalid or expired otp")
	ErrDuplicateIdentity   = errors.New("user id or email already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")

	// ErrPersistence, ErrDelivery and ErrHashing wrap infrastructure
	// failures. Callers see only the sentinel; the cause is logged.
	ErrPersistence = errors.New("persistence failure")
	ErrDelivery    = errors.New("delivery failure")
	ErrHashing     = errors.New("password hashing failure")
)

// Category groups the service errors by how a transport should report them.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryValidation
	CategoryConflict
	CategoryAuthentication
	CategoryOTP
	CategoryInfrastructure
)

func (c Category) String() string {
	switch c {
	case CategoryValidation:
		return "validation"
	case CategoryConflict:
		return "conflict"
	case CategoryAuthentication:
		return "authentication"
	case CategoryOTP:
		return "otp"
	case CategoryInfrastructure:
		return "infrastructure"
	default:
		return "unknown"
	}
}

// Classify maps err onto its Category. Unrecognised errors are unknown and
// should be treated as infrastructure failures by callers.
func Classify(err error) Category {
	switch {
	case err == nil:
		return CategoryUnknown
	case errors.Is(err, ErrMissingFields),
		errors.Is(err, ErrPasswordMismatch),
		errors.Is(err, ErrWeakPassword),
		errors.Is(err, ErrInvalidPhoneFormat):
		return CategoryValidation
	case errors.Is(err, ErrDuplicateIdentity):
		return CategoryConflict
	case errors.Is(err, ErrInvalidCredentials):
		return CategoryAuthentication
	case errors.Is(err, ErrInvalidOrExpiredOTP):
		return CategoryOTP
	case errors.Is(err, ErrPersistence), errors.Is(err, ErrDelivery), errors.Is(err, ErrHashing):
		return CategoryInfrastructure
	default:
		return CategoryUnknown
	}
}
