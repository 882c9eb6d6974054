package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/streamnest/pkg/httpx"
)

// Error codes returned in ErrorResponse.Error.
const (
	ErrorCodeInvalidRequest      = "invalid_request"
	ErrorCodeMissingFields       = "missing_fields"
	ErrorCodePasswordMismatch    = "password_mismatch"
	ErrorCodeWeakPassword        = "weak_password"
	ErrorCodeInvalidPhoneFormat  = "invalid_phone_format"
	ErrorCodeInvalidOrExpiredOTP = "invalid_or_expired_otp"
	ErrorCodeDuplicateIdentity   = "duplicate_identity"
	ErrorCodeInvalidCredentials  = "invalid_credentials"
	ErrorCodeRateLimitExceeded   = "rate_limit_exceeded"
	ErrorCodeServerError         = "server_error"
)

// APIError is a failed API call. The server writes it and the client parses
// it back, so both sides agree on status and code.
type APIError struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is matches another *APIError by code, so errors.Is(err, authsdk.ErrInvalidCredentials) works.
func (e *APIError) Is(target error) bool {
	var t *APIError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WriteError writes e as a JSON response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, ErrorResponse{
		Error:            e.Code,
		ErrorDescription: e.Description,
	})
}

var (
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "request body must be a JSON object",
	}
	ErrMissingFields = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeMissingFields,
		Description: "all required fields must be provided",
	}
	ErrPasswordMismatch = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodePasswordMismatch,
		Description: "passwords do not match",
	}
	ErrWeakPassword = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeWeakPassword,
		Description: "password must be at least 6 characters",
	}
	ErrInvalidPhoneFormat = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidPhoneFormat,
		Description: "valid phone number required",
	}
	ErrInvalidOrExpiredOTP = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidOrExpiredOTP,
		Description: "invalid or expired OTP, please request a new one",
	}
	ErrDuplicateIdentity = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeDuplicateIdentity,
		Description: "user id or email already registered",
	}
	ErrInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "invalid credentials",
	}
	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// IsInvalidCredentials reports whether err is a login rejection.
func IsInvalidCredentials(err error) bool { return errors.Is(err, ErrInvalidCredentials) }

// IsInvalidOrExpiredOTP reports whether err is an OTP rejection.
func IsInvalidOrExpiredOTP(err error) bool { return errors.Is(err, ErrInvalidOrExpiredOTP) }

// IsDuplicateIdentity reports whether err is a registration conflict.
func IsDuplicateIdentity(err error) bool { return errors.Is(err, ErrDuplicateIdentity) }

// parseErrorResponse turns a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("unexpected status %d", resp.StatusCode),
	}
}
