package authsdk

import "time"

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	// Error is a stable machine readable code, e.g. "invalid_or_expired_otp"
	Error string `json:"error"`

	// ErrorDescription is a short human readable reason
	ErrorDescription string `json:"error_description"`
}

// SendOTPRequest is the body of POST /api/otp/send.
type SendOTPRequest struct {
	Phone string `json:"phone"`
}

// SendOTPResponse is returned once the code has been stored.
type SendOTPResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`

	// Delivered is false when the SMS provider failed. The code is still valid.
	Delivered bool `json:"delivered"`

	// DevCode is the plaintext code, present only when the server runs in dev mode.
	DevCode string `json:"devCode,omitempty"`
}

// VerifyOTPRequest is the body of POST /api/otp/verify.
type VerifyOTPRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// SuccessResponse is a bare acknowledgement.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// RegisterRequest is the body of POST /api/register. All fields are required.
type RegisterRequest struct {
	UserID          string `json:"userId"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Phone           string `json:"phone"`
	OTP             string `json:"otp"`
}

// RegisterResponse confirms the created account.
type RegisterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	User    User   `json:"user"`
}

// LoginRequest is the body of POST /api/login. LoginID is a user id or email.
type LoginRequest struct {
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
}

// LoginResponse carries the public profile of the authenticated user.
type LoginResponse struct {
	Success bool `json:"success"`
	User    User `json:"user"`
}

// User is the public view of an account.
type User struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the state of each dependency probed by /readyz.
type HealthChecks struct {
	Database string `json:"database"`
}
