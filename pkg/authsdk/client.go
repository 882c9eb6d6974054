package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient talks to the accounts service over HTTP.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a client for the service at baseURL.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// SendOTP asks the service to issue and text a code to phone.
func (c *SDKClient) SendOTP(ctx context.Context, phone string) (*SendOTPResponse, error) {
	var out SendOTPResponse
	if err := c.postJSON(ctx, "/api/otp/send", SendOTPRequest{Phone: phone}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyOTP redeems code. All outstanding codes for the phone are invalidated
// on success.
func (c *SDKClient) VerifyOTP(ctx context.Context, phone, code string) error {
	var out SuccessResponse
	return c.postJSON(ctx, "/api/otp/verify", VerifyOTPRequest{Phone: phone, Code: code}, &out)
}

// Register creates an account gated by an unexpired OTP for req.Phone.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var out RegisterResponse
	if err := c.postJSON(ctx, "/api/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login checks a user id or email and password.
func (c *SDKClient) Login(ctx context.Context, loginID, password string) (*User, error) {
	var out LoginResponse
	if err := c.postJSON(ctx, "/api/login", LoginRequest{LoginID: loginID, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// GetLiveness checks if the service is alive.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return c.getHealth(ctx, "/livez")
}

// GetReadiness checks if the service can reach its store. A 503 is returned
// as an *APIError.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return c.getHealth(ctx, "/readyz")
}

func (c *SDKClient) getHealth(ctx context.Context, path string) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := decodeJSON(resp, &health); err != nil {
		return nil, err
	}
	return &health, nil
}
