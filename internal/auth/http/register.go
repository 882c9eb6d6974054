package http

import (
	"net/http"

	"github.com/aussiebroadwan/streamnest/internal/auth/service"
	"github.com/aussiebroadwan/streamnest/pkg/authsdk"
	"github.com/aussiebroadwan/streamnest/pkg/httpx"
	"github.com/aussiebroadwan/streamnest/pkg/slogx"
)

// RegisterHandler creates accounts gated by a phone OTP.
type RegisterHandler struct {
	AuthService *service.AuthService
}

type registerRequest struct {
	UserID          string    `json:"userId"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	Password        string    `json:"password"`
	ConfirmPassword string    `json:"confirmPassword"`
	Phone           string    `json:"phone"`
	OTP             codeField `json:"otp"`
}

// ServeHTTP godoc
//
//	@Summary		Register an account
//	@Description	Creates an account after checking the phone OTP. The OTP is consumed only when the account is created.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest		true	"Registration form"
//	@Success		201		{object}	authsdk.RegisterResponse	"Account created"
//	@Failure		400		{object}	authsdk.ErrorResponse		"invalid_request, missing_fields, password_mismatch, weak_password, invalid_or_expired_otp"
//	@Failure		409		{object}	authsdk.ErrorResponse		"duplicate_identity"
//	@Failure		429		{object}	authsdk.ErrorResponse		"rate_limit_exceeded"
//	@Failure		500		{object}	authsdk.ErrorResponse		"server_error"
//	@Router			/api/register [post].
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		log.Debug("register: bad body", "error", err)
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	reg, err := h.AuthService.Register(ctx, service.RegisterInput{
		UserID:          req.UserID,
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Phone:           req.Phone,
		OTP:             string(req.OTP),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.RegisterResponse{
		Success: true,
		Message: "Registration successful",
		User: authsdk.User{
			UserID:   reg.UserID,
			Username: reg.Username,
			Email:    reg.Email,
		},
	})
}
