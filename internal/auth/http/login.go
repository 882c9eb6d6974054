package http

import (
	"net/http"

	"github.com/aussiebroadwan/streamnest/internal/auth/service"
	"github.com/aussiebroadwan/streamnest/pkg/authsdk"
	"github.com/aussiebroadwan/streamnest/pkg/httpx"
	"github.com/aussiebroadwan/streamnest/pkg/slogx"
)

// LoginHandler checks credentials and returns the public profile.
type LoginHandler struct {
	AuthService *service.AuthService
}

// ServeHTTP godoc
//
//	@Summary		Log in
//	@Description	Authenticates by user id or email plus password. Unknown identifiers and wrong passwords return the same error.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.LoginResponse	"Authenticated"
//	@Failure		400		{object}	authsdk.ErrorResponse	"invalid_request, missing_fields"
//	@Failure		401		{object}	authsdk.ErrorResponse	"invalid_credentials"
//	@Failure		429		{object}	authsdk.ErrorResponse	"rate_limit_exceeded"
//	@Failure		500		{object}	authsdk.ErrorResponse	"server_error"
//	@Router			/api/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		log.Debug("login: bad body", "error", err)
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	id, err := h.AuthService.Login(ctx, req.LoginID, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
		Success: true,
		User: authsdk.User{
			UserID:   id.UserID,
			Username: id.Username,
			Email:    id.Email,
		},
	})
}
