package http

import (
	"net/http"

	"github.com/aussiebroadwan/streamnest/internal/auth/service"
	"github.com/aussiebroadwan/streamnest/pkg/authsdk"
	"github.com/aussiebroadwan/streamnest/pkg/httpx"
	"github.com/aussiebroadwan/streamnest/pkg/slogx"
)

// OTPHandler serves the code issue and verify endpoints.
type OTPHandler struct {
	OTPService *service.OTPService
}

type sendOTPRequest struct {
	Phone string `json:"phone"`
}

type verifyOTPRequest struct {
	Phone string    `json:"phone"`
	Code  codeField `json:"code"`
}

// HandleSend godoc
//
//	@Summary		Send a one-time code
//	@Description	Generates a 6 digit code for the phone, stores it for 10 minutes and sends it by SMS.
//	@Description	A failed SMS still answers 200 with delivered=false; the stored code stays valid.
//	@Description	In dev mode the code is returned in devCode.
//	@Tags			OTP
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SendOTPRequest	true	"Phone number"
//	@Success		200		{object}	authsdk.SendOTPResponse	"Code stored"
//	@Failure		400		{object}	authsdk.ErrorResponse	"invalid_request, invalid_phone_format"
//	@Failure		500		{object}	authsdk.ErrorResponse	"server_error"
//	@Router			/api/otp/send [post].
func (h *OTPHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req sendOTPRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		log.Debug("send otp: bad body", "error", err)
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	iss, err := h.OTPService.Issue(ctx, req.Phone)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := authsdk.SendOTPResponse{
		Success:   true,
		Message:   "OTP sent successfully",
		ExpiresAt: iss.ExpiresAt,
		Delivered: iss.Delivered,
		DevCode:   iss.DevCode,
	}
	if !iss.Delivered {
		resp.Message = "OTP generated but SMS delivery failed"
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleVerify godoc
//
//	@Summary		Verify and consume a one-time code
//	@Description	Checks the code against unexpired codes for the phone and deletes every code for that phone on success.
//	@Tags			OTP
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.VerifyOTPRequest	true	"Phone and code"
//	@Success		200		{object}	authsdk.SuccessResponse		"Code accepted"
//	@Failure		400		{object}	authsdk.ErrorResponse		"invalid_request, missing_fields, invalid_or_expired_otp"
//	@Failure		500		{object}	authsdk.ErrorResponse		"server_error"
//	@Router			/api/otp/verify [post].
func (h *OTPHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req verifyOTPRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		log.Debug("verify otp: bad body", "error", err)
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if _, err := h.OTPService.VerifyAndConsume(ctx, req.Phone, string(req.Code)); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.SuccessResponse{
		Success: true,
		Message: "OTP verified successfully",
	})
}
