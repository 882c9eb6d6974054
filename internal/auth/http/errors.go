package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/streamnest/internal/auth/service"
	"github.com/aussiebroadwan/streamnest/pkg/authsdk"
	"github.com/aussiebroadwan/streamnest/pkg/slogx"
)

// writeServiceError maps a service error onto its API error. Infrastructure
// and unknown failures are logged in full and answered with an opaque 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch service.Classify(err) {
	case service.CategoryValidation:
		switch {
		case errors.Is(err, service.ErrPasswordMismatch):
			authsdk.ErrPasswordMismatch.WriteError(w)
		case errors.Is(err, service.ErrWeakPassword):
			authsdk.ErrWeakPassword.WriteError(w)
		case errors.Is(err, service.ErrInvalidPhoneFormat):
			authsdk.ErrInvalidPhoneFormat.WriteError(w)
		default:
			authsdk.ErrMissingFields.WriteError(w)
		}
	case service.CategoryConflict:
		authsdk.ErrDuplicateIdentity.WriteError(w)
	case service.CategoryAuthentication:
		authsdk.ErrInvalidCredentials.WriteError(w)
	case service.CategoryOTP:
		authsdk.ErrInvalidOrExpiredOTP.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed",
			"path", r.URL.Path,
			"error", err,
		)
		authsdk.ErrServerError.WriteError(w)
	}
}

// codeField accepts a JSON string or number, since web forms often post the
// OTP as a number.
type codeField string

func (c *codeField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = codeField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if _, err := strconv.ParseUint(n.String(), 10, 64); err != nil {
		return err
	}
	*c = codeField(n.String())
	return nil
}
