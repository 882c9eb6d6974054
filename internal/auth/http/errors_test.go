package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/streamnest/internal/auth/service"
	"github.com/aussiebroadwan/streamnest/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestCodeFieldUnmarshal(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: `"123456"`, want: "123456"},
		{in: `123456`, want: "123456"},
		{in: `null`, want: ""},
		{in: `12.5`, wantErr: true},
		{in: `-1`, wantErr: true},
		{in: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var c codeField
			err := json.Unmarshal([]byte(tt.in), &c)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, string(c))
		})
	}
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{service.ErrMissingFields, http.StatusBadRequest, authsdk.ErrorCodeMissingFields},
		{service.ErrPasswordMismatch, http.StatusBadRequest, authsdk.ErrorCodePasswordMismatch},
		{service.ErrWeakPassword, http.StatusBadRequest, authsdk.ErrorCodeWeakPassword},
		{service.ErrInvalidPhoneFormat, http.StatusBadRequest, authsdk.ErrorCodeInvalidPhoneFormat},
		{service.ErrInvalidOrExpiredOTP, http.StatusBadRequest, authsdk.ErrorCodeInvalidOrExpiredOTP},
		{service.ErrDuplicateIdentity, http.StatusConflict, authsdk.ErrorCodeDuplicateIdentity},
		{service.ErrInvalidCredentials, http.StatusUnauthorized, authsdk.ErrorCodeInvalidCredentials},
		{fmt.Errorf("%w: disk full", service.ErrPersistence), http.StatusInternalServerError, authsdk.ErrorCodeServerError},
		{fmt.Errorf("%w: bcrypt: cost out of range", service.ErrHashing), http.StatusInternalServerError, authsdk.ErrorCodeServerError},
		{fmt.Errorf("boom"), http.StatusInternalServerError, authsdk.ErrorCodeServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/login", nil)

			writeServiceError(rec, req, tt.err)

			require.Equal(t, tt.wantStatus, rec.Code)

			var body authsdk.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tt.wantCode, body.Error)
			require.NotContains(t, body.ErrorDescription, "disk full")
		})
	}
}
