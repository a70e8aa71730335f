package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JonMunkholm/classroster/internal/core"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"malformed", core.ErrMalformedInput, http.StatusBadRequest},
		{"wrapped referential", fmt.Errorf("load: %w", &core.Error{Kind: core.KindReferentialIntegrity}), http.StatusBadRequest},
		{"body too large", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge},
		{"no file", errNoFile, http.StatusBadRequest},
		{"bad name", core.ValidateProjectName(".x"), http.StatusBadRequest},
		{"upload not found", core.ErrUploadNotFound, http.StatusNotFound},
		{"project not found", fmt.Errorf("load %q: %w", "x", core.ErrProjectNotFound), http.StatusNotFound},
		{"archive disabled", core.ErrArchiveDisabled, http.StatusNotImplemented},
		{"busy", core.ErrTooManyUploads, http.StatusServiceUnavailable},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRespondError_ErrorText(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"rejection detail", &core.Error{Kind: core.KindMalformedInput, Op: "project", Detail: "invalid JSON"}, "invalid JSON"},
		{"known client error", fmt.Errorf("file too large (limit 1.0 KiB): %w", errors.New("http: request body too large")), "file too large (limit 1.0 KiB): http: request body too large"},
		{"internal error hidden", errors.New("dial tcp 10.0.0.5:5432: secret"), core.MapError(errors.New("x")).Message},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			(&Server{}).respondError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Error != tt.want {
				t.Errorf("Error = %q, want %q", resp.Error, tt.want)
			}
		})
	}
}
