package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err), which picks the status via statusFor
//  3. Error is mapped via core.MapError to get user-friendly message
//  4. Technical error + context is logged with request ID for correlation
//  5. The JSON envelope carries the message plus, for rejections, the kind
//     and per-entity issues. Other 4xx errors with a known code expose
//     their text; everything else only the generic message.

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/classroster/internal/core"
	"github.com/JonMunkholm/classroster/internal/logging"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code, Kind) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string       `json:"error"`
	Message string       `json:"message"`
	Action  string       `json:"action,omitempty"`
	Code    string       `json:"code"`
	Kind    core.Kind    `json:"kind,omitempty"`
	Issues  []core.Issue `json:"issues,omitempty"`
}

var errNoFile = errors.New("no file provided")

// respondError logs the technical error server-side and writes the JSON
// error envelope.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	log := logging.FromContext(r.Context()).With(
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	)
	if status >= http.StatusInternalServerError {
		log.Error("request error")
	} else {
		log.Warn("request rejected")
	}

	resp := ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	}
	var rej *core.Error
	switch {
	case errors.As(err, &rej):
		resp.Kind = rej.Kind
		resp.Issues = rej.Issues
		if rej.Detail != "" {
			resp.Error = rej.Detail
		}
	case status < http.StatusInternalServerError && core.IsUserFacing(err):
		resp.Error = err.Error()
	}
	writeJSON(w, status, resp)
}

// statusFor maps an error to its HTTP status. Every rejection of client
// input is a 4xx.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case core.KindOf(err) != "":
		return http.StatusBadRequest
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errNoFile), errors.Is(err, core.ErrInvalidProjectName):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUploadNotFound), errors.Is(err, core.ErrProjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrArchiveDisabled):
		return http.StatusNotImplemented
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
