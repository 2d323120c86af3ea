package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is:
//   - Logged with full technical details and the request ID (server-side)
//   - Returned as a user-friendly message with an action and a support code
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err), which picks the status via statusFor
//  3. Error is mapped via core.MapError to get the user-friendly message
//  4. Technical error + context is logged for correlation
//  5. ErrorResponse is written as JSON
//
// Persistence outcomes that are not Go errors (a rejected save, a rolled back
// delete) are rendered by respondResult with the same ErrorResponse body.

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/JonMunkholm/eprregister/internal/core"
	"github.com/JonMunkholm/eprregister/internal/remote"
	"github.com/JonMunkholm/eprregister/internal/sheet"
	"github.com/go-chi/chi/v5/middleware"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

func newErrorResponse(err error) ErrorResponse {
	msg := core.MapError(err)
	return ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
}

// respondError logs err and writes its user-facing form with the status
// chosen by statusFor.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := newErrorResponse(err)

	logError(r, err, status, resp.Code)
	writeJSON(w, status, resp)
}

func logError(r *http.Request, err error, status int, code string) {
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", code,
		"request_id", middleware.GetReqID(r.Context()),
	)
}

// statusFor maps an error to an HTTP status code.
func statusFor(err error) int {
	var importErr *core.ImportError
	var remoteErr *remote.RemoteError
	var netErr net.Error

	switch {
	case errors.Is(err, core.ErrUnknownRegister),
		errors.Is(err, core.ErrRegisterNotOpen),
		errors.Is(err, core.ErrRowNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrSaveInProgress):
		return http.StatusConflict
	case errors.Is(err, core.ErrValidation),
		errors.As(err, &importErr),
		errors.Is(err, core.ErrNoRecognizedHeaders),
		errors.Is(err, core.ErrEmptyImport),
		errors.Is(err, core.ErrTooManyRows),
		errors.Is(err, sheet.ErrNotSpreadsheet),
		errors.Is(err, sheet.ErrNoHeader):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrUnknownField),
		errors.Is(err, core.ErrNotAttachment),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &remoteErr),
		errors.As(err, &netErr),
		errors.Is(err, remote.ErrMissingURL),
		errors.Is(err, core.ErrNoUploader):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errBadRequest marks malformed request bodies.
var errBadRequest = errors.New("bad request")

// resultResponse is the body returned by save and delete operations.
type resultResponse struct {
	Result     core.Result           `json:"result"`
	Error      *ErrorResponse        `json:"error,omitempty"`
	Validation core.ValidationErrors `json:"validation,omitempty"`
	Restored   *core.RowView         `json:"restored,omitempty"`
	View       core.RegisterView     `json:"view"`
}

// respondResult writes the outcome of a persistence operation. A failed
// result carries the user-facing error and, for a rolled back delete, the
// row that was put back.
func (s *Server) respondResult(w http.ResponseWriter, r *http.Request, res core.Result, view core.RegisterView) {
	resp := resultResponse{Result: res, View: view}
	status := http.StatusOK

	switch res.Status {
	case core.StatusCommitted:
	case core.StatusRejected:
		status = statusFor(res.Err)
		var verrs core.ValidationErrors
		if errors.As(res.Err, &verrs) {
			resp.Validation = verrs
		}
	case core.StatusBusy:
		status = http.StatusConflict
	case core.StatusRolledBack:
		status = http.StatusBadGateway
		for i := range view.Rows {
			if view.Rows[i].Row.Key == res.Key {
				resp.Restored = &view.Rows[i]
				break
			}
		}
	default:
		status = http.StatusBadGateway
	}

	if res.Err != nil {
		e := newErrorResponse(res.Err)
		resp.Error = &e
		logError(r, res.Err, status, e.Code)
	}
	writeJSON(w, status, resp)
}
