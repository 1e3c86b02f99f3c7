package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/cloudnotes/internal/common"
	"github.com/dmitrijs2005/cloudnotes/internal/logging"
)

// envelope is the body of every JSON response.
type envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    any                 `json:"data,omitempty"`
	Errors  []common.FieldError `json:"errors,omitempty"`
	Cause   string              `json:"cause,omitempty"`
	Error   string              `json:"error,omitempty"`
	Stack   string              `json:"stack,omitempty"`
}

// statusFor maps every error kind to its HTTP status.
func statusFor(k common.Kind) int {
	switch k {
	case common.KindValidation:
		return http.StatusBadRequest
	case common.KindUnauthenticated, common.KindUnauthorized:
		return http.StatusUnauthorized
	case common.KindNotFound:
		return http.StatusNotFound
	case common.KindConflict:
		return http.StatusConflict
	case common.KindUnconfigured, common.KindUnavailable:
		return http.StatusServiceUnavailable
	case common.KindUpstream, common.KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, status int, msg string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: msg, Data: data})
}

// responder renders errors into envelopes. Detail (the wrapped error text)
// is only included outside production.
type responder struct {
	logger     logging.Logger
	production bool
}

func (rs *responder) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var e *common.Error
	if !errors.As(err, &e) {
		e = common.WrapError(common.KindInternal, "Internal server error", err)
	}

	status := statusFor(e.Kind)
	if status >= http.StatusInternalServerError {
		rs.logger.Error(ctx, "request failed",
			"kind", e.Kind.String(), "error", err, "request_id", RequestIDFromContext(ctx))
	}

	body := envelope{Message: e.Message, Errors: e.Fields, Cause: e.Cause}
	if !rs.production && e.Err != nil {
		body.Error = e.Err.Error()
	}
	writeJSON(w, status, body)
}

func (rs *responder) badRequest(ctx context.Context, w http.ResponseWriter, msg string) {
	rs.writeError(ctx, w, common.NewError(common.KindValidation, msg))
}
