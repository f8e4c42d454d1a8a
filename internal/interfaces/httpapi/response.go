package httpapi

import (
	"context"
	"net/http"
	"strconv"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/daklaw/nba-pickem-backend/internal/domain/scoring"
	"github.com/daklaw/nba-pickem-backend/internal/usecase"
)

const (
	googleAPIVersion = "2.0"
	errorDomain      = "nba-pickem"
)

type googleResponseEnvelope struct {
	APIVersion string           `json:"apiVersion"`
	Data       any              `json:"data,omitempty"`
	Error      *googleErrorBody `json:"error,omitempty"`
}

type googleErrorBody struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Status  string            `json:"status"`
	Errors  []googleErrorItem `json:"errors,omitempty"`
}

type googleErrorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type mappedError struct {
	HTTPStatus int
	Reason     string
	Status     string
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	ctx, span := startSpan(ctx, "httpapi.writeJSON")
	defer span.End()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(payload); err != nil {
		buf.Reset()
		status = http.StatusInternalServerError
		_, _ = buf.WriteString(`{"apiVersion":"` + googleAPIVersion + `","error":{"code":500,"message":"encode response","status":"INTERNAL"}}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(status)
	_, _ = w.Write(buf.B)
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, data any) {
	ctx, span := startSpan(ctx, "httpapi.writeSuccess")
	defer span.End()

	writeJSON(ctx, w, status, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Data:       data,
	})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	ctx, span := startSpan(ctx, "httpapi.writeError")
	defer span.End()

	mapped := mapError(ctx, err)
	writeJSON(ctx, w, mapped.HTTPStatus, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error: &googleErrorBody{
			Code:    mapped.HTTPStatus,
			Message: err.Error(),
			Status:  mapped.Status,
			Errors: []googleErrorItem{
				{
					Domain:  errorDomain,
					Reason:  mapped.Reason,
					Message: err.Error(),
				},
			},
		},
	})
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	ctx, span := startSpan(ctx, "httpapi.writeInternalError")
	defer span.End()

	const msg = "internal server error"

	writeJSON(ctx, w, http.StatusInternalServerError, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error: &googleErrorBody{
			Code:    http.StatusInternalServerError,
			Message: msg,
			Status:  "INTERNAL",
			Errors: []googleErrorItem{
				{
					Domain:  errorDomain,
					Reason:  "internalError",
					Message: msg,
				},
			},
		},
	})
}

func mapError(ctx context.Context, err error) mappedError {
	ctx, span := startSpan(ctx, "httpapi.mapError")
	defer span.End()

	switch {
	case crerr.Is(err, usecase.ErrInvalidInput):
		return mappedError{HTTPStatus: http.StatusBadRequest, Reason: "invalidInput", Status: "INVALID_ARGUMENT"}
	case crerr.Is(err, usecase.ErrNotFound):
		return mappedError{HTTPStatus: http.StatusNotFound, Reason: "notFound", Status: "NOT_FOUND"}
	case crerr.Is(err, usecase.ErrUnauthorized):
		return mappedError{HTTPStatus: http.StatusUnauthorized, Reason: "unauthorized", Status: "UNAUTHENTICATED"}
	case crerr.Is(err, usecase.ErrDependencyUnavailable):
		return mappedError{HTTPStatus: http.StatusServiceUnavailable, Reason: "dependencyUnavailable", Status: "UNAVAILABLE"}
	case crerr.Is(err, scoring.ErrConcurrentUpdateConflict):
		return mappedError{HTTPStatus: http.StatusConflict, Reason: "concurrentUpdateConflict", Status: "ABORTED"}
	case crerr.Is(err, scoring.ErrGameNotFinal):
		return mappedError{HTTPStatus: http.StatusUnprocessableEntity, Reason: "gameNotFinal", Status: "FAILED_PRECONDITION"}
	case crerr.Is(err, scoring.ErrInvalidGameState):
		return mappedError{HTTPStatus: http.StatusUnprocessableEntity, Reason: "invalidGameState", Status: "FAILED_PRECONDITION"}
	case crerr.Is(err, scoring.ErrInvalidDate):
		return mappedError{HTTPStatus: http.StatusUnprocessableEntity, Reason: "invalidDate", Status: "FAILED_PRECONDITION"}
	case crerr.Is(err, scoring.ErrWeekResolutionFailed):
		return mappedError{HTTPStatus: http.StatusUnprocessableEntity, Reason: "weekResolutionFailed", Status: "FAILED_PRECONDITION"}
	case crerr.Is(err, context.DeadlineExceeded):
		return mappedError{HTTPStatus: http.StatusGatewayTimeout, Reason: "deadlineExceeded", Status: "DEADLINE_EXCEEDED"}
	default:
		return mappedError{HTTPStatus: http.StatusInternalServerError, Reason: "internalError", Status: "INTERNAL"}
	}
}
