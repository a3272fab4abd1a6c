package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/dharsanguruparan/docflow/internal/model"
	"github.com/dharsanguruparan/docflow/internal/service"
)

// Error codes carried in the error envelope.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodePolicyNotFound  = "POLICY_NOT_FOUND"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeAuthentication  = "AUTHENTICATION_ERROR"
	CodeAuthorization   = "AUTHORIZATION_ERROR"
	CodeExternalService = "EXTERNAL_SERVICE_ERROR"
	CodeDatabase        = "DATABASE_ERROR"
	CodeInternal        = "INTERNAL_ERROR"
)

type successEnvelope struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data"`
	Pagination *pagination `json:"pagination,omitempty"`
}

type pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Count   int  `json:"count"`
	Total   int  `json:"total"`
	HasNext bool `json:"hasNext"`
}

type errorEnvelope struct {
	Success   bool               `json:"success"`
	Error     string             `json:"error"`
	Message   string             `json:"message"`
	Details   []model.FieldError `json:"details,omitempty"`
	RequestID string             `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successEnvelope{Success: true, Data: data})
}

// writeList writes one page of a listing. total is the number of matches
// across every page.
func writeList(w http.ResponseWriter, data any, limit, offset, count, total int) {
	writeJSON(w, http.StatusOK, successEnvelope{
		Success: true,
		Data:    data,
		Pagination: &pagination{
			Limit:   limit,
			Offset:  offset,
			Count:   count,
			Total:   total,
			HasNext: offset+count < total,
		},
	})
}

// classify maps an error to its HTTP status, code and client message.
func classify(err error) (int, string, string, []model.FieldError) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, CodeValidation, "request validation failed", ve.Errors
	case errors.Is(err, model.ErrPolicyNotFound):
		return http.StatusUnprocessableEntity, CodePolicyNotFound, err.Error(), nil
	case errors.Is(err, model.ErrValidation):
		return http.StatusUnprocessableEntity, CodeValidation, err.Error(), nil
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, CodeNotFound, err.Error(), nil
	case errors.Is(err, model.ErrInvalidTransition), errors.Is(err, model.ErrConflict):
		return http.StatusConflict, CodeConflict, err.Error(), nil
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusUnauthorized, CodeAuthentication, "authentication required", nil
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden, CodeAuthorization, "not permitted for this role", nil
	case errors.Is(err, service.ErrObjectStoreDisabled):
		return http.StatusServiceUnavailable, CodeExternalService, err.Error(), nil
	case errors.Is(err, service.ErrObjectStore):
		return http.StatusBadGateway, CodeExternalService, "object storage request failed", nil
	case errors.Is(err, model.ErrDatabase):
		return http.StatusInternalServerError, CodeDatabase, "database error", nil
	default:
		return http.StatusInternalServerError, CodeInternal, "an unexpected error occurred", nil
	}
}

func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status, code, msg, details := classify(err)
	reqID := RequestIDFromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("request_id", reqID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, errorEnvelope{
		Success:   false,
		Error:     code,
		Message:   msg,
		Details:   details,
		RequestID: reqID,
	})
}
