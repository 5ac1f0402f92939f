package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"qms/shift-service/internal/store"
)

type errorResponse struct {
	RequestID string        `json:"request_id,omitempty"`
	Error     responseError `json:"error"`
}

type responseError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		RequestID: middleware.GetReqID(r.Context()),
		Error:     responseError{Code: code, Message: message},
	})
}

func writeValidationError(w http.ResponseWriter, r *http.Request, fields map[string]string) {
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
		RequestID: middleware.GetReqID(r.Context()),
		Error: responseError{
			Code:    "validation_failed",
			Message: "the given data was invalid",
			Fields:  fields,
		},
	})
}

// writeStoreError renders err and logs it when it maps to a server error.
func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrModuleMismatch) {
		writeValidationError(w, r, map[string]string{"module_id": "module does not belong to room"})
		return
	}
	status, code, message := mapError(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
	}
	writeError(w, r, status, code, message)
}

func mapError(err error) (int, string, string) {
	switch {
	case errors.Is(err, store.ErrClientNotFound):
		return http.StatusNotFound, "client_not_found", "client not found"
	case errors.Is(err, store.ErrRoomNotFound):
		return http.StatusNotFound, "room_not_found", "room not found"
	case errors.Is(err, store.ErrModuleTypeNotFound):
		return http.StatusNotFound, "module_type_not_found", "module type not found"
	case errors.Is(err, store.ErrModuleNotFound):
		return http.StatusNotFound, "module_not_found", "module not found"
	case errors.Is(err, store.ErrAttendantNotFound):
		return http.StatusNotFound, "attendant_not_found", "attendant not found"
	case errors.Is(err, store.ErrServiceNotFound):
		return http.StatusNotFound, "service_not_found", "service not found"
	case errors.Is(err, store.ErrShiftNotFound):
		return http.StatusNotFound, "shift_not_found", "shift not found"
	case errors.Is(err, store.ErrInvalidState):
		return http.StatusConflict, "invalid_state", "shift cannot perform this action in its current state"
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict, "duplicate", "a resource with the same unique value already exists"
	case errors.Is(err, store.ErrInUse):
		return http.StatusConflict, "in_use", "resource is still referenced"
	case errors.Is(err, store.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials", "invalid credentials"
	case errors.Is(err, store.ErrSessionNotFound):
		return http.StatusUnauthorized, "unauthorized", "session expired or revoked"
	case errors.Is(err, store.ErrAccessDenied):
		return http.StatusForbidden, "access_denied", "access denied"
	default:
		return http.StatusInternalServerError, "internal_error", "internal error"
	}
}
