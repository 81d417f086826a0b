package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"pennywise/internal/core"
	"pennywise/internal/log"
	"pennywise/internal/services"
	"pennywise/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	// Encode failures here mean the client hung up mid-write.
	_ = json.NewEncoder(w).Encode(payload)
}

// respondError maps domain errors onto HTTP status codes. Anything
// unrecognized becomes a 500 with a generic body so internals never leak.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldError, err,
			log.FieldPath, r.URL.Path,
		)
		msg = "internal server error"
	}
	respondJSON(w, status, errorResponse{Error: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadBody):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrNotMember), errors.Is(err, services.ErrNotAdmin):
		return http.StatusForbidden
	case errors.Is(err, storage.ErrAlreadyDecided),
		errors.Is(err, storage.ErrAlreadyInvited),
		errors.Is(err, storage.ErrAlreadyMember):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidRange):
		return http.StatusBadRequest
	case isValidationError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func isValidationError(err error) bool {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		return true
	}
	for _, sentinel := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidDate,
		core.ErrInvalidPeriod,
		core.ErrInvalidCategory,
		core.ErrInvalidStatus,
		core.ErrEmptyTitle,
		core.ErrEmptyName,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
