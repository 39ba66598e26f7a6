package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/lingoplay/internal/common"
	validation "github.com/go-ozzo/ozzo-validation"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Reason string `json:"reason"`
	Detail any    `json:"detail,omitempty"`
}

func decodeJSON(r *http.Request, dest any) error {
	if r.Body == nil {
		return errors.New("request body required")
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func statusFor(err error) int {
	switch {
	case common.IsAuthFailure(err):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrDuplicateIdentity), errors.Is(err, common.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrValidation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the reason of err. Internal errors are logged and
// leave the body generic.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	respondJSON(w, status, errorResponse{Reason: common.Reason(err)})
}

// respondInvalid answers 422 with the per-field messages of a failed
// validation.
func respondInvalid(w http.ResponseWriter, err error) {
	resp := errorResponse{Reason: common.ReasonValidation}
	var fields validation.Errors
	if errors.As(err, &fields) {
		resp.Detail = fields
	} else if err != nil {
		resp.Detail = err.Error()
	}
	respondJSON(w, http.StatusUnprocessableEntity, resp)
}
