package httpx

import (
	"errors"
	"net/http"

	"github.com/meridian-bm/meridian-bm/internal/shared"
)

// RespondError maps domain errors to HTTP problem responses. Anything outside
// the taxonomy collapses to a generic 500 so storage error text never reaches
// the client.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "validation", "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrInvalidTransition):
		Problem(w, http.StatusBadRequest, "invalid-transition", "Invalid Transition", err.Error())
	case errors.Is(err, shared.ErrUnauthorized), errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "", "Unauthorized", "")
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "", "Forbidden", "")
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "", "Not Found", err.Error())
	case errors.Is(err, shared.ErrInsufficientStock):
		Problem(w, http.StatusConflict, "insufficient-stock", "Insufficient Stock", err.Error())
	case errors.Is(err, shared.ErrMappingRequired):
		Problem(w, http.StatusConflict, "mapping-required", "Mapping Required", err.Error())
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "", "Conflict", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "", "Internal Error", "")
	}
}
