// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/workroom-erp/workroom-erp/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrInvalidStatus):
		Problem(w, http.StatusBadRequest, "Invalid Status", err.Error())
	case errors.Is(err, shared.ErrNotEditable):
		Problem(w, http.StatusConflict, "Not Editable", err.Error())
	case errors.Is(err, shared.ErrNotDeletable):
		Problem(w, http.StatusConflict, "Not Deletable", err.Error())
	case errors.Is(err, shared.ErrNotArchived):
		Problem(w, http.StatusConflict, "Not Archived", err.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		Problem(w, http.StatusConflict, "Duplicate Request", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
