package httpx

import (
	"errors"
	"net/http"

	"github.com/meridian-pos/meridian/internal/authz"
)

// Sentinel errors for the domain layer.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrDuplicate  = errors.New("duplicate entry")
	ErrValidation = errors.New("validation failed")
)

// Denial messages fixed by the API contract.
const (
	MsgUnauthorized = "Unauthorized"
	MsgForbidden    = "Forbidden - Admin access required"
)

// RespondError maps domain errors to wire responses. Internal detail never
// reaches the body on unexpected errors.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authz.ErrUnauthenticated):
		Fail(w, http.StatusUnauthorized, MsgUnauthorized)
	case errors.Is(err, authz.ErrForbidden):
		Fail(w, http.StatusForbidden, MsgForbidden)
	case errors.Is(err, ErrNotFound):
		Fail(w, http.StatusNotFound, "Not found")
	case errors.Is(err, ErrDuplicate):
		Fail(w, http.StatusConflict, "Duplicate entry")
	case errors.Is(err, ErrValidation):
		Fail(w, http.StatusBadRequest, err.Error())
	default:
		Fail(w, http.StatusInternalServerError, "Internal error")
	}
}
