package httpx

import (
	"errors"
	"net/http"

	"github.com/agrodash/agrodash/internal/shared"
)

// Messages returned to clients for each error class.
const (
	MsgNoToken      = "No token provided"
	MsgInvalidToken = "Invalid token"
	MsgVerifyFailed = "Failed to verify token"
	MsgNotFound     = "Not found"
	MsgInternal     = "Something went wrong!"
)

// RespondError maps domain errors to an error body. fallback is used for
// internal failures so callers can keep endpoint specific wording.
func RespondError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, shared.ErrUnauthenticated):
		Error(w, http.StatusUnauthorized, MsgNoToken)
	case errors.Is(err, shared.ErrInvalidCredential):
		Error(w, http.StatusUnauthorized, MsgInvalidToken)
	case errors.Is(err, shared.ErrIdentityUnavailable):
		Error(w, http.StatusInternalServerError, MsgVerifyFailed)
	case errors.Is(err, shared.ErrNotFound):
		Error(w, http.StatusNotFound, MsgNotFound)
	default:
		if fallback == "" {
			fallback = MsgInternal
		}
		Error(w, http.StatusInternalServerError, fallback)
	}
}
