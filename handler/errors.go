package handler

import (
	"errors"
	"net/http"
)

// ErrNilResponse indicates a handler returned nil instead of a Response.
var ErrNilResponse = errors.New("handler returned nil response")

// HTTPError is an error with an HTTP status and a stable reason key that
// is sent to clients as {"error": key}.
type HTTPError struct {
	Code int
	Key  string
}

func (e HTTPError) Error() string {
	return e.Key
}

// NewHTTPError creates an HTTPError.
func NewHTTPError(code int, key string) HTTPError {
	return HTTPError{Code: code, Key: key}
}

var (
	ErrInvalidRequest       = HTTPError{Code: http.StatusBadRequest, Key: "invalid_request"}
	ErrMissingInput         = HTTPError{Code: http.StatusBadRequest, Key: "missing_input"}
	ErrInvalidCredential    = HTTPError{Code: http.StatusUnauthorized, Key: "invalid_credential"}
	ErrInvalidCode          = HTTPError{Code: http.StatusForbidden, Key: "invalid_code"}
	ErrNoActiveSubscription = HTTPError{Code: http.StatusForbidden, Key: "no_active_subscription"}
	ErrNotFound             = HTTPError{Code: http.StatusNotFound, Key: "not_found"}
	ErrConflict             = HTTPError{Code: http.StatusConflict, Key: "conflict"}
	ErrInternal             = HTTPError{Code: http.StatusInternalServerError, Key: "internal_error"}
)
