package handler

import (
	"encoding/json"
	"errors"
	"net/http"
)

type jsonResponse struct {
	status int
	body   any
}

func (j jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSONOption configures a JSON response.
type JSONOption func(*jsonResponse)

// WithJSONStatus sets a custom HTTP status code.
func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) { r.status = status }
}

// JSON renders v as the response body with status 200 unless overridden.
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusOK, body: v}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// JSONError renders err as {"error": key}. An HTTPError anywhere in the
// chain supplies the status and key; anything else is an internal error
// and its text is not exposed.
func JSONError(err error) Response {
	httpErr := ErrInternal
	_ = errors.As(err, &httpErr)
	return &jsonResponse{
		status: httpErr.Code,
		body:   map[string]string{"error": httpErr.Key},
	}
}

// ErrorReason returns the reason key JSONError would send for err.
func ErrorReason(err error) string {
	httpErr := ErrInternal
	_ = errors.As(err, &httpErr)
	return httpErr.Key
}
