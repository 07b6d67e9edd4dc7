// Package adminkey guards privileged endpoints with a shared secret sent in
// the x-admin-key header.
package adminkey

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
)

// Header carries the admin secret.
const Header = "X-Admin-Key"

var ErrMissingKey = errors.New("adminkey: key is required")

// Checker compares presented keys with the configured secret in constant
// time. Both sides are hashed first so the comparison does not leak the
// secret's length.
type Checker struct {
	digest [sha256.Size]byte
}

func New(key string) (*Checker, error) {
	if key == "" {
		return nil, ErrMissingKey
	}
	return &Checker{digest: sha256.Sum256([]byte(key))}, nil
}

// Valid reports whether presented matches the configured key.
func (c *Checker) Valid(presented string) bool {
	if presented == "" {
		return false
	}
	d := sha256.Sum256([]byte(presented))
	return subtle.ConstantTimeCompare(d[:], c.digest[:]) == 1
}

// Middleware answers 403 {"error":"not_admin"} unless the request carries
// the admin key.
func (c *Checker) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !c.Valid(r.Header.Get(Header)) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "not_admin"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
