// Package cookie writes and reads HMAC signed HTTP cookies.
//
// A Manager is created with one or more secrets of at least 32 characters.
// The first secret signs new cookies; every secret is tried when verifying,
// so secrets can be rotated by prepending a new one. Signed values are
// encoded as base64url(value) "." base64url(hmac) which keeps them within the
// cookie value character set.
//
//	m, err := cookie.NewFromConfig(cfg)
//	m.SetSigned(w, "device_id", id)
//	id, err := m.GetSigned(r, "device_id")
package cookie
