// Package identity resolves bearer tokens into subjects.
//
// Two verifiers are provided: HMACVerifier for HS256 tokens signed with a
// shared key, and OIDCVerifier for ID tokens issued by an OpenID Connect
// provider. Middleware runs a verifier on every request, answers 401 with
// {"error":"invalid_credential"} on failure and otherwise stores the
// Subject in the request context, optionally mirroring it into a UserStore.
//
//	v, err := identity.NewHMACVerifier(cfg.JWTSigningKey)
//	r.Use(identity.Middleware(v, identity.WithUserStore(identity.NewPGUserStore(pool))))
//
//	subject, ok := identity.SubjectFromContext(r.Context())
package identity
