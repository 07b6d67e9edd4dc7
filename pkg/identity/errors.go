package identity

import "errors"

var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrMissingSigningKey = errors.New("identity: signing key is required")
	ErrMissingIssuer     = errors.New("identity: oidc issuer is required")
	ErrMissingSubject    = errors.New("identity: subject id is required")
)
