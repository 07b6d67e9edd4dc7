package identity

import (
	"context"
	"errors"

	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDCVerifier validates ID tokens issued by an OpenID Connect provider.
// Signing keys are fetched from the provider's JWKS endpoint and cached.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier runs provider discovery against issuer. clientID is
// checked against the aud claim; pass an empty string to skip that check.
func NewOIDCVerifier(ctx context.Context, issuer, clientID string) (*OIDCVerifier, error) {
	if issuer == "" {
		return nil, ErrMissingIssuer
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, err
	}

	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{
			ClientID:          clientID,
			SkipClientIDCheck: clientID == "",
		}),
	}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, token string) (Subject, error) {
	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return Subject{}, errors.Join(ErrInvalidCredential, err)
	}

	var claims struct {
		Email string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return Subject{}, errors.Join(ErrInvalidCredential, err)
	}
	if idToken.Subject == "" {
		return Subject{}, ErrInvalidCredential
	}
	return Subject{ID: idToken.Subject, Email: claims.Email}, nil
}
