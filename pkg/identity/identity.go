package identity

import "context"

// Subject is a verified caller.
type Subject struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Verifier resolves a bearer token into a subject. Any failure maps to
// ErrInvalidCredential.
type Verifier interface {
	Verify(ctx context.Context, token string) (Subject, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, token string) (Subject, error)

func (f VerifierFunc) Verify(ctx context.Context, token string) (Subject, error) {
	return f(ctx, token)
}
