package identity

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the token claims understood by HMACVerifier.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// HMACVerifier validates HS256 tokens signed with a shared key.
type HMACVerifier struct {
	key    []byte
	parser *jwt.Parser
}

// HMACOption configures an HMACVerifier.
type HMACOption func(*hmacConfig)

type hmacConfig struct {
	issuer   string
	audience string
	now      func() time.Time
}

// WithIssuer requires the iss claim to match.
func WithIssuer(iss string) HMACOption {
	return func(c *hmacConfig) { c.issuer = iss }
}

// WithAudience requires the aud claim to contain aud.
func WithAudience(aud string) HMACOption {
	return func(c *hmacConfig) { c.audience = aud }
}

// WithTimeFunc overrides the clock used for exp and nbf validation.
func WithTimeFunc(now func() time.Time) HMACOption {
	return func(c *hmacConfig) { c.now = now }
}

func NewHMACVerifier(key string, opts ...HMACOption) (*HMACVerifier, error) {
	if key == "" {
		return nil, ErrMissingSigningKey
	}

	cfg := &hmacConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(cfg.issuer))
	}
	if cfg.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(cfg.audience))
	}
	if cfg.now != nil {
		parserOpts = append(parserOpts, jwt.WithTimeFunc(cfg.now))
	}

	return &HMACVerifier{
		key:    []byte(key),
		parser: jwt.NewParser(parserOpts...),
	}, nil
}

func (v *HMACVerifier) Verify(_ context.Context, token string) (Subject, error) {
	var claims Claims
	_, err := v.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		return Subject{}, errors.Join(ErrInvalidCredential, err)
	}
	if claims.Subject == "" {
		return Subject{}, ErrInvalidCredential
	}
	return Subject{ID: claims.Subject, Email: claims.Email}, nil
}
