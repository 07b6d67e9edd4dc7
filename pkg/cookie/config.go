package cookie

import (
	"fmt"
	"net/http"
	"strings"
)

// Config holds cookie manager configuration. The defaults suit a cookie
// that must survive cross-site requests from an embedded client.
type Config struct {
	Secrets  string `env:"COOKIE_SECRETS,required"`
	Path     string `env:"COOKIE_PATH" envDefault:"/"`
	Domain   string `env:"COOKIE_DOMAIN" envDefault:""`
	MaxAge   int    `env:"COOKIE_MAX_AGE" envDefault:"31536000"`
	Secure   bool   `env:"COOKIE_SECURE" envDefault:"true"`
	HttpOnly bool   `env:"COOKIE_HTTP_ONLY" envDefault:"true"`
	SameSite string `env:"COOKIE_SAME_SITE" envDefault:"none"`
}

// parseSecrets splits the comma separated secrets list. The first secret
// signs, the rest only verify.
func (c Config) parseSecrets() []string {
	if c.Secrets == "" {
		return nil
	}

	parts := strings.Split(c.Secrets, ",")
	secrets := make([]string, 0, len(parts))
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			secrets = append(secrets, s)
		}
	}
	return secrets
}

func parseSameSite(v string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "default":
		return http.SameSiteDefaultMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidSameSite, v)
	}
}

// NewFromConfig creates a Manager from cfg. Extra options override cfg.
func NewFromConfig(cfg Config, opts ...Option) (*Manager, error) {
	sameSite, err := parseSameSite(cfg.SameSite)
	if err != nil {
		return nil, err
	}

	configOpts := []Option{
		WithPath(cfg.Path),
		WithDomain(cfg.Domain),
		WithMaxAge(cfg.MaxAge),
		WithSecure(cfg.Secure),
		WithHTTPOnly(cfg.HttpOnly),
		WithSameSite(sameSite),
	}
	return New(cfg.parseSecrets(), append(configOpts, opts...)...)
}
