package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/trialgate/modules/access"
	"github.com/dmitrymomot/trialgate/pkg/adminkey"
	"github.com/dmitrymomot/trialgate/pkg/clientip"
	"github.com/dmitrymomot/trialgate/pkg/config"
	"github.com/dmitrymomot/trialgate/pkg/cookie"
	"github.com/dmitrymomot/trialgate/pkg/device"
	"github.com/dmitrymomot/trialgate/pkg/entitlement"
	"github.com/dmitrymomot/trialgate/pkg/httpserver"
	"github.com/dmitrymomot/trialgate/pkg/identity"
	"github.com/dmitrymomot/trialgate/pkg/metrics"
	"github.com/dmitrymomot/trialgate/pkg/ratelimiter"
	"github.com/dmitrymomot/trialgate/pkg/requestid"
	"github.com/dmitrymomot/trialgate/pkg/subscription"
	"github.com/dmitrymomot/trialgate/pkg/trialcode"
)

// dependencies is everything newRouter needs that is built from config.
type dependencies struct {
	cfg      appConfig
	log      *slog.Logger
	stores   *stores
	verifier identity.Verifier
	cookies  *cookie.Manager
	admin    *adminkey.Checker
	resolver *clientip.Resolver
	metrics  *metrics.Metrics
	rate     ratelimiter.Config
}

func loadDependencies(ctx context.Context, cfg appConfig, log *slog.Logger, st *stores) (*dependencies, error) {
	var cookieCfg cookie.Config
	if err := config.Load(&cookieCfg); err != nil {
		return nil, fmt.Errorf("load cookie config: %w", err)
	}
	cookies, err := cookie.NewFromConfig(cookieCfg)
	if err != nil {
		return nil, err
	}

	var ipCfg clientip.Config
	if err := config.Load(&ipCfg); err != nil {
		return nil, fmt.Errorf("load client ip config: %w", err)
	}

	var rateCfg ratelimiter.Config
	if err := config.Load(&rateCfg); err != nil {
		return nil, fmt.Errorf("load rate limit config: %w", err)
	}

	resolver, err := clientip.New(ipCfg)
	if err != nil {
		return nil, err
	}

	admin, err := adminkey.New(cfg.AdminKey)
	if err != nil {
		return nil, err
	}

	verifier, err := newVerifier(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &dependencies{
		cfg:      cfg,
		log:      log,
		stores:   st,
		verifier: verifier,
		cookies:  cookies,
		admin:    admin,
		resolver: resolver,
		metrics:  metrics.New(),
		rate:     rateCfg,
	}, nil
}

// newVerifier prefers OIDC discovery when an issuer is configured and
// falls back to a shared HS256 key.
func newVerifier(ctx context.Context, cfg appConfig) (identity.Verifier, error) {
	if cfg.OIDCIssuer != "" {
		if cfg.OIDCClientID == "" {
			return nil, errors.New("OIDC_CLIENT_ID is required with OIDC_ISSUER")
		}
		return identity.NewOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCClientID)
	}

	var opts []identity.HMACOption
	if cfg.JWTIssuer != "" {
		opts = append(opts, identity.WithIssuer(cfg.JWTIssuer))
	}
	if cfg.JWTAudience != "" {
		opts = append(opts, identity.WithAudience(cfg.JWTAudience))
	}
	return identity.NewHMACVerifier(cfg.JWTSigningKey, opts...)
}

func newRouter(d *dependencies) (http.Handler, error) {
	codes := trialcode.NewService(d.stores.codes)
	subs := subscription.NewService(d.stores.subs)
	limiter := device.NewLimiter(d.stores.devices, device.WithIPWindow(d.cfg.DeviceIPWindow))

	bucket, err := ratelimiter.NewBucket(d.stores.rate, d.rate)
	if err != nil {
		return nil, err
	}

	gate := entitlement.NewGate(subs, limiter, d.cookies,
		entitlement.WithRecorder(d.metrics),
		entitlement.WithLogger(d.log),
	)

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer,
		d.metrics.Middleware,
		requestid.Middleware,
		d.resolver.Middleware,
	)

	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(d.log, d.cfg.ReadinessTimeout, d.stores.checks...))
	r.Handle("/metrics", d.metrics.Handler())

	r.Mount("/", access.Router(access.RouterOptions{
		Codes:         codes,
		Subscriptions: subs,
		Devices:       limiter,
		Authenticate: identity.Middleware(d.verifier,
			identity.WithUserStore(d.stores.users),
			identity.WithLogger(d.log),
		),
		Gate:             gate.Middleware,
		AdminOnly:        d.admin.Middleware,
		RedeemLimit:      ratelimiter.Middleware(bucket, access.RedeemRateKey, d.log),
		DefaultTrialDays: d.cfg.TrialDefaultDays,
		Recorder:         d.metrics,
		Logger:           d.log,
	}))

	return r, nil
}

func runServer(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	deps, err := loadDependencies(ctx, cfg, log, st)
	if err != nil {
		return err
	}
	handler, err := newRouter(deps)
	if err != nil {
		return err
	}

	var srvCfg httpserver.Config
	if err := config.Load(&srvCfg); err != nil {
		return fmt.Errorf("load http config: %w", err)
	}
	return httpserver.NewFromConfig(srvCfg, httpserver.WithLogger(log)).Run(ctx, handler)
}
