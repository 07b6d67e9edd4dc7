package access

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/trialgate/pkg/device"
	"github.com/dmitrymomot/trialgate/pkg/identity"
	"github.com/dmitrymomot/trialgate/pkg/subscription"
	"github.com/dmitrymomot/trialgate/pkg/trialcode"
)

// DefaultPaidDays is granted by admin upgrades that do not name a duration.
const DefaultPaidDays = 30

// CodeLedger issues and redeems trial codes.
type CodeLedger interface {
	Generate(ctx context.Context, params trialcode.GenerateParams) ([]trialcode.Code, error)
	Create(ctx context.Context, value string, days int, expiresAt *time.Time) (*trialcode.Code, error)
	Redeem(ctx context.Context, code, subjectID string) (int, error)
	Get(ctx context.Context, code string) (*trialcode.Code, error)
}

// Subscriptions writes and reads subscription records.
type Subscriptions interface {
	UpsertTrial(ctx context.Context, subjectID string, days int) (*subscription.Subscription, error)
	UpsertPaid(ctx context.Context, subjectID string, days int) (*subscription.Subscription, error)
	Status(ctx context.Context, subjectID string) (subscription.Status, *subscription.Subscription, error)
	Now() time.Time
}

// DeviceLister lists a subject's known devices.
type DeviceLister interface {
	List(ctx context.Context, subjectID string) ([]device.Record, error)
}

// Recorder receives business events for metrics.
type Recorder interface {
	Redemption(outcome string)
	Grant(plan string)
	CodesIssued(n int)
}

// Middleware is a standard net/http middleware.
type Middleware func(http.Handler) http.Handler

// RouterOptions wires the module. Codes, Subscriptions, Devices,
// Authenticate, Gate and AdminOnly are required.
type RouterOptions struct {
	Codes         CodeLedger
	Subscriptions Subscriptions
	Devices       DeviceLister

	Authenticate Middleware // resolves the bearer token into a subject
	Gate         Middleware // entitlement gate for protected features
	AdminOnly    Middleware // admin key check
	RedeemLimit  Middleware // optional brute-force protection for /api/redeem

	// DefaultTrialDays applies to generated codes whose request omits
	// days. Zero defers to trialcode.DefaultDurationDays.
	DefaultTrialDays int

	Recorder Recorder
	Logger   *slog.Logger
}

// Router mounts the public API under /api and the admin API under /admin.
//
//	r := chi.NewRouter()
//	r.Mount("/", access.Router(access.RouterOptions{...}))
func Router(opts RouterOptions) chi.Router {
	if opts.Codes == nil || opts.Subscriptions == nil || opts.Devices == nil {
		panic("access: Codes, Subscriptions and Devices are required")
	}
	if opts.Authenticate == nil || opts.Gate == nil || opts.AdminOnly == nil {
		panic("access: Authenticate, Gate and AdminOnly middlewares are required")
	}
	if opts.RedeemLimit == nil {
		opts.RedeemLimit = func(next http.Handler) http.Handler { return next }
	}
	if opts.DefaultTrialDays <= 0 {
		opts.DefaultTrialDays = trialcode.DefaultDurationDays
	}
	if opts.Recorder == nil {
		opts.Recorder = noopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	h := &handlers{
		codes:    opts.Codes,
		subs:     opts.Subscriptions,
		devices:  opts.Devices,
		recorder: opts.Recorder,
		log:      opts.Logger,

		defaultTrialDays: opts.DefaultTrialDays,
	}

	r := chi.NewRouter()

	r.Route("/api", func(api chi.Router) {
		api.Use(opts.Authenticate)

		api.With(opts.RedeemLimit).Post("/redeem", h.redeemHandler())
		api.Get("/subscription", h.subscriptionHandler())

		api.Group(func(gated chi.Router) {
			gated.Use(opts.Gate)
			gated.Post("/chat", h.chatHandler())
			gated.Get("/devices", h.devicesHandler())
		})
	})

	r.Route("/admin", func(admin chi.Router) {
		admin.Use(opts.AdminOnly)

		admin.Post("/codes", h.generateCodesHandler())
		admin.Get("/codes/{code}", h.getCodeHandler())
		admin.Post("/subscriptions", h.grantPaidHandler())
	})

	return r
}

// RedeemRateKey keys the redemption rate limiter by subject. Requests
// without a subject are not limited here; they fail authentication.
func RedeemRateKey(r *http.Request) string {
	s, ok := identity.SubjectFromContext(r.Context())
	if !ok {
		return ""
	}
	return "redeem:" + s.ID
}

type handlers struct {
	codes    CodeLedger
	subs     Subscriptions
	devices  DeviceLister
	recorder Recorder
	log      *slog.Logger

	defaultTrialDays int
}

type noopRecorder struct{}

func (noopRecorder) Redemption(string) {}
func (noopRecorder) Grant(string)      {}
func (noopRecorder) CodesIssued(int)   {}
