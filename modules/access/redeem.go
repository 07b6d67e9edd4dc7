package access

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrymomot/trialgate/handler"
	"github.com/dmitrymomot/trialgate/pkg/binder"
	"github.com/dmitrymomot/trialgate/pkg/identity"
	"github.com/dmitrymomot/trialgate/pkg/logger"
	"github.com/dmitrymomot/trialgate/pkg/subscription"
	"github.com/dmitrymomot/trialgate/pkg/trialcode"
)

type redeemRequest struct {
	Code string `json:"code"`
}

const (
	redemptionSuccess = "success"
	redemptionInvalid = "invalid_code"
	redemptionError   = "error"
)

func (h *handlers) redeemHandler() http.HandlerFunc {
	return handler.Wrap(h.redeem,
		handler.WithBinders[handler.Context, redeemRequest](binder.JSON()),
	)
}

// redeem consumes a trial code and starts (or replaces) the caller's trial.
func (h *handlers) redeem(ctx handler.Context, req redeemRequest) handler.Response {
	subject, ok := identity.SubjectFromContext(ctx)
	if !ok {
		return handler.JSONError(handler.ErrInvalidCredential)
	}
	if strings.TrimSpace(req.Code) == "" {
		return handler.JSONError(handler.ErrMissingInput)
	}

	days, err := h.codes.Redeem(ctx, req.Code, subject.ID)
	switch {
	case errors.Is(err, trialcode.ErrInvalidCode):
		h.recorder.Redemption(redemptionInvalid)
		h.log.InfoContext(ctx, "trial code rejected", logger.SubjectID(subject.ID))
		return handler.JSONError(handler.ErrInvalidCode)
	case errors.Is(err, trialcode.ErrMissingCode):
		return handler.JSONError(handler.ErrMissingInput)
	case err != nil:
		h.recorder.Redemption(redemptionError)
		h.log.ErrorContext(ctx, "trial code redemption failed", logger.SubjectID(subject.ID), logger.Error(err))
		return handler.JSONError(handler.ErrInternal)
	}
	h.recorder.Redemption(redemptionSuccess)

	sub, err := h.subs.UpsertTrial(ctx, subject.ID, days)
	if err != nil {
		h.log.ErrorContext(ctx, "trial activation failed after redemption",
			logger.SubjectID(subject.ID), logger.Error(err))
		return handler.JSONError(handler.ErrInternal)
	}
	h.recorder.Grant(string(subscription.PlanTrial))

	h.log.InfoContext(ctx, "trial started",
		logger.SubjectID(subject.ID),
		logger.Plan(string(sub.Plan)),
	)

	return handler.JSON(toSubscriptionResponse(sub, h.subs.Now()))
}

func (h *handlers) subscriptionHandler() http.HandlerFunc {
	return handler.Wrap(h.currentSubscription)
}

// currentSubscription reports the caller's plan, including expired and
// inactive records. Subjects without any record get 404.
func (h *handlers) currentSubscription(ctx handler.Context, _ struct{}) handler.Response {
	subject, ok := identity.SubjectFromContext(ctx)
	if !ok {
		return handler.JSONError(handler.ErrInvalidCredential)
	}

	status, sub, err := h.subs.Status(ctx, subject.ID)
	if err != nil {
		h.log.ErrorContext(ctx, "subscription lookup failed", logger.SubjectID(subject.ID), logger.Error(err))
		return handler.JSONError(handler.ErrInternal)
	}
	if status == subscription.StatusNoSubscription || sub == nil {
		return handler.JSONError(handler.NewHTTPError(http.StatusNotFound, "no_active_subscription"))
	}

	return handler.JSON(toSubscriptionResponse(sub, h.subs.Now()))
}
