package access

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/trialgate/handler"
	"github.com/dmitrymomot/trialgate/pkg/binder"
	"github.com/dmitrymomot/trialgate/pkg/logger"
	"github.com/dmitrymomot/trialgate/pkg/subscription"
	"github.com/dmitrymomot/trialgate/pkg/trialcode"
)

type generateCodesRequest struct {
	Code      string     `json:"code"`
	Count     int        `json:"count"`
	Days      int        `json:"days"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type generateCodesResponse struct {
	Codes []codeResponse `json:"codes"`
}

func (h *handlers) generateCodesHandler() http.HandlerFunc {
	return handler.Wrap(h.generateCodes,
		handler.WithBinders[handler.Context, generateCodesRequest](binder.JSON()),
	)
}

// generateCodes mints a batch of single-use codes. An empty body yields
// one code of the default trial length. A non-empty code field stores that
// exact value instead and cannot be combined with a count above one.
func (h *handlers) generateCodes(ctx handler.Context, req generateCodesRequest) handler.Response {
	days := req.Days
	if days == 0 {
		days = h.defaultTrialDays
	}
	if strings.TrimSpace(req.Code) != "" {
		if req.Count > 1 {
			return handler.JSONError(handler.ErrInvalidRequest)
		}
		return h.createCode(ctx, req.Code, days, req.ExpiresAt)
	}

	codes, err := h.codes.Generate(ctx, trialcode.GenerateParams{
		Count:     req.Count,
		Days:      days,
		ExpiresAt: req.ExpiresAt,
	})
	if errors.Is(err, trialcode.ErrInvalidCount) || errors.Is(err, trialcode.ErrInvalidDuration) {
		return handler.JSONError(errors.Join(handler.ErrInvalidRequest, err))
	}
	if err != nil {
		h.log.ErrorContext(ctx, "code generation failed", logger.Error(err))
		return handler.JSONError(handler.ErrInternal)
	}
	h.recorder.CodesIssued(len(codes))
	h.log.InfoContext(ctx, "trial codes issued", "count", len(codes))

	resp := generateCodesResponse{Codes: make([]codeResponse, 0, len(codes))}
	for i := range codes {
		resp.Codes = append(resp.Codes, toCodeResponse(&codes[i]))
	}
	return handler.JSON(resp, handler.WithJSONStatus(http.StatusCreated))
}

func (h *handlers) createCode(ctx handler.Context, value string, days int, expiresAt *time.Time) handler.Response {
	code, err := h.codes.Create(ctx, value, days, expiresAt)
	switch {
	case errors.Is(err, trialcode.ErrCodeAlreadyExists):
		return handler.JSONError(handler.ErrConflict)
	case errors.Is(err, trialcode.ErrInvalidDuration):
		return handler.JSONError(errors.Join(handler.ErrInvalidRequest, err))
	case err != nil:
		h.log.ErrorContext(ctx, "code creation failed", logger.Error(err))
		return handler.JSONError(handler.ErrInternal)
	}
	h.recorder.CodesIssued(1)
	h.log.InfoContext(ctx, "trial code created", "code", code.Code)

	resp := generateCodesResponse{Codes: []codeResponse{toCodeResponse(code)}}
	return handler.JSON(resp, handler.WithJSONStatus(http.StatusCreated))
}

type getCodeRequest struct {
	Code string `path:"code"`
}

func (h *handlers) getCodeHandler() http.HandlerFunc {
	return handler.Wrap(h.getCode,
		handler.WithBinders[handler.Context, getCodeRequest](binder.Path(chi.URLParam)),
	)
}

func (h *handlers) getCode(ctx handler.Context, req getCodeRequest) handler.Response {
	code, err := h.codes.Get(ctx, req.Code)
	if errors.Is(err, trialcode.ErrCodeNotFound) {
		return handler.JSONError(handler.ErrNotFound)
	}
	if err != nil {
		h.log.ErrorContext(ctx, "code lookup failed", logger.Error(err))
		return handler.JSONError(handler.ErrInternal)
	}
	return handler.JSON(toCodeResponse(code))
}

type grantPaidRequest struct {
	UserID string `json:"user_id"`
	Days   int    `json:"days"`
}

func (h *handlers) grantPaidHandler() http.HandlerFunc {
	return handler.Wrap(h.grantPaid,
		handler.WithBinders[handler.Context, grantPaidRequest](binder.JSON()),
	)
}

// grantPaid upgrades (or renews) a subject to the paid plan, replacing
// whatever subscription they had.
func (h *handlers) grantPaid(ctx handler.Context, req grantPaidRequest) handler.Response {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return handler.JSONError(handler.ErrMissingInput)
	}
	days := req.Days
	if days == 0 {
		days = DefaultPaidDays
	}

	sub, err := h.subs.UpsertPaid(ctx, userID, days)
	if errors.Is(err, subscription.ErrInvalidDuration) {
		return handler.JSONError(errors.Join(handler.ErrInvalidRequest, err))
	}
	if err != nil {
		h.log.ErrorContext(ctx, "paid grant failed", logger.SubjectID(userID), logger.Error(err))
		return handler.JSONError(handler.ErrInternal)
	}
	h.recorder.Grant(string(subscription.PlanPaid))
	h.log.InfoContext(ctx, "paid plan granted",
		logger.SubjectID(userID),
		logger.Plan(string(sub.Plan)),
	)

	return handler.JSON(toSubscriptionResponse(sub, h.subs.Now()))
}
