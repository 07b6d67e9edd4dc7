package access

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrymomot/trialgate/handler"
	"github.com/dmitrymomot/trialgate/pkg/binder"
	"github.com/dmitrymomot/trialgate/pkg/entitlement"
	"github.com/dmitrymomot/trialgate/pkg/logger"
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func (h *handlers) chatHandler() http.HandlerFunc {
	return handler.Wrap(h.chat,
		handler.WithBinders[handler.Context, chatRequest](binder.JSON()),
	)
}

// chat is the protected feature. It only runs behind the entitlement gate.
func (h *handlers) chat(ctx handler.Context, req chatRequest) handler.Response {
	grant, ok := entitlement.FromContext(ctx)
	if !ok || grant.Subscription == nil {
		return handler.JSONError(handler.ErrNoActiveSubscription)
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return handler.JSONError(handler.ErrMissingInput)
	}

	reply := fmt.Sprintf("[%s] %s", grant.Subscription.Plan, msg)
	return handler.JSON(chatResponse{Reply: reply})
}

type devicesResponse struct {
	Devices     []deviceResponse `json:"devices"`
	DeviceLimit int              `json:"device_limit"`
	IPLimit     int              `json:"ip_limit"`
}

func (h *handlers) devicesHandler() http.HandlerFunc {
	return handler.Wrap(h.listDevices)
}

func (h *handlers) listDevices(ctx handler.Context, _ struct{}) handler.Response {
	grant, ok := entitlement.FromContext(ctx)
	if !ok || grant.Subscription == nil {
		return handler.JSONError(handler.ErrNoActiveSubscription)
	}

	records, err := h.devices.List(ctx, grant.SubjectID)
	if err != nil {
		h.log.ErrorContext(ctx, "device listing failed", logger.SubjectID(grant.SubjectID), logger.Error(err))
		return handler.JSONError(handler.ErrInternal)
	}

	return handler.JSON(devicesResponse{
		Devices:     toDeviceResponses(records, grant.DeviceID),
		DeviceLimit: grant.Subscription.DeviceLimit,
		IPLimit:     grant.Subscription.IPLimit,
	})
}
