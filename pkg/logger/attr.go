package logger

import (
	"log/slog"
)

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// SubjectID records the authenticated subject under "subject_id".
func SubjectID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("subject_id", id)
}

// DeviceID records the device cookie value under "device_id".
func DeviceID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("device_id", id)
}

// IP records a client address under "ip".
func IP(ip string) slog.Attr {
	return slog.String("ip", ip)
}

// Plan records a subscription plan under "plan".
func Plan(plan string) slog.Attr {
	return slog.String("plan", plan)
}

// Reason records a denial reason under "reason".
func Reason(reason string) slog.Attr {
	return slog.String("reason", reason)
}

// RequestID records the request identifier under "request_id".
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// Component records the component name under "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Duration records a duration under "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}
