// Package handler adapts typed request handlers to net/http.
//
// A HandlerFunc receives a Context and a request struct populated by the
// configured binders and returns a Response. Errors are rendered as JSON
// bodies of the form {"error": "<reason>"}; HTTPError carries the status and
// reason, and any other error is reported as 500 internal_error without
// exposing its text.
//
//	r.Post("/api/redeem", handler.Wrap(h.redeem,
//		handler.WithBinders[handler.Context, redeemRequest](binder.JSON()),
//	))
package handler
