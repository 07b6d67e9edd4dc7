// Package entitlement composes subscription and device checks into the
// middleware that guards protected endpoints.
//
// For every request the gate, in order:
//
//  1. requires a subject resolved by identity.Middleware (401 invalid_credential);
//  2. requires the x-device-fingerprint header (400 missing_input);
//  3. reads the signed device_id cookie, minting and setting a new one if it
//     is absent or fails verification;
//  4. loads the subscription (403 no_active_subscription or expired);
//  5. records the device sighting against the plan limits
//     (403 device_limit_reached or ip_limit_reached);
//  6. stores a Grant in the request context and calls the next handler.
//
// Unexpected store failures are logged and answered with 500 internal_error.
package entitlement
