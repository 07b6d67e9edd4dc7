// Package metrics exposes Prometheus collectors for HTTP traffic and the
// entitlement flow: gate decisions, trial code redemptions and issuance,
// and subscription grants.
package metrics
