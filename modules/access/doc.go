// Package access exposes the trial gate over HTTP.
//
// The public API under /api lets an authenticated subject redeem a trial
// code, read its subscription and use the protected chat feature. The
// admin API under /admin issues codes, audits them and grants the paid
// plan. Everything is mounted on a chi router built by Router; callers
// supply the authentication, entitlement and admin middlewares so the
// module does not depend on how those are configured.
package access
