// Package trialcode is the ledger of single-use trial codes.
//
// A code moves from unused to used exactly once. Redemption is a single
// conditional write (see Store.Redeem), so concurrent redeemers of the same
// code never need an external lock: one of them wins and the rest get
// ErrInvalidCode. Absent, used and expired codes are reported identically.
//
//	codes, err := svc.Generate(ctx, trialcode.GenerateParams{Count: 10, Days: 7})
//	days, err := svc.Redeem(ctx, "TRIAL-ABCD1234", subjectID)
package trialcode
