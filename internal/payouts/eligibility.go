package payouts

import (
	"github.com/omarkhaled/stayhub-backend/pkg/db/models"
)

// EligibilityInput is everything the eligibility check looks at. The check is
// pure and advisory: it reads a snapshot, so the final word on balance belongs
// to the conditional wallet reservation.
type EligibilityInput struct {
	Host               *models.User
	RequestedCents     int64
	PendingPayoutCents int64
	MinAmountCents     int64
}

// EligibilityResult reports whether a payout may proceed and, when it may
// not, the first rule that failed.
type EligibilityResult struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
}

const (
	ReasonBelowMinimum        = "amount below minimum payout"
	ReasonBankDetailsMissing  = "bank details incomplete"
	ReasonNationalIDMissing   = "national id missing"
	ReasonInsufficientBalance = "insufficient available balance"
)

// CheckEligibility evaluates the rules in order and stops at the first
// failure.
func CheckEligibility(in EligibilityInput) EligibilityResult {
	if in.RequestedCents < in.MinAmountCents {
		return EligibilityResult{Reason: ReasonBelowMinimum}
	}
	if in.Host == nil || !in.Host.HasBankDetails() {
		return EligibilityResult{Reason: ReasonBankDetailsMissing}
	}
	if !in.Host.HasNationalID() {
		return EligibilityResult{Reason: ReasonNationalIDMissing}
	}
	if in.RequestedCents+in.PendingPayoutCents > in.Host.WalletBalanceCents {
		return EligibilityResult{Reason: ReasonInsufficientBalance}
	}
	return EligibilityResult{Eligible: true}
}
