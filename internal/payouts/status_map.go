package payouts

import (
	"strings"

	"github.com/omarkhaled/stayhub-backend/pkg/enums"
)

// MapProviderStatus translates the provider's disbursement status vocabulary
// into ours. Statuses we do not recognize map to pending so a later sync or
// webhook can settle the payout instead of us guessing a terminal state.
func MapProviderStatus(providerStatus string) enums.PayoutStatus {
	switch strings.ToLower(strings.TrimSpace(providerStatus)) {
	case "successful", "success":
		return enums.PayoutStatusSuccess
	case "failed", "failure", "rejected", "declined":
		return enums.PayoutStatusFailed
	case "pending", "processing", "in_progress":
		return enums.PayoutStatusProcessing
	default:
		return enums.PayoutStatusPending
	}
}
