package enums

import "fmt"

// PayoutStatus tracks a withdrawal request through the disbursement state
// machine: pending -> processing -> {success, failed}, with pending -> failed
// allowed for immediate rejections.
type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "pending"
	PayoutStatusProcessing PayoutStatus = "processing"
	PayoutStatusSuccess    PayoutStatus = "success"
	PayoutStatusFailed     PayoutStatus = "failed"
)

var validPayoutStatuses = []PayoutStatus{
	PayoutStatusPending,
	PayoutStatusProcessing,
	PayoutStatusSuccess,
	PayoutStatusFailed,
}

// String implements fmt.Stringer.
func (p PayoutStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PayoutStatus.
func (p PayoutStatus) IsValid() bool {
	for _, candidate := range validPayoutStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the payout can no longer transition.
func (p PayoutStatus) IsTerminal() bool {
	return p == PayoutStatusSuccess || p == PayoutStatusFailed
}

// HoldsFunds reports whether the payout still counts against the host's
// available balance.
func (p PayoutStatus) HoldsFunds() bool {
	return p == PayoutStatusPending || p == PayoutStatusProcessing
}

// ParsePayoutStatus converts raw input into a PayoutStatus.
func ParsePayoutStatus(value string) (PayoutStatus, error) {
	for _, candidate := range validPayoutStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout status %q", value)
}
