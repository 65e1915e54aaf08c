package payouts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/omarkhaled/stayhub-backend/pkg/db/models"
)

func eligibleHost(balanceCents int64) *models.User {
	bankCode := "CIB"
	account := "1234567890"
	holder := "Omar Khaled"
	nationalID := "29001011234567"
	return &models.User{
		WalletBalanceCents: balanceCents,
		BankCode:           &bankCode,
		BankAccountNumber:  &account,
		AccountHolderName:  &holder,
		NationalID:         &nationalID,
	}
}

func TestCheckEligibility(t *testing.T) {
	empty := ""

	tests := []struct {
		name    string
		input   EligibilityInput
		want    bool
		reason  string
	}{
		{
			name: "fully eligible",
			input: EligibilityInput{
				Host:           eligibleHost(10_00),
				RequestedCents: 5_00,
				MinAmountCents: 1_00,
			},
			want: true,
		},
		{
			name: "exactly the minimum is allowed",
			input: EligibilityInput{
				Host:           eligibleHost(10_00),
				RequestedCents: 1_00,
				MinAmountCents: 1_00,
			},
			want: true,
		},
		{
			name: "one cent below the minimum",
			input: EligibilityInput{
				Host:           eligibleHost(10_00),
				RequestedCents: 99,
				MinAmountCents: 1_00,
			},
			want:   false,
			reason: ReasonBelowMinimum,
		},
		{
			name: "requesting the full balance is allowed",
			input: EligibilityInput{
				Host:           eligibleHost(10_00),
				RequestedCents: 10_00,
				MinAmountCents: 1_00,
			},
			want: true,
		},
		{
			name: "held payouts count against the balance",
			input: EligibilityInput{
				Host:               eligibleHost(10_00),
				RequestedCents:     8_00,
				PendingPayoutCents: 3_00,
				MinAmountCents:     1_00,
			},
			want:   false,
			reason: ReasonInsufficientBalance,
		},
		{
			name: "missing bank details",
			input: EligibilityInput{
				Host: func() *models.User {
					h := eligibleHost(10_00)
					h.BankAccountNumber = &empty
					return h
				}(),
				RequestedCents: 5_00,
				MinAmountCents: 1_00,
			},
			want:   false,
			reason: ReasonBankDetailsMissing,
		},
		{
			name: "missing national id",
			input: EligibilityInput{
				Host: func() *models.User {
					h := eligibleHost(10_00)
					h.NationalID = nil
					return h
				}(),
				RequestedCents: 5_00,
				MinAmountCents: 1_00,
			},
			want:   false,
			reason: ReasonNationalIDMissing,
		},
		{
			name: "first failing rule wins when several apply",
			input: EligibilityInput{
				Host:           &models.User{WalletBalanceCents: 0},
				RequestedCents: 50,
				MinAmountCents: 1_00,
			},
			want:   false,
			reason: ReasonBelowMinimum,
		},
		{
			name: "incomplete profile outranks balance",
			input: EligibilityInput{
				Host:           &models.User{WalletBalanceCents: 0},
				RequestedCents: 5_00,
				MinAmountCents: 1_00,
			},
			want:   false,
			reason: ReasonBankDetailsMissing,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CheckEligibility(tc.input)
			assert.Equal(t, tc.want, got.Eligible, "reason %q", got.Reason)
			assert.Equal(t, tc.reason, got.Reason)
		})
	}
}
