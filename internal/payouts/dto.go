package payouts

import (
	"time"

	"github.com/google/uuid"

	"github.com/omarkhaled/stayhub-backend/pkg/db/models"
	"github.com/omarkhaled/stayhub-backend/pkg/enums"
)

// CreatePayoutInput is a host's withdrawal request. The idempotency key is
// client-chosen and scoped to the host.
type CreatePayoutInput struct {
	HostID         uuid.UUID
	AmountCents    int64
	IdempotencyKey string
}

// PayoutDTO is the API shape of a payout.
type PayoutDTO struct {
	ID              uuid.UUID          `json:"id"`
	AmountCents     int64              `json:"amount_cents"`
	Currency        string             `json:"currency"`
	Status          enums.PayoutStatus `json:"status"`
	ClientReference string             `json:"client_reference"`
	ProviderTxnID   *string            `json:"provider_txn_id,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	Events          []PayoutEventDTO   `json:"events,omitempty"`
}

// PayoutEventDTO is one audit log entry of a payout.
type PayoutEventDTO struct {
	Status      enums.PayoutStatus      `json:"status"`
	Source      enums.PayoutEventSource `json:"source"`
	Description *string                 `json:"description,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
}

// WalletSummaryDTO is the wallet snapshot plus the data a client needs to
// preview payout eligibility before submitting.
type WalletSummaryDTO struct {
	BalanceCents        int64 `json:"balance_cents"`
	HeldPayoutCents     int64 `json:"held_payout_cents"`
	MinPayoutCents      int64 `json:"min_payout_cents"`
	BankDetailsComplete bool  `json:"bank_details_complete"`
	NationalIDPresent   bool  `json:"national_id_present"`
}

// StatusUpdate is a provider-reported disbursement state change, from either
// the webhook or a reconciliation sync.
type StatusUpdate struct {
	ProviderTxnID   string
	ClientReference string
	ProviderStatus  string
	Description     string
	Code            string
	Source          enums.PayoutEventSource
}

// Dispositions for ApplyStatusUpdate; the webhook endpoint acknowledges all
// of them with 2xx.
const (
	ResultProcessed        = "processed"
	ResultAlreadyProcessed = "already_processed"
	ResultIgnored          = "ignored"
)

// ApplyResult reports how a status update was disposed of.
type ApplyResult struct {
	Outcome      string             `json:"status"`
	PayoutID     *uuid.UUID         `json:"payout_id,omitempty"`
	PayoutStatus enums.PayoutStatus `json:"payout_status,omitempty"`
}

func toPayoutDTO(payout *models.Payout, withEvents bool) *PayoutDTO {
	dto := &PayoutDTO{
		ID:              payout.ID,
		AmountCents:     payout.AmountCents,
		Currency:        payout.Currency,
		Status:          payout.Status,
		ClientReference: payout.ClientReference,
		ProviderTxnID:   payout.ProviderTxnID,
		CreatedAt:       payout.CreatedAt,
		UpdatedAt:       payout.UpdatedAt,
	}
	if withEvents {
		for _, event := range payout.Events {
			dto.Events = append(dto.Events, PayoutEventDTO{
				Status:      event.Status,
				Source:      event.Source,
				Description: event.Description,
				CreatedAt:   event.CreatedAt,
			})
		}
	}
	return dto
}
