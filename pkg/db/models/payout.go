package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/omarkhaled/stayhub-backend/pkg/enums"
)

// Payout represents one withdrawal request from a host's wallet to their bank
// account. Records are never deleted once the provider has been contacted;
// every status transition is mirrored into the append-only event log.
type Payout struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	HostID uuid.UUID `gorm:"column:host_id;type:uuid;not null;index;uniqueIndex:idx_payouts_host_idem_key,priority:1"`

	AmountCents int64  `gorm:"column:amount_cents;not null"`
	Currency    string `gorm:"column:currency;not null;default:'EGP'"`

	Status enums.PayoutStatus `gorm:"column:status;not null;default:'pending';index"`

	IdempotencyKey string `gorm:"column:idempotency_key;not null;uniqueIndex:idx_payouts_host_idem_key,priority:2"`

	// ClientReference is the reference we mint and send to the provider;
	// ProviderTxnID is the provider's id, reported back synchronously or via
	// the disbursement webhook.
	ClientReference     string  `gorm:"column:client_reference;not null;uniqueIndex"`
	ProviderTxnID       *string `gorm:"column:provider_txn_id;index"`
	ProviderStatus      *string `gorm:"column:provider_status"`
	ProviderDescription *string `gorm:"column:provider_description"`
	ProviderCode        *string `gorm:"column:provider_code"`

	Events []PayoutEvent `gorm:"foreignKey:PayoutID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// PayoutEvent is one entry in a payout's append-only audit log.
type PayoutEvent struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	PayoutID uuid.UUID `gorm:"column:payout_id;type:uuid;not null;index"`

	Status      enums.PayoutStatus      `gorm:"column:status;not null"`
	Source      enums.PayoutEventSource `gorm:"column:source;not null"`
	Description *string                 `gorm:"column:description"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
