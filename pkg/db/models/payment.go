package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/omarkhaled/stayhub-backend/pkg/enums"
)

// Payment records one payment attempt against a booking. A booking may
// accumulate several attempts across checkout retries, but at most one may
// reach paid. Paid and refunded payments are immutable to webhook writes.
type Payment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID uuid.UUID `gorm:"column:booking_id;type:uuid;not null;index"`

	// MerchantRef is the merchant_order_id we hand to the processor at
	// checkout; ProviderOrderID and ProviderTxnID come back from it.
	MerchantRef     string  `gorm:"column:merchant_ref;not null;uniqueIndex"`
	ProviderOrderID *string `gorm:"column:provider_order_id;index"`
	ProviderTxnID   *string `gorm:"column:provider_txn_id;index"`

	Status      enums.PaymentStatus `gorm:"column:status;not null;default:'pending'"`
	AmountCents int64               `gorm:"column:amount_cents;not null"`
	Currency    string              `gorm:"column:currency;not null;default:'EGP'"`

	CardType     *string `gorm:"column:card_type"`
	CardSubType  *string `gorm:"column:card_sub_type"`
	CardLast4    *string `gorm:"column:card_last4"`
	ErrorMessage *string `gorm:"column:error_message"`

	PaidAt    *time.Time `gorm:"column:paid_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
