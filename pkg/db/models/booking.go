package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/omarkhaled/stayhub-backend/pkg/enums"
)

// Booking represents a reservation. After payment initiation it is only
// transitioned by the payment webhook processor; status=confirmed implies
// payment_status=paid.
type Booking struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ListingID uuid.UUID `gorm:"column:listing_id;type:uuid;not null;index"`
	GuestID   uuid.UUID `gorm:"column:guest_id;type:uuid;not null;index"`
	HostID    uuid.UUID `gorm:"column:host_id;type:uuid;not null;index"`

	CheckIn  time.Time `gorm:"column:check_in;not null"`
	CheckOut time.Time `gorm:"column:check_out;not null"`

	Status        enums.BookingStatus        `gorm:"column:status;not null;default:'pending_payment'"`
	PaymentStatus enums.BookingPaymentStatus `gorm:"column:payment_status;not null;default:'pending'"`
	PaymentID     *uuid.UUID                 `gorm:"column:payment_id;type:uuid"`

	TotalCents int64  `gorm:"column:total_cents;not null"`
	Currency   string `gorm:"column:currency;not null;default:'EGP'"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
