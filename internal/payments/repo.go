package payments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omarkhaled/stayhub-backend/pkg/db/models"
	"github.com/omarkhaled/stayhub-backend/pkg/enums"
)

// PaymentRepository persists payment attempts. Lookup methods return
// (nil, nil) when no row matches so the caller can fall through to the next
// strategy without branching on error types.
type PaymentRepository interface {
	WithTx(tx *gorm.DB) PaymentRepository
	Create(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindPendingByMerchantRef(ctx context.Context, merchantRef string) (*models.Payment, error)
	FindPendingByProviderOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	FindByProviderOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	Update(ctx context.Context, payment *models.Payment) error
}

// BookingRepository reads and transitions bookings on behalf of the payment
// processor.
type BookingRepository interface {
	WithTx(tx *gorm.DB) BookingRepository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	Update(ctx context.Context, booking *models.Booking) error
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository returns a PaymentRepository bound to db.
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) WithTx(tx *gorm.DB) PaymentRepository {
	if tx == nil {
		return r
	}
	return &paymentRepository{db: tx}
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindPendingByMerchantRef(ctx context.Context, merchantRef string) (*models.Payment, error) {
	return r.findOne(ctx, "merchant_ref = ? AND status = ?", merchantRef, enums.PaymentStatusPending)
}

func (r *paymentRepository) FindPendingByProviderOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	return r.findOne(ctx, "provider_order_id = ? AND status = ?", orderID, enums.PaymentStatusPending)
}

func (r *paymentRepository) FindByProviderOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	return r.findOne(ctx, "provider_order_id = ?", orderID)
}

func (r *paymentRepository) findOne(ctx context.Context, query string, args ...any) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where(query, args...).
		Order("created_at DESC").
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

type bookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository returns a BookingRepository bound to db.
func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) WithTx(tx *gorm.DB) BookingRepository {
	if tx == nil {
		return r
	}
	return &bookingRepository{db: tx}
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) Update(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Save(booking).Error
}
