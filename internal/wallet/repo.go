package wallet

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omarkhaled/stayhub-backend/pkg/db/models"
)

// Repository manages the host wallet balance. Every decrement goes through a
// single conditional UPDATE whose filter includes the balance floor; there is
// no read-then-write path.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Reserve(ctx context.Context, hostID uuid.UUID, amountCents int64) (bool, error)
	Release(ctx context.Context, hostID uuid.UUID, amountCents int64) error
	FindHost(ctx context.Context, hostID uuid.UUID) (*models.User, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Reserve decrements the balance only when it still covers amountCents. A
// false return means the conditional update matched zero rows: either the
// balance is short or a concurrent reservation consumed it first.
func (r *repository) Reserve(ctx context.Context, hostID uuid.UUID, amountCents int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND wallet_balance_cents >= ?", hostID, amountCents).
		UpdateColumn("wallet_balance_cents", gorm.Expr("wallet_balance_cents - ?", amountCents))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Release credits amountCents back unconditionally. Used to compensate a
// reservation whose payout did not reach the host's bank.
func (r *repository) Release(ctx context.Context, hostID uuid.UUID, amountCents int64) error {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", hostID).
		UpdateColumn("wallet_balance_cents", gorm.Expr("wallet_balance_cents + ?", amountCents))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) FindHost(ctx context.Context, hostID uuid.UUID) (*models.User, error) {
	var host models.User
	if err := r.db.WithContext(ctx).First(&host, "id = ?", hostID).Error; err != nil {
		return nil, err
	}
	return &host, nil
}
