package payouts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omarkhaled/stayhub-backend/pkg/db/models"
	"github.com/omarkhaled/stayhub-backend/pkg/enums"
	"github.com/omarkhaled/stayhub-backend/pkg/pagination"
)

// Repository persists payouts and their event log. Lookup methods return
// (nil, nil) when no row matches.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payout *models.Payout) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payout, error)
	FindByIdempotencyKey(ctx context.Context, hostID uuid.UUID, key string) (*models.Payout, error)
	FindByProviderTxnID(ctx context.Context, providerTxnID string) (*models.Payout, error)
	FindByClientReference(ctx context.Context, clientReference string) (*models.Payout, error)
	Update(ctx context.Context, payout *models.Payout) error
	Delete(ctx context.Context, id uuid.UUID) error
	SumHeldForHost(ctx context.Context, hostID uuid.UUID) (int64, error)
	AppendEvent(ctx context.Context, event *models.PayoutEvent) error
	ListByHost(ctx context.Context, hostID uuid.UUID, status *enums.PayoutStatus, p pagination.Params) ([]models.Payout, int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payout repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payout *models.Payout) error {
	return r.db.WithContext(ctx).Create(payout).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	var payout models.Payout
	err := r.db.WithContext(ctx).
		Preload("Events", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&payout, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

func (r *repository) FindByIdempotencyKey(ctx context.Context, hostID uuid.UUID, key string) (*models.Payout, error) {
	return r.findOne(ctx, "host_id = ? AND idempotency_key = ?", hostID, key)
}

func (r *repository) FindByProviderTxnID(ctx context.Context, providerTxnID string) (*models.Payout, error) {
	if providerTxnID == "" {
		return nil, nil
	}
	return r.findOne(ctx, "provider_txn_id = ?", providerTxnID)
}

func (r *repository) FindByClientReference(ctx context.Context, clientReference string) (*models.Payout, error) {
	if clientReference == "" {
		return nil, nil
	}
	return r.findOne(ctx, "client_reference = ?", clientReference)
}

func (r *repository) findOne(ctx context.Context, query string, args ...any) (*models.Payout, error) {
	var payout models.Payout
	err := r.db.WithContext(ctx).Where(query, args...).First(&payout).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

func (r *repository) Update(ctx context.Context, payout *models.Payout) error {
	return r.db.WithContext(ctx).Save(payout).Error
}

// Delete removes a payout row. Only used before the provider has been
// contacted, when the wallet reservation lost the race.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Payout{}, "id = ?", id).Error
}

// SumHeldForHost totals payouts whose funds are still held against the
// wallet, meaning everything not yet in a terminal state.
func (r *repository) SumHeldForHost(ctx context.Context, hostID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Payout{}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Where("host_id = ? AND status IN ?", hostID, []enums.PayoutStatus{
			enums.PayoutStatusPending,
			enums.PayoutStatusProcessing,
		}).
		Scan(&total).Error
	return total, err
}

func (r *repository) AppendEvent(ctx context.Context, event *models.PayoutEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) ListByHost(ctx context.Context, hostID uuid.UUID, status *enums.PayoutStatus, p pagination.Params) ([]models.Payout, int64, error) {
	p = p.Normalize()

	query := r.db.WithContext(ctx).Model(&models.Payout{}).Where("host_id = ?", hostID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payouts []models.Payout
	err := query.
		Order("created_at DESC").
		Limit(p.Limit).
		Offset(p.Offset()).
		Find(&payouts).Error
	if err != nil {
		return nil, 0, err
	}
	return payouts, total, nil
}
