package payouts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/omarkhaled/stayhub-backend/internal/wallet"
	"github.com/omarkhaled/stayhub-backend/pkg/config"
	"github.com/omarkhaled/stayhub-backend/pkg/db"
	"github.com/omarkhaled/stayhub-backend/pkg/db/models"
	"github.com/omarkhaled/stayhub-backend/pkg/enums"
	apperrors "github.com/omarkhaled/stayhub-backend/pkg/errors"
	"github.com/omarkhaled/stayhub-backend/pkg/logger"
	"github.com/omarkhaled/stayhub-backend/pkg/metrics"
	"github.com/omarkhaled/stayhub-backend/pkg/pagination"
	"github.com/omarkhaled/stayhub-backend/pkg/paymob"
)

// payoutIssuer is the instrument class we disburse to.
const payoutIssuer = "bank"

// Disburser submits bank transfers to the payout provider.
type Disburser interface {
	Disburse(ctx context.Context, params paymob.DisburseParams) (*paymob.DisburseResult, error)
}

// TxRunner executes fn inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams carries the dependencies for NewService.
type ServiceParams struct {
	Payouts  Repository
	Wallet   wallet.Repository
	Provider Disburser
	Tx       TxRunner
	Config   config.PayoutsConfig
	Metrics  *metrics.ReconciliationMetrics
	Logger   *logger.Logger
}

// Service orchestrates payouts end to end: eligibility, the wallet hold, the
// provider call with compensation on failure, and provider-reported status
// updates afterwards.
type Service interface {
	CreatePayout(ctx context.Context, input CreatePayoutInput) (*PayoutDTO, bool, error)
	GetPayout(ctx context.Context, hostID, payoutID uuid.UUID) (*PayoutDTO, error)
	ListPayouts(ctx context.Context, hostID uuid.UUID, status *enums.PayoutStatus, p pagination.Params) ([]PayoutDTO, pagination.Meta, error)
	WalletSummary(ctx context.Context, hostID uuid.UUID) (*WalletSummaryDTO, error)
	ApplyStatusUpdate(ctx context.Context, update StatusUpdate) (*ApplyResult, error)
}

type service struct {
	payouts  Repository
	wallet   wallet.Repository
	provider Disburser
	tx       TxRunner
	cfg      config.PayoutsConfig
	metrics  *metrics.ReconciliationMetrics
	logger   *logger.Logger
}

// NewService validates the wiring and returns a payout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Payouts == nil {
		return nil, fmt.Errorf("payout repository required")
	}
	if params.Wallet == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if params.Provider == nil {
		return nil, fmt.Errorf("payout provider required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		payouts:  params.Payouts,
		wallet:   params.Wallet,
		provider: params.Provider,
		tx:       params.Tx,
		cfg:      params.Config,
		metrics:  params.Metrics,
		logger:   params.Logger,
	}, nil
}

// CreatePayout runs the withdrawal flow. The returned bool is true when this
// call created the payout and false on an idempotent replay.
//
// Ordering matters: the payout row exists before the wallet hold so a unique
// key violation can settle replays, and the hold exists before the provider is
// contacted so money never leaves the platform without a matching debit. Any
// failure after the hold but before provider success releases it.
func (s *service) CreatePayout(ctx context.Context, input CreatePayoutInput) (*PayoutDTO, bool, error) {
	if input.IdempotencyKey == "" {
		return nil, false, apperrors.New(apperrors.CodeValidation, "idempotency key is required")
	}
	if input.AmountCents <= 0 {
		return nil, false, apperrors.New(apperrors.CodeValidation, "amount must be positive")
	}

	ctx = s.logger.WithHostID(ctx, input.HostID.String())

	existing, err := s.payouts.FindByIdempotencyKey(ctx, input.HostID, input.IdempotencyKey)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		s.logger.Info(ctx, "payout.create.replayed")
		return toPayoutDTO(existing, false), false, nil
	}

	host, err := s.wallet.FindHost(ctx, input.HostID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, apperrors.New(apperrors.CodeNotFound, "host not found")
		}
		return nil, false, err
	}

	held, err := s.payouts.SumHeldForHost(ctx, input.HostID)
	if err != nil {
		return nil, false, err
	}

	eligibility := CheckEligibility(EligibilityInput{
		Host:               host,
		RequestedCents:     input.AmountCents,
		PendingPayoutCents: held,
		MinAmountCents:     s.cfg.MinAmountCents,
	})
	if !eligibility.Eligible {
		s.observePayout("rejected")
		return nil, false, apperrors.New(apperrors.CodeNotEligible, "payout request is not eligible").
			WithDetails(eligibility.Reason)
	}

	payout := &models.Payout{
		ID:              uuid.New(),
		HostID:          input.HostID,
		AmountCents:     input.AmountCents,
		Currency:        s.cfg.Currency,
		Status:          enums.PayoutStatusPending,
		IdempotencyKey:  input.IdempotencyKey,
		ClientReference: fmt.Sprintf("po-%s", uuid.NewString()),
	}
	if err := s.payouts.Create(ctx, payout); err != nil {
		if db.IsUniqueViolation(err, "") {
			// A concurrent request with the same key won the insert.
			winner, findErr := s.payouts.FindByIdempotencyKey(ctx, input.HostID, input.IdempotencyKey)
			if findErr == nil && winner != nil {
				s.logger.Info(ctx, "payout.create.replayed")
				return toPayoutDTO(winner, false), false, nil
			}
		}
		return nil, false, err
	}
	ctx = s.logger.WithPayoutID(ctx, payout.ID.String())
	s.appendEvent(ctx, payout.ID, enums.PayoutStatusPending, enums.PayoutEventSourceOrchestrator, "payout requested")

	reserved, err := s.wallet.Reserve(ctx, input.HostID, input.AmountCents)
	if err != nil {
		// Nothing was held; drop the row so the key can be retried.
		_ = s.payouts.Delete(ctx, payout.ID)
		return nil, false, err
	}
	if !reserved {
		_ = s.payouts.Delete(ctx, payout.ID)
		s.observePayout("rejected")
		return nil, false, apperrors.New(apperrors.CodeConcurrency, "wallet balance no longer covers the requested amount")
	}

	payout.Status = enums.PayoutStatusProcessing
	if err := s.payouts.Update(ctx, payout); err != nil {
		return nil, false, s.compensate(ctx, payout, err, "marking payout processing")
	}
	s.appendEvent(ctx, payout.ID, enums.PayoutStatusProcessing, enums.PayoutEventSourceOrchestrator, "submitting transfer to provider")

	result, err := s.provider.Disburse(ctx, paymob.DisburseParams{
		Issuer:          payoutIssuer,
		AmountCents:     payout.AmountCents,
		BankCardNumber:  deref(host.BankAccountNumber),
		BankCode:        deref(host.BankCode),
		FullName:        deref(host.AccountHolderName),
		NationalID:      deref(host.NationalID),
		ClientReference: payout.ClientReference,
	})
	if err != nil {
		return nil, false, s.compensate(ctx, payout, err, "provider transfer request failed")
	}

	if err := s.applyProviderResult(ctx, payout, result); err != nil {
		return nil, false, err
	}

	s.observePayout(string(payout.Status))
	s.logger.Info(ctx, fmt.Sprintf("payout.create.submitted status=%s", payout.Status))
	return toPayoutDTO(payout, false), true, nil
}

// compensate releases the wallet hold, records the failure on the payout row
// and hands back the original error. The payout record is kept: the provider
// may already know the client reference.
func (s *service) compensate(ctx context.Context, payout *models.Payout, cause error, description string) error {
	var compErr error
	if releaseErr := s.wallet.Release(ctx, payout.HostID, payout.AmountCents); releaseErr != nil {
		compErr = multierr.Append(compErr, fmt.Errorf("releasing wallet hold: %w", releaseErr))
	} else if s.metrics != nil {
		s.metrics.IncCompensation()
	}

	payout.Status = enums.PayoutStatusFailed
	payout.ProviderDescription = strPtr(truncateErr(cause))
	if err := s.payouts.Update(ctx, payout); err != nil {
		compErr = multierr.Append(compErr, fmt.Errorf("recording payout failure: %w", err))
	}
	s.appendEvent(ctx, payout.ID, enums.PayoutStatusFailed, enums.PayoutEventSourceOrchestrator, description)

	if compErr != nil {
		// Funds may be stranded in held state; this needs an operator.
		s.logger.Error(ctx, "payout.compensation.incomplete", compErr)
	}

	s.observePayout("failed")
	return cause
}

// applyProviderResult folds the provider's synchronous answer into the payout
// and persists it. A synchronous failure releases the hold in the same
// transaction that records the failed status, so neither outlives the other;
// a success means the money has left the platform and the hold is consumed.
func (s *service) applyProviderResult(ctx context.Context, payout *models.Payout, result *paymob.DisburseResult) error {
	payout.ProviderTxnID = strPtr(result.TransactionID)
	payout.ProviderStatus = strPtr(result.Status)
	payout.ProviderDescription = strPtr(result.StatusDescription)
	payout.ProviderCode = strPtr(result.StatusCode)

	target := MapProviderStatus(result.Status)
	switch target {
	case enums.PayoutStatusSuccess, enums.PayoutStatusFailed:
		payout.Status = target
	default:
		payout.Status = enums.PayoutStatusProcessing
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.payouts.WithTx(tx).Update(ctx, payout); err != nil {
			return fmt.Errorf("updating payout: %w", err)
		}
		if target == enums.PayoutStatusFailed {
			if err := s.wallet.WithTx(tx).Release(ctx, payout.HostID, payout.AmountCents); err != nil {
				return fmt.Errorf("releasing wallet hold: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if target == enums.PayoutStatusFailed && s.metrics != nil {
		s.metrics.IncCompensation()
	}
	s.appendEvent(ctx, payout.ID, payout.Status, enums.PayoutEventSourceProviderSync, result.StatusDescription)
	return nil
}

func (s *service) GetPayout(ctx context.Context, hostID, payoutID uuid.UUID) (*PayoutDTO, error) {
	payout, err := s.payouts.FindByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if payout == nil || payout.HostID != hostID {
		return nil, apperrors.New(apperrors.CodeNotFound, "payout not found")
	}
	return toPayoutDTO(payout, true), nil
}

func (s *service) ListPayouts(ctx context.Context, hostID uuid.UUID, status *enums.PayoutStatus, p pagination.Params) ([]PayoutDTO, pagination.Meta, error) {
	p = p.Normalize()
	payouts, total, err := s.payouts.ListByHost(ctx, hostID, status, p)
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	dtos := make([]PayoutDTO, 0, len(payouts))
	for i := range payouts {
		dtos = append(dtos, *toPayoutDTO(&payouts[i], false))
	}
	return dtos, pagination.Meta{Page: p.Page, Limit: p.Limit, Total: total}, nil
}

func (s *service) WalletSummary(ctx context.Context, hostID uuid.UUID) (*WalletSummaryDTO, error) {
	host, err := s.wallet.FindHost(ctx, hostID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "host not found")
		}
		return nil, err
	}

	held, err := s.payouts.SumHeldForHost(ctx, hostID)
	if err != nil {
		return nil, err
	}

	return &WalletSummaryDTO{
		BalanceCents:        host.WalletBalanceCents,
		HeldPayoutCents:     held,
		MinPayoutCents:      s.cfg.MinAmountCents,
		BankDetailsComplete: host.HasBankDetails(),
		NationalIDPresent:   host.HasNationalID(),
	}, nil
}

func (s *service) appendEvent(ctx context.Context, payoutID uuid.UUID, status enums.PayoutStatus, source enums.PayoutEventSource, description string) {
	event := &models.PayoutEvent{
		ID:          uuid.New(),
		PayoutID:    payoutID,
		Status:      status,
		Source:      source,
		Description: strPtr(description),
	}
	if err := s.payouts.AppendEvent(ctx, event); err != nil {
		// The audit trail is best effort; the payout row holds the truth.
		s.logger.Error(ctx, "payout.event.append_failed", err)
	}
}

func (s *service) observePayout(result string) {
	if s.metrics != nil {
		s.metrics.ObservePayout(result)
	}
}

func strPtr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func truncateErr(err error) string {
	msg := err.Error()
	if len(msg) > 255 {
		msg = msg[:255]
	}
	return msg
}
