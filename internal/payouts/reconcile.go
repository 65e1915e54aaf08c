package payouts

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/omarkhaled/stayhub-backend/pkg/db/models"
	"github.com/omarkhaled/stayhub-backend/pkg/enums"
	apperrors "github.com/omarkhaled/stayhub-backend/pkg/errors"
)

// ApplyStatusUpdate folds a provider-reported disbursement state into the
// matching payout. It is safe to call any number of times for the same
// update: terminal payouts are never rewritten, so the wallet release that
// accompanies a transition into failed happens exactly once.
func (s *service) ApplyStatusUpdate(ctx context.Context, update StatusUpdate) (*ApplyResult, error) {
	if update.ProviderTxnID == "" && update.ClientReference == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "status update carries no payout reference")
	}

	ctx = s.logger.WithFields(ctx, map[string]any{
		"provider_txn_id":  update.ProviderTxnID,
		"client_reference": update.ClientReference,
		"provider_status":  update.ProviderStatus,
	})

	var result *ApplyResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.payouts.WithTx(tx)
		walletRepo := s.wallet.WithTx(tx)

		payout, err := repo.FindByProviderTxnID(ctx, update.ProviderTxnID)
		if err != nil {
			return err
		}
		if payout == nil {
			payout, err = repo.FindByClientReference(ctx, update.ClientReference)
			if err != nil {
				return err
			}
		}
		if payout == nil {
			s.logger.Info(ctx, "payout.status_update.no_match")
			result = &ApplyResult{Outcome: ResultIgnored}
			return nil
		}

		ctx = s.logger.WithPayoutID(ctx, payout.ID.String())

		if payout.Status.IsTerminal() {
			s.logger.Info(ctx, "payout.status_update.duplicate")
			result = &ApplyResult{
				Outcome:      ResultAlreadyProcessed,
				PayoutID:     &payout.ID,
				PayoutStatus: payout.Status,
			}
			return nil
		}

		target := MapProviderStatus(update.ProviderStatus)

		payout.ProviderStatus = strPtr(update.ProviderStatus)
		payout.ProviderDescription = strPtr(update.Description)
		payout.ProviderCode = strPtr(update.Code)
		if payout.ProviderTxnID == nil && update.ProviderTxnID != "" {
			payout.ProviderTxnID = strPtr(update.ProviderTxnID)
		}

		if target.IsTerminal() {
			payout.Status = target
		}
		if err := repo.Update(ctx, payout); err != nil {
			return fmt.Errorf("updating payout: %w", err)
		}

		event := &models.PayoutEvent{
			PayoutID:    payout.ID,
			Status:      payout.Status,
			Source:      update.Source,
			Description: strPtr(update.Description),
		}
		if err := repo.AppendEvent(ctx, event); err != nil {
			return fmt.Errorf("appending payout event: %w", err)
		}

		if target == enums.PayoutStatusFailed {
			if err := walletRepo.Release(ctx, payout.HostID, payout.AmountCents); err != nil {
				return fmt.Errorf("releasing wallet hold: %w", err)
			}
			if s.metrics != nil {
				s.metrics.IncCompensation()
			}
			s.logger.Info(ctx, "payout.status_update.hold_released")
		}

		result = &ApplyResult{
			Outcome:      ResultProcessed,
			PayoutID:     &payout.ID,
			PayoutStatus: payout.Status,
		}
		return nil
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.ObserveWebhook("disbursement", "error")
		}
		return nil, err
	}

	if s.metrics != nil && update.Source == enums.PayoutEventSourceWebhook {
		s.metrics.ObserveWebhook("disbursement", result.Outcome)
	}
	if result.Outcome == ResultProcessed {
		s.logger.Info(ctx, fmt.Sprintf("payout.status_update.applied status=%s", result.PayoutStatus))
	}
	return result, nil
}
