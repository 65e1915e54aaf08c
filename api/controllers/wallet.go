package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/omarkhaled/stayhub-backend/api/responses"
	"github.com/omarkhaled/stayhub-backend/internal/payouts"
	"github.com/omarkhaled/stayhub-backend/pkg/logger"
)

// WalletService exposes the wallet snapshot used by the payout screen.
type WalletService interface {
	WalletSummary(ctx context.Context, hostID uuid.UUID) (*payouts.WalletSummaryDTO, error)
}

// WalletSummary returns the host's balance, held payout total and the data
// needed to preview eligibility client-side.
func WalletSummary(svc WalletService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		hostID, err := authenticatedUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.WalletSummary(ctx, hostID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
