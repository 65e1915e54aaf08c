package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/omarkhaled/stayhub-backend/api/responses"
	"github.com/omarkhaled/stayhub-backend/internal/payouts"
	"github.com/omarkhaled/stayhub-backend/pkg/enums"
	pkgerrors "github.com/omarkhaled/stayhub-backend/pkg/errors"
	"github.com/omarkhaled/stayhub-backend/pkg/logger"
	"github.com/omarkhaled/stayhub-backend/pkg/paymob"
)

const (
	disbursementGuardScope      = "paymob_disb"
	disbursementSignatureHeader = "X-Paymob-Signature"
)

// DisbursementWebhookService folds provider disbursement updates into payouts.
type DisbursementWebhookService interface {
	ApplyStatusUpdate(ctx context.Context, update payouts.StatusUpdate) (*payouts.ApplyResult, error)
}

type disbursementVerifier interface {
	PayoutSecret() string
}

// DisbursementWebhook receives payout state changes from the provider. The
// signature covers the raw body and travels in a dedicated header.
func DisbursementWebhook(svc DisbursementWebhookService, client disbursementVerifier, guard webhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil || client == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		signature := r.Header.Get(disbursementSignatureHeader)
		if !paymob.VerifyDisbursement(client.PayoutSecret(), payload, signature) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid callback signature"))
			return
		}

		var cb paymob.DisbursementCallback
		if err := json.Unmarshal(payload, &cb); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid callback payload"))
			return
		}
		if cb.TransactionID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "callback transaction id missing"))
			return
		}

		eventID := "disb-" + cb.TransactionID + "-" + cb.DisbursementStatus
		if guard != nil && !guard.CheckAndMark(ctx, disbursementGuardScope, eventID) {
			responses.WriteJSON(w, http.StatusOK, payouts.ApplyResult{Outcome: payouts.ResultAlreadyProcessed})
			return
		}

		result, err := svc.ApplyStatusUpdate(ctx, payouts.StatusUpdate{
			ProviderTxnID:  cb.TransactionID,
			ProviderStatus: cb.DisbursementStatus,
			Description:    cb.StatusDescription,
			Code:           cb.StatusCode,
			Source:         enums.PayoutEventSourceWebhook,
		})
		if err != nil {
			if guard != nil {
				guard.Release(ctx, disbursementGuardScope, eventID)
			}
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeValidation {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if logg != nil {
				logg.Error(ctx, "disbursement webhook processing failed", err)
			}
			responses.WriteJSON(w, http.StatusOK, payouts.ApplyResult{Outcome: "error"})
			return
		}

		responses.WriteJSON(w, http.StatusOK, result)
	}
}
