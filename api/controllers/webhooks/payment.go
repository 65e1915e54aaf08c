package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/omarkhaled/stayhub-backend/api/responses"
	"github.com/omarkhaled/stayhub-backend/internal/payments"
	pkgerrors "github.com/omarkhaled/stayhub-backend/pkg/errors"
	"github.com/omarkhaled/stayhub-backend/pkg/logger"
	"github.com/omarkhaled/stayhub-backend/pkg/paymob"
)

const paymentGuardScope = "paymob_txn"

// PaymentWebhookService applies verified transaction callbacks.
type PaymentWebhookService interface {
	ApplyTransaction(ctx context.Context, cb *paymob.TransactionCallback) (*payments.ProcessResult, error)
}

type webhookGuard interface {
	CheckAndMark(ctx context.Context, scope, eventID string) bool
	Release(ctx context.Context, scope, eventID string)
}

type transactionVerifier interface {
	TransactionSecret() string
}

// PaymentWebhook receives processor transaction callbacks. Signature failures
// are rejected with 401 and malformed payloads with 400; everything else is
// acknowledged with 200 so the processor stops retrying, with the disposition
// in the body.
func PaymentWebhook(svc PaymentWebhookService, client transactionVerifier, guard webhookGuard, logg *logger.Logger) http.HandlerFunc {
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

		var cb paymob.TransactionCallback
		if err := json.Unmarshal(payload, &cb); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid callback payload"))
			return
		}
		if cb.Obj == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "callback transaction object missing"))
			return
		}

		// The processor sends the signature as a query parameter; older
		// integrations put it in the body.
		signature := r.URL.Query().Get("hmac")
		if signature == "" {
			signature = cb.HMAC
		}
		if !paymob.VerifyTransaction(client.TransactionSecret(), cb.Obj, signature) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid callback signature"))
			return
		}

		eventID := eventIDFromTransaction(cb.Obj)
		if guard != nil && !guard.CheckAndMark(ctx, paymentGuardScope, eventID) {
			responses.WriteJSON(w, http.StatusOK, payments.ProcessResult{Outcome: payments.OutcomeAlreadyProcessed})
			return
		}

		result, err := svc.ApplyTransaction(ctx, &cb)
		if err != nil {
			if guard != nil {
				guard.Release(ctx, paymentGuardScope, eventID)
			}
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeValidation {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			// Internal trouble is acknowledged; the guard release above lets
			// the processor's retry reach the database gate again.
			if logg != nil {
				logg.Error(ctx, "payment webhook processing failed", err)
			}
			responses.WriteJSON(w, http.StatusOK, payments.ProcessResult{Outcome: payments.OutcomeError})
			return
		}

		responses.WriteJSON(w, http.StatusOK, result)
	}
}

// eventIDFromTransaction keys the replay guard. The processor reuses one
// transaction id across the intermediate pending notification and the
// terminal callback, so the outcome flags are part of the key; otherwise the
// pending delivery would mark the guard and swallow the terminal one.
func eventIDFromTransaction(txn *paymob.Transaction) string {
	if txn == nil || txn.ID == 0 {
		return ""
	}
	state := "failed"
	switch {
	case txn.Pending:
		state = "pending"
	case txn.Success:
		state = "success"
	}
	return "txn-" + strconv.FormatInt(txn.ID, 10) + "-" + state
}
