package payments

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/omarkhaled/stayhub-backend/pkg/enums"
	"github.com/omarkhaled/stayhub-backend/pkg/paymob"
)

// WebhookResult is the normalized view of a processor transaction callback.
// Everything downstream of signature verification works off this struct, not
// the raw payload.
type WebhookResult struct {
	Success       bool
	Pending       bool
	Refunded      bool
	Voided        bool
	TransactionID string
	OrderID       string
	MerchantRef   string
	AmountCents   int64
	Currency      string
	PaymentMethod string
	CardSubType   string
	CardLast4     string
	ErrorMessage  string
}

// NormalizeCallback flattens the processor payload into a WebhookResult.
func NormalizeCallback(cb *paymob.TransactionCallback) (*WebhookResult, error) {
	if cb == nil || cb.Obj == nil {
		return nil, fmt.Errorf("callback transaction object is required")
	}

	txn := cb.Obj
	res := &WebhookResult{
		Success:       txn.Success && !txn.Pending && !txn.ErrorOccured,
		Pending:       txn.Pending,
		Refunded:      txn.IsRefunded,
		Voided:        txn.IsVoided,
		TransactionID: strconv.FormatInt(txn.ID, 10),
		OrderID:       strconv.FormatInt(txn.Order.ID, 10),
		MerchantRef:   txn.Order.MerchantOrderID,
		AmountCents:   txn.AmountCents,
		Currency:      txn.Currency,
		PaymentMethod: txn.SourceData.Type,
		CardSubType:   txn.SourceData.SubType,
		CardLast4:     txn.SourceData.Pan,
		ErrorMessage:  txn.Data.Message,
	}
	return res, nil
}

// ProcessOutcome labels how the webhook processor disposed of an event. All
// outcomes are acknowledged with 2xx so the processor stops retrying.
type ProcessOutcome string

const (
	OutcomeProcessed        ProcessOutcome = "processed"
	OutcomeAlreadyProcessed ProcessOutcome = "already_processed"
	OutcomeIgnored          ProcessOutcome = "ignored"
	OutcomeError            ProcessOutcome = "error"
)

// ProcessResult is the webhook processor's answer for one event.
type ProcessResult struct {
	Outcome       ProcessOutcome      `json:"status"`
	PaymentID     *uuid.UUID          `json:"payment_id,omitempty"`
	PaymentStatus enums.PaymentStatus `json:"payment_status,omitempty"`
}

// CreateCheckoutInput starts a new payment attempt for a booking.
type CreateCheckoutInput struct {
	BookingID uuid.UUID
	GuestID   uuid.UUID
}

// CheckoutDTO is returned to the client so it can hand the reference to the
// processor's payment page.
type CheckoutDTO struct {
	PaymentID   uuid.UUID `json:"payment_id"`
	MerchantRef string    `json:"merchant_ref"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
}
