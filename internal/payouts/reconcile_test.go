package payouts

import (
	"context"
	"testing"

	"github.com/omarkhaled/stayhub-backend/pkg/db/models"
	"github.com/omarkhaled/stayhub-backend/pkg/enums"
	"github.com/omarkhaled/stayhub-backend/pkg/paymob"
)

func TestStatusUpdateFailureReleasesHoldOnce(t *testing.T) {
	conn := newTestDB(t)
	host := seedHost(t, conn, 50_00)
	provider := &fakeDisburser{result: &paymob.DisburseResult{
		TransactionID: "d-200",
		Status:        "pending",
	}}
	svc := newTestService(t, conn, provider)

	// Hold 20.00 of the 50.00 balance.
	dto, _, err := svc.CreatePayout(context.Background(), CreatePayoutInput{
		HostID:         host.ID,
		AmountCents:    20_00,
		IdempotencyKey: "withdraw-rec-1",
	})
	if err != nil {
		t.Fatalf("create payout: %v", err)
	}
	if got := hostBalance(t, conn, host.ID); got != 30_00 {
		t.Fatalf("balance after hold = %d", got)
	}

	update := StatusUpdate{
		ProviderTxnID:  "d-200",
		ProviderStatus: "failed",
		Description:    "beneficiary bank rejected the transfer",
		Code:           "T05",
		Source:         enums.PayoutEventSourceWebhook,
	}

	result, err := svc.ApplyStatusUpdate(context.Background(), update)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.Outcome != ResultProcessed {
		t.Fatalf("outcome = %s", result.Outcome)
	}
	if result.PayoutStatus != enums.PayoutStatusFailed {
		t.Fatalf("payout status = %s", result.PayoutStatus)
	}
	if got := hostBalance(t, conn, host.ID); got != 50_00 {
		t.Fatalf("balance after failure = %d, want fully restored", got)
	}

	// Replaying the same terminal update must not credit again.
	replay, err := svc.ApplyStatusUpdate(context.Background(), update)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if replay.Outcome != ResultAlreadyProcessed {
		t.Fatalf("replay outcome = %s", replay.Outcome)
	}
	if got := hostBalance(t, conn, host.ID); got != 50_00 {
		t.Fatalf("balance after replay = %d, double credit detected", got)
	}

	var failedEvents int64
	if err := conn.Model(&models.PayoutEvent{}).
		Where("payout_id = ? AND status = ?", dto.ID, enums.PayoutStatusFailed).
		Count(&failedEvents).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if failedEvents != 1 {
		t.Fatalf("failed events = %d, want exactly 1", failedEvents)
	}
}

func TestStatusUpdateSuccessConsumesHold(t *testing.T) {
	conn := newTestDB(t)
	host := seedHost(t, conn, 50_00)
	provider := &fakeDisburser{result: &paymob.DisburseResult{
		TransactionID: "d-201",
		Status:        "pending",
	}}
	svc := newTestService(t, conn, provider)

	if _, _, err := svc.CreatePayout(context.Background(), CreatePayoutInput{
		HostID:         host.ID,
		AmountCents:    20_00,
		IdempotencyKey: "withdraw-rec-2",
	}); err != nil {
		t.Fatalf("create payout: %v", err)
	}

	result, err := svc.ApplyStatusUpdate(context.Background(), StatusUpdate{
		ProviderTxnID:  "d-201",
		ProviderStatus: "successful",
		Source:         enums.PayoutEventSourceWebhook,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.PayoutStatus != enums.PayoutStatusSuccess {
		t.Fatalf("status = %s", result.PayoutStatus)
	}
	// Money left the platform; the debit stands.
	if got := hostBalance(t, conn, host.ID); got != 30_00 {
		t.Fatalf("balance = %d, want %d", got, 30_00)
	}
}

func TestStatusUpdateNonTerminalKeepsProcessing(t *testing.T) {
	conn := newTestDB(t)
	host := seedHost(t, conn, 50_00)
	provider := &fakeDisburser{result: &paymob.DisburseResult{
		TransactionID: "d-202",
		Status:        "pending",
	}}
	svc := newTestService(t, conn, provider)

	if _, _, err := svc.CreatePayout(context.Background(), CreatePayoutInput{
		HostID:         host.ID,
		AmountCents:    20_00,
		IdempotencyKey: "withdraw-rec-3",
	}); err != nil {
		t.Fatalf("create payout: %v", err)
	}

	result, err := svc.ApplyStatusUpdate(context.Background(), StatusUpdate{
		ProviderTxnID:  "d-202",
		ProviderStatus: "some-new-intermediate-state",
		Source:         enums.PayoutEventSourceWebhook,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.Outcome != ResultProcessed {
		t.Fatalf("outcome = %s", result.Outcome)
	}
	if result.PayoutStatus != enums.PayoutStatusProcessing {
		t.Fatalf("unknown provider states must not settle the payout, got %s", result.PayoutStatus)
	}
	if got := hostBalance(t, conn, host.ID); got != 30_00 {
		t.Fatalf("balance = %d, hold must stay", got)
	}
}

func TestStatusUpdateUnmatchedIsIgnored(t *testing.T) {
	conn := newTestDB(t)
	seedHost(t, conn, 50_00)
	svc := newTestService(t, conn, &fakeDisburser{})

	result, err := svc.ApplyStatusUpdate(context.Background(), StatusUpdate{
		ProviderTxnID:  "d-unknown",
		ProviderStatus: "successful",
		Source:         enums.PayoutEventSourceWebhook,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.Outcome != ResultIgnored {
		t.Fatalf("outcome = %s", result.Outcome)
	}
}

func TestStatusUpdateFallsBackToClientReference(t *testing.T) {
	conn := newTestDB(t)
	host := seedHost(t, conn, 50_00)
	provider := &fakeDisburser{result: &paymob.DisburseResult{
		// No transaction id in the synchronous answer.
		Status: "pending",
	}}
	svc := newTestService(t, conn, provider)

	dto, _, err := svc.CreatePayout(context.Background(), CreatePayoutInput{
		HostID:         host.ID,
		AmountCents:    20_00,
		IdempotencyKey: "withdraw-rec-4",
	})
	if err != nil {
		t.Fatalf("create payout: %v", err)
	}

	result, err := svc.ApplyStatusUpdate(context.Background(), StatusUpdate{
		ProviderTxnID:   "d-204",
		ClientReference: dto.ClientReference,
		ProviderStatus:  "successful",
		Source:          enums.PayoutEventSourceWebhook,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.Outcome != ResultProcessed || result.PayoutStatus != enums.PayoutStatusSuccess {
		t.Fatalf("unexpected result %+v", result)
	}

	// The late-arriving provider id is backfilled.
	stored, err := NewRepository(conn).FindByID(context.Background(), dto.ID)
	if err != nil || stored == nil {
		t.Fatalf("find: %v", err)
	}
	if stored.ProviderTxnID == nil || *stored.ProviderTxnID != "d-204" {
		t.Fatalf("provider txn id = %v", stored.ProviderTxnID)
	}
}

func TestStatusUpdateWithoutReference(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, &fakeDisburser{})

	if _, err := svc.ApplyStatusUpdate(context.Background(), StatusUpdate{
		ProviderStatus: "failed",
		Source:         enums.PayoutEventSourceWebhook,
	}); err == nil {
		t.Fatal("expected validation error for empty references")
	}
}
