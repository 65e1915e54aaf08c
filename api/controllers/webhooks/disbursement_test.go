package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/omarkhaled/stayhub-backend/internal/payouts"
	"github.com/omarkhaled/stayhub-backend/pkg/enums"
	"github.com/omarkhaled/stayhub-backend/pkg/paymob"
)

type stubPayoutService struct {
	result *payouts.ApplyResult
	got    payouts.StatusUpdate
	calls  int
}

func (s *stubPayoutService) ApplyStatusUpdate(_ context.Context, update payouts.StatusUpdate) (*payouts.ApplyResult, error) {
	s.calls++
	s.got = update
	return s.result, nil
}

func TestDisbursementWebhookProcessed(t *testing.T) {
	svc := &stubPayoutService{result: &payouts.ApplyResult{Outcome: payouts.ResultProcessed}}
	handler := DisbursementWebhook(svc, stubVerifier{}, &stubGuard{}, testLogger())

	body, _ := json.Marshal(paymob.DisbursementCallback{
		TransactionID:      "d-200",
		DisbursementStatus: "failed",
		StatusDescription:  "beneficiary bank rejected the transfer",
		StatusCode:         "T05",
	})
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paymob/disbursements", bytes.NewReader(body))
	req.Header.Set("X-Paymob-Signature", paymob.SignDisbursement("disb-secret", body))

	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.calls != 1 {
		t.Fatalf("service calls = %d", svc.calls)
	}
	if svc.got.ProviderTxnID != "d-200" || svc.got.ProviderStatus != "failed" {
		t.Fatalf("update = %+v", svc.got)
	}
	if svc.got.Source != enums.PayoutEventSourceWebhook {
		t.Fatalf("source = %s", svc.got.Source)
	}
}

func TestDisbursementWebhookRejectsBadSignature(t *testing.T) {
	svc := &stubPayoutService{result: &payouts.ApplyResult{Outcome: payouts.ResultProcessed}}
	handler := DisbursementWebhook(svc, stubVerifier{}, &stubGuard{}, testLogger())

	body, _ := json.Marshal(paymob.DisbursementCallback{TransactionID: "d-200", DisbursementStatus: "failed"})
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paymob/disbursements", bytes.NewReader(body))
	req.Header.Set("X-Paymob-Signature", "deadbeef")

	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if svc.calls != 0 {
		t.Fatal("unverified events must never reach the service")
	}
}

func TestDisbursementWebhookRejectsMissingTransactionID(t *testing.T) {
	svc := &stubPayoutService{result: &payouts.ApplyResult{Outcome: payouts.ResultProcessed}}
	handler := DisbursementWebhook(svc, stubVerifier{}, &stubGuard{}, testLogger())

	body := []byte(`{"disbursement_status":"failed"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paymob/disbursements", bytes.NewReader(body))
	req.Header.Set("X-Paymob-Signature", paymob.SignDisbursement("disb-secret", body))

	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
