package paymob

import (
	"strings"
	"testing"
)

const testSecret = "hmac-secret"

func sampleTransaction() *Transaction {
	return &Transaction{
		ID:            7001,
		AmountCents:   15_000,
		Currency:      "EGP",
		CreatedAt:     "2025-08-30T12:00:00.000000",
		Success:       true,
		IntegrationID: 42,
		Owner:         9,
		Order:         TransactionOrder{ID: 9001, MerchantOrderID: "stay-abc"},
		SourceData:    SourceData{Type: "card", Pan: "2346", SubType: "MasterCard"},
	}
}

func TestVerifyTransactionRoundTrip(t *testing.T) {
	txn := sampleTransaction()
	sig := SignTransaction(testSecret, txn)
	if sig == "" {
		t.Fatal("expected signature")
	}
	if !VerifyTransaction(testSecret, txn, sig) {
		t.Fatal("expected valid signature to verify")
	}
}

func TestVerifyTransactionAcceptsUppercaseAndWhitespace(t *testing.T) {
	txn := sampleTransaction()
	sig := SignTransaction(testSecret, txn)

	if !VerifyTransaction(testSecret, txn, "  "+strings.ToUpper(sig)+" ") {
		t.Fatal("expected case-insensitive, trimmed comparison")
	}
}

func TestVerifyTransactionRejectsTamperedAmount(t *testing.T) {
	txn := sampleTransaction()
	sig := SignTransaction(testSecret, txn)

	txn.AmountCents = 1
	if VerifyTransaction(testSecret, txn, sig) {
		t.Fatal("tampered amount must fail verification")
	}
}

func TestVerifyTransactionRejectsFlippedFlag(t *testing.T) {
	txn := sampleTransaction()
	sig := SignTransaction(testSecret, txn)

	txn.Success = false
	if VerifyTransaction(testSecret, txn, sig) {
		t.Fatal("flipped success flag must fail verification")
	}
}

func TestVerifyTransactionRejectsWrongSecret(t *testing.T) {
	txn := sampleTransaction()
	sig := SignTransaction(testSecret, txn)

	if VerifyTransaction("other-secret", txn, sig) {
		t.Fatal("wrong secret must fail verification")
	}
}

func TestVerifyTransactionNeverErrors(t *testing.T) {
	if VerifyTransaction("", sampleTransaction(), "abc") {
		t.Fatal("empty secret must fail")
	}
	if VerifyTransaction(testSecret, nil, "abc") {
		t.Fatal("nil transaction must fail")
	}
	if VerifyTransaction(testSecret, sampleTransaction(), "") {
		t.Fatal("empty signature must fail")
	}
	if VerifyTransaction(testSecret, sampleTransaction(), "not-hex") {
		t.Fatal("garbage signature must fail")
	}
}

func TestVerifyDisbursementRoundTrip(t *testing.T) {
	body := []byte(`{"transaction_id":"d-200","disbursement_status":"failed"}`)
	sig := SignDisbursement(testSecret, body)

	if !VerifyDisbursement(testSecret, body, sig) {
		t.Fatal("expected valid signature to verify")
	}
	if VerifyDisbursement(testSecret, []byte(`{"transaction_id":"d-200","disbursement_status":"successful"}`), sig) {
		t.Fatal("modified body must fail verification")
	}
	if VerifyDisbursement(testSecret, nil, sig) {
		t.Fatal("empty body must fail")
	}
}
