package paymob

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"strconv"
	"strings"
)

// hmacFieldOrder is the processor-documented concatenation order for the
// transaction HMAC. Booleans are rendered "true"/"false", numbers in decimal,
// missing strings as "".
var hmacFieldOrder = []func(*Transaction) string{
	func(t *Transaction) string { return strconv.FormatInt(t.AmountCents, 10) },
	func(t *Transaction) string { return t.CreatedAt },
	func(t *Transaction) string { return t.Currency },
	func(t *Transaction) string { return formatBool(t.ErrorOccured) },
	func(t *Transaction) string { return formatBool(t.HasParentTransaction) },
	func(t *Transaction) string { return strconv.FormatInt(t.ID, 10) },
	func(t *Transaction) string { return strconv.FormatInt(t.IntegrationID, 10) },
	func(t *Transaction) string { return formatBool(t.Is3DSecure) },
	func(t *Transaction) string { return formatBool(t.IsAuth) },
	func(t *Transaction) string { return formatBool(t.IsCapture) },
	func(t *Transaction) string { return formatBool(t.IsRefunded) },
	func(t *Transaction) string { return formatBool(t.IsStandalonePayment) },
	func(t *Transaction) string { return formatBool(t.IsVoided) },
	func(t *Transaction) string { return strconv.FormatInt(t.Order.ID, 10) },
	func(t *Transaction) string { return strconv.FormatInt(t.Owner, 10) },
	func(t *Transaction) string { return formatBool(t.Pending) },
	func(t *Transaction) string { return t.SourceData.Pan },
	func(t *Transaction) string { return t.SourceData.SubType },
	func(t *Transaction) string { return t.SourceData.Type },
	func(t *Transaction) string { return formatBool(t.Success) },
}

// VerifyTransaction checks the HMAC-SHA512 signature over the transaction's
// canonical field concatenation. It returns false, never an error, on any
// malformed input or missing configuration; callers must reject the webhook
// before touching any record when it returns false.
func VerifyTransaction(secret string, txn *Transaction, received string) bool {
	if secret == "" || txn == nil {
		return false
	}
	received = strings.ToLower(strings.TrimSpace(received))
	if received == "" {
		return false
	}

	var b strings.Builder
	for _, field := range hmacFieldOrder {
		b.WriteString(field(txn))
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(b.String()))
	computed := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(computed), []byte(received))
}

// VerifyDisbursement checks the HMAC-SHA256 signature over the raw payout
// webhook body. Same false-never-error contract as VerifyTransaction.
func VerifyDisbursement(secret string, rawBody []byte, received string) bool {
	if secret == "" || len(rawBody) == 0 {
		return false
	}
	received = strings.ToLower(strings.TrimSpace(received))
	if received == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	computed := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(computed), []byte(received))
}

// SignTransaction computes the transaction HMAC. Exposed for tests and for
// signing fixtures in dev tooling.
func SignTransaction(secret string, txn *Transaction) string {
	if secret == "" || txn == nil {
		return ""
	}
	var b strings.Builder
	for _, field := range hmacFieldOrder {
		b.WriteString(field(txn))
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(b.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

// SignDisbursement computes the payout webhook HMAC over the raw body.
func SignDisbursement(secret string, rawBody []byte) string {
	if secret == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	return hex.EncodeToString(mac.Sum(nil))
}

func formatBool(value bool) string {
	if value {
		return "true"
	}
	return "false"
}
