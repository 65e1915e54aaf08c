package paymob

// TransactionCallback is the envelope Paymob posts to the payment webhook.
type TransactionCallback struct {
	Type string       `json:"type"`
	Obj  *Transaction `json:"obj"`
	HMAC string       `json:"hmac,omitempty"`
}

// Transaction mirrors the processor's transaction object. Field names follow
// the wire format, including the processor's own spelling of error_occured.
type Transaction struct {
	ID                   int64            `json:"id"`
	AmountCents          int64            `json:"amount_cents"`
	Currency             string           `json:"currency"`
	CreatedAt            string           `json:"created_at"`
	Success              bool             `json:"success"`
	Pending              bool             `json:"pending"`
	ErrorOccured         bool             `json:"error_occured"`
	IsRefunded           bool             `json:"is_refunded"`
	IsVoided             bool             `json:"is_voided"`
	IsAuth               bool             `json:"is_auth"`
	IsCapture            bool             `json:"is_capture"`
	IsStandalonePayment  bool             `json:"is_standalone_payment"`
	Is3DSecure           bool             `json:"is_3d_secure"`
	HasParentTransaction bool             `json:"has_parent_transaction"`
	IntegrationID        int64            `json:"integration_id"`
	Owner                int64            `json:"owner"`
	Order                TransactionOrder `json:"order"`
	SourceData           SourceData       `json:"source_data"`
	Data                 TransactionData  `json:"data"`
}

// TransactionOrder carries the processor order and our merchant reference.
type TransactionOrder struct {
	ID              int64  `json:"id"`
	MerchantOrderID string `json:"merchant_order_id"`
}

// SourceData describes the instrument used to pay.
type SourceData struct {
	Type    string `json:"type"`
	Pan     string `json:"pan"`
	SubType string `json:"sub_type"`
}

// TransactionData holds the processor's free-form result details.
type TransactionData struct {
	Message string `json:"message"`
}

// DisbursementCallback is the payload the payout provider posts when a
// disbursement changes state.
type DisbursementCallback struct {
	TransactionID      string `json:"transaction_id"`
	DisbursementStatus string `json:"disbursement_status"`
	StatusDescription  string `json:"status_description"`
	StatusCode         string `json:"status_code"`
}
