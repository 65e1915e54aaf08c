package paymob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/omarkhaled/stayhub-backend/pkg/config"
	pkgerrors "github.com/omarkhaled/stayhub-backend/pkg/errors"
	"github.com/omarkhaled/stayhub-backend/pkg/logger"
)

var (
	errHMACSecretRequired       = errors.New("paymob hmac secret is required")
	errPayoutHMACSecretRequired = errors.New("paymob payout hmac secret is required")
	errLoggerRequired           = errors.New("paymob logger is required")
)

// Client wraps the processor's disbursement API with centralized auth,
// logging, and error mapping.
type Client struct {
	cfg        config.PaymobConfig
	httpClient *http.Client
	tokens     *TokenCache
	logger     *logger.Logger
}

// NewClient initializes the Paymob wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.PaymobConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	if strings.TrimSpace(cfg.HMACSecret) == "" {
		return nil, errHMACSecretRequired
	}
	if strings.TrimSpace(cfg.PayoutHMACSecret) == "" {
		return nil, errPayoutHMACSecretRequired
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logg,
	}
	c.tokens = NewTokenCache(c.exchangeCredentials, cfg.TokenExpiryBuffer)

	logg.Info(ctx, "paymob client initialized")
	return c, nil
}

// TransactionSecret returns the payment webhook signing secret.
func (c *Client) TransactionSecret() string {
	if c == nil {
		return ""
	}
	return c.cfg.HMACSecret
}

// PayoutSecret returns the disbursement webhook signing secret.
func (c *Client) PayoutSecret() string {
	if c == nil {
		return ""
	}
	return c.cfg.PayoutHMACSecret
}

// DisburseParams describes one bank transfer request.
type DisburseParams struct {
	Issuer          string
	AmountCents     int64
	BankCardNumber  string
	BankCode        string
	FullName        string
	NationalID      string
	ClientReference string
}

// DisburseResult is the provider's synchronous answer to a transfer request.
type DisburseResult struct {
	TransactionID     string `json:"transaction_id"`
	Status            string `json:"disbursement_status"`
	StatusDescription string `json:"status_description"`
	StatusCode        string `json:"status_code"`
}

type disburseRequest struct {
	Issuer              string `json:"issuer"`
	Amount              string `json:"amount"`
	BankCardNumber      string `json:"bank_card_number"`
	BankTransactionType string `json:"bank_transaction_type"`
	BankCode            string `json:"bank_code"`
	FullName            string `json:"full_name"`
	NationalID          string `json:"national_id"`
	ClientReference     string `json:"client_reference"`
}

// Disburse submits a bank transfer to the provider. Network failures and
// non-2xx answers surface as provider errors; the caller owns compensation.
func (c *Client) Disburse(ctx context.Context, params DisburseParams) (*DisburseResult, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, "obtain provider token")
	}

	body := disburseRequest{
		Issuer:              params.Issuer,
		Amount:              FormatAmount(params.AmountCents),
		BankCardNumber:      NormalizeAccountNumber(params.BankCardNumber),
		BankTransactionType: c.cfg.BankTransactionType,
		BankCode:            params.BankCode,
		FullName:            params.FullName,
		NationalID:          params.NationalID,
		ClientReference:     params.ClientReference,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode disburse request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/secure/disburse", bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build disburse request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	c.log(ctx, "request", "disburse", map[string]any{
		"client_reference": params.ClientReference,
		"amount":           body.Amount,
		"bank_code":        params.BankCode,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log(ctx, "error", "disburse", map[string]any{"error": err.Error()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, "disburse call failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, "read disburse response")
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// Token revoked server-side; drop the cache so the next attempt
		// re-authenticates.
		c.tokens.Invalidate()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log(ctx, "error", "disburse", map[string]any{
			"status": resp.StatusCode,
			"body":   truncate(string(raw), 512),
		})
		return nil, pkgerrors.New(pkgerrors.CodeProvider, fmt.Sprintf("disburse returned status %d", resp.StatusCode)).
			WithDetails(map[string]any{"status": resp.StatusCode})
	}

	var result DisburseResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, "decode disburse response")
	}

	c.log(ctx, "response", "disburse", map[string]any{
		"transaction_id": result.TransactionID,
		"status":         result.Status,
	})
	return &result, nil
}

type oauthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// exchangeCredentials performs the OAuth2 password grant.
func (c *Client) exchangeCredentials(ctx context.Context) (tokenState, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", c.cfg.OAuthUsername)
	form.Set("password", c.cfg.OAuthPassword)
	form.Set("client_id", c.cfg.OAuthClientID)
	form.Set("client_secret", c.cfg.OAuthClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/o/token/", strings.NewReader(form.Encode()))
	if err != nil {
		return tokenState{}, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return tokenState{}, fmt.Errorf("token call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return tokenState{}, fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var parsed oauthResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return tokenState{}, fmt.Errorf("decode token response: %w", err)
	}
	if parsed.AccessToken == "" {
		return tokenState{}, errors.New("token response missing access_token")
	}

	return tokenState{
		accessToken:  parsed.AccessToken,
		refreshToken: parsed.RefreshToken,
		expiresAt:    time.Now().Add(time.Duration(parsed.ExpiresIn) * time.Second),
	}, nil
}

// FormatAmount renders cents as the provider's 2-decimal string ("2000" cents
// becomes "20.00").
func FormatAmount(amountCents int64) string {
	return decimal.NewFromInt(amountCents).Div(decimal.NewFromInt(100)).StringFixed(2)
}

// NormalizeAccountNumber strips whitespace from an account/IBAN value.
func NormalizeAccountNumber(value string) string {
	return strings.Join(strings.Fields(value), "")
}

func (c *Client) log(ctx context.Context, phase, operation string, fields map[string]any) {
	if c.logger == nil {
		return
	}
	merged := map[string]any{"provider": "paymob", "phase": phase, "operation": operation}
	for k, v := range fields {
		merged[k] = v
	}
	ctx = c.logger.WithFields(ctx, merged)
	c.logger.Info(ctx, "paymob."+operation)
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max]
}
