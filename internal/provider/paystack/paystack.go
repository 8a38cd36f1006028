package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/Flickmart/flickmart-sub000/internal/config"
	"github.com/Flickmart/flickmart-sub000/internal/domain"
)

// Client talks to the Paystack API. All amounts are in kobo. Outbound calls
// run through a circuit breaker; an open breaker or transport failure is
// surfaced as domain.ErrGatewayUnavailable.
type Client struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

func NewClient(cfg config.PaystackConfig, logger *zap.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "paystack",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("gateway breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &Client{
		secretKey:  cfg.SecretKey,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		breaker:    breaker,
		logger:     logger,
	}
}

type InitializeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// InitializeTransaction creates a pending charge and returns the reference
// the client-side payment widget needs.
func (c *Client) InitializeTransaction(ctx context.Context, email string, amount int64, callbackURL string) (*InitializeResponse, error) {
	body := map[string]interface{}{
		"email":  email,
		"amount": amount,
	}
	if callbackURL != "" {
		body["callback_url"] = callbackURL
	}

	var out InitializeResponse
	if err := c.call(ctx, http.MethodPost, "/transaction/initialize", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type VerifyResponse struct {
	Status     string `json:"status"` // success | abandoned | failed | pending
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	Reference  string `json:"reference"`
	GatewayRef string `json:"-"`
	PaidAt     string `json:"paid_at"`
}

// VerifyTransaction re-verifies a charge against the gateway. Local state is
// never updated from client-supplied flags, only from this response.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*VerifyResponse, error) {
	var out struct {
		VerifyResponse
		ID int64 `json:"id"`
	}
	if err := c.call(ctx, http.MethodGet, "/transaction/verify/"+reference, nil, &out); err != nil {
		return nil, err
	}
	resp := out.VerifyResponse
	resp.GatewayRef = fmt.Sprintf("%d", out.ID)
	return &resp, nil
}

// ListBanks returns the gateway's bank directory.
func (c *Client) ListBanks(ctx context.Context) ([]domain.Bank, error) {
	var out []domain.Bank
	if err := c.call(ctx, http.MethodGet, "/bank?country=nigeria", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type ResolvedAccount struct {
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

// ResolveAccount confirms account-name ownership before a payout.
func (c *Client) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (*ResolvedAccount, error) {
	path := fmt.Sprintf("/bank/resolve?account_number=%s&bank_code=%s", accountNumber, bankCode)
	var out ResolvedAccount
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTransferRecipient registers a payout destination and returns the
// recipient code Paystack requires for transfers.
func (c *Client) CreateTransferRecipient(ctx context.Context, name, accountNumber, bankCode string) (string, error) {
	body := map[string]interface{}{
		"type":           "nuban",
		"name":           name,
		"account_number": accountNumber,
		"bank_code":      bankCode,
		"currency":       "NGN",
	}
	var out struct {
		RecipientCode string `json:"recipient_code"`
	}
	if err := c.call(ctx, http.MethodPost, "/transferrecipient", body, &out); err != nil {
		return "", err
	}
	return out.RecipientCode, nil
}

type TransferResponse struct {
	Status       string `json:"status"`
	TransferCode string `json:"transfer_code"`
	Reference    string `json:"reference"`
}

// InitiateTransfer executes a payout to a registered recipient.
func (c *Client) InitiateTransfer(ctx context.Context, recipientCode string, amount int64, reference, reason string) (*TransferResponse, error) {
	body := map[string]interface{}{
		"source":    "balance",
		"recipient": recipientCode,
		"amount":    amount,
		"reference": reference,
		"reason":    reason,
	}
	var out TransferResponse
	if err := c.call(ctx, http.MethodPost, "/transfer", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ValidSignature checks the x-paystack-signature header: HMAC-SHA512 of the
// raw body keyed with the secret key, hex encoded.
func (c *Client) ValidSignature(payload []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(c.secretKey))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// WebhookEvent is the envelope Paystack posts to the webhook endpoint.
type WebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		ID        int64  `json:"id"`
		Status    string `json:"status"`
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Currency  string `json:"currency"`
	} `json:"data"`
}

type apiEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// call runs the transport through the breaker so only network and 5xx
// failures trip it; gateway-level rejections (declined charge, unknown
// account) pass through as ordinary errors.
func (c *Client) call(ctx context.Context, method, path string, body, dest interface{}) error {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doRequest(ctx, method, path, body)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return domain.ErrGatewayUnavailable
		}
		return err
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(result.([]byte), &envelope); err != nil {
		return domain.ErrGatewayUnavailable
	}
	if !envelope.Status {
		c.logger.Warn("gateway rejected request",
			zap.String("path", path),
			zap.String("message", envelope.Message))
		return fmt.Errorf("gateway: %s", envelope.Message)
	}
	if dest == nil {
		return nil
	}
	return json.Unmarshal(envelope.Data, dest)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("gateway request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return nil, domain.ErrGatewayUnavailable
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.ErrGatewayUnavailable
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		c.logger.Error("gateway server error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return nil, domain.ErrGatewayUnavailable
	}
	return raw, nil
}
