package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"entityemailer/internal/types"
)

// PayAPIClientConfig holds the configuration for creating a PayAPIClient.
type PayAPIClientConfig struct {
	BaseURL   string // payment-requests collection, e.g. https://pay-api.bcregistry.ca/api/v1/payment-requests
	UserAgent string
	Logger    *slog.Logger
}

// PayAPIClient implements PaymentService against the pay API.
type PayAPIClient struct {
	base    *BaseClient
	baseURL string
	logger  *slog.Logger
}

// NewPayAPIClient creates a PayAPIClient. Requests are never retried.
func NewPayAPIClient(httpClient *http.Client, cfg PayAPIClientConfig) *PayAPIClient {
	return NewPayAPIClientWithBase(NewBaseClient(httpClient, "pay-api", NoRetry(), cfg.UserAgent), cfg)
}

// NewPayAPIClientWithBase creates a PayAPIClient on a pre-configured BaseClient.
func NewPayAPIClientWithBase(base *BaseClient, cfg PayAPIClientConfig) *PayAPIClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PayAPIClient{
		base:    base,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:  logger,
	}
}

type receiptRequest struct {
	CorpName       string `json:"corpName"`
	FilingDateTime string `json:"filingDateTime"`
}

// GetReceipt issues POST {base}/{paymentToken}/receipts. The pay API creates
// the receipt on each call, so only 201 Created counts as success.
func (c *PayAPIClient) GetReceipt(ctx context.Context, token types.SecretString, paymentToken, corpName, filingDateTime string) ([]byte, error) {
	body, err := json.Marshal(receiptRequest{CorpName: corpName, FilingDateTime: filingDateTime})
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to marshal receipt request", err)
	}

	reqURL := fmt.Sprintf("%s/%s/receipts", c.baseURL, url.PathEscape(paymentToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to create receipt request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/pdf")
	req.Header.Set("Authorization", "Bearer "+token.Unmask())

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}

	pdf, err := readExpected(resp, "pay api receipt", http.StatusCreated)
	if err != nil {
		c.logger.WarnContext(ctx, "receipt request failed",
			"payment_token", paymentToken,
			"status", resp.StatusCode,
		)
		return nil, err
	}
	return pdf, nil
}

var _ PaymentService = (*PayAPIClient)(nil)
