package external

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"entityemailer/internal/types"
)

// LegalAPIClientConfig holds the configuration for creating a LegalAPIClient.
type LegalAPIClientConfig struct {
	BaseURL   string // e.g. https://legal-api.bcregistry.ca/api/v1
	UserAgent string
	Logger    *slog.Logger
}

// LegalAPIClient implements DocumentService against the legal API.
type LegalAPIClient struct {
	base    *BaseClient
	baseURL string
	logger  *slog.Logger
}

// NewLegalAPIClient creates a LegalAPIClient. Requests are never retried.
func NewLegalAPIClient(httpClient *http.Client, cfg LegalAPIClientConfig) *LegalAPIClient {
	return NewLegalAPIClientWithBase(NewBaseClient(httpClient, "legal-api", NoRetry(), cfg.UserAgent), cfg)
}

// NewLegalAPIClientWithBase creates a LegalAPIClient on a pre-configured
// BaseClient.
func NewLegalAPIClientWithBase(base *BaseClient, cfg LegalAPIClientConfig) *LegalAPIClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &LegalAPIClient{
		base:    base,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:  logger,
	}
}

// GetDocument issues
//
//	GET {base}/businesses/{businessID}/filings/{filingID}[?type={variant}]
//
// with Accept: application/pdf. Only 200 OK counts as success.
func (c *LegalAPIClient) GetDocument(ctx context.Context, token types.SecretString, businessID string, filingID int64, variant DocumentVariant) ([]byte, error) {
	reqURL := fmt.Sprintf("%s/businesses/%s/filings/%d", c.baseURL, url.PathEscape(businessID), filingID)
	if variant != VariantFiling {
		reqURL += "?type=" + url.QueryEscape(string(variant))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to create document request", err)
	}
	req.Header.Set("Accept", "application/pdf")
	req.Header.Set("Authorization", "Bearer "+token.Unmask())

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}

	pdf, err := readExpected(resp, "legal api document", http.StatusOK)
	if err != nil {
		c.logger.WarnContext(ctx, "document request failed",
			"filing_id", filingID,
			"variant", string(variant),
			"status", resp.StatusCode,
		)
		return nil, err
	}
	return pdf, nil
}

var _ DocumentService = (*LegalAPIClient)(nil)
