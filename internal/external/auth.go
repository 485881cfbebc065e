package external

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"entityemailer/internal/types"
)

// AuthAPIClientConfig holds the configuration for creating an AuthAPIClient.
type AuthAPIClientConfig struct {
	BaseURL   string // e.g. https://auth-api.bcregistry.ca/api/v1
	UserAgent string
	Logger    *slog.Logger
}

// AuthAPIClient implements ContactService against the auth API entities
// endpoint.
type AuthAPIClient struct {
	base    *BaseClient
	baseURL string
	logger  *slog.Logger
}

// NewAuthAPIClient creates an AuthAPIClient. Contact lookups are idempotent
// and use DefaultRetryPolicy.
func NewAuthAPIClient(httpClient *http.Client, cfg AuthAPIClientConfig) *AuthAPIClient {
	return NewAuthAPIClientWithBase(NewBaseClient(httpClient, "auth-api", DefaultRetryPolicy(), cfg.UserAgent), cfg)
}

// NewAuthAPIClientWithBase creates an AuthAPIClient on a pre-configured
// BaseClient.
func NewAuthAPIClientWithBase(base *BaseClient, cfg AuthAPIClientConfig) *AuthAPIClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthAPIClient{
		base:    base,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:  logger,
	}
}

type entityResponse struct {
	BusinessIdentifier string `json:"businessIdentifier"`
	Contacts           []struct {
		Email string `json:"email"`
	} `json:"contacts"`
}

// BusinessContacts returns the non-empty contact emails of the entity, in
// the order the auth API lists them. An unknown entity yields no contacts.
func (c *AuthAPIClient) BusinessContacts(ctx context.Context, token types.SecretString, identifier string) ([]string, error) {
	reqURL := fmt.Sprintf("%s/entities/%s", c.baseURL, url.PathEscape(identifier))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to create entity request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token.Unmask())

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, nil
	}

	data, err := readExpected(resp, "auth api entity", http.StatusOK)
	if err != nil {
		return nil, err
	}

	var entity entityResponse
	if err := json.Unmarshal(data, &entity); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamUnavailable, "failed to decode entity response", err)
	}

	emails := make([]string, 0, len(entity.Contacts))
	for _, contact := range entity.Contacts {
		if contact.Email != "" {
			emails = append(emails, contact.Email)
		}
	}
	return emails, nil
}

var _ ContactService = (*AuthAPIClient)(nil)
