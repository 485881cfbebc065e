package external

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"entityemailer/internal/types"
)

// ServiceAccountConfig identifies the emailer's service account in Keycloak.
type ServiceAccountConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret types.SecretString
}

// ServiceAccountTokenSource obtains bearer tokens with the OAuth2 client
// credentials grant. Tokens are cached until shortly before expiry.
type ServiceAccountTokenSource struct {
	src oauth2.TokenSource
}

// NewServiceAccountTokenSource creates a token source that fetches tokens
// with httpClient.
func NewServiceAccountTokenSource(httpClient *http.Client, cfg ServiceAccountConfig) *ServiceAccountTokenSource {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret.Unmask(),
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	// The context only carries the HTTP client; token refreshes outlive any
	// single invocation.
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	return &ServiceAccountTokenSource{src: cc.TokenSource(ctx)}
}

// Token returns a valid access token.
func (s *ServiceAccountTokenSource) Token(_ context.Context) (types.SecretString, error) {
	tok, err := s.src.Token()
	if err != nil {
		return "", types.NewAppError(types.ErrCodeUpstreamAuth, "failed to obtain service account token", err)
	}
	return types.SecretString(tok.AccessToken), nil
}

// StaticTokenSource always returns the same token. Used for local runs.
type StaticTokenSource struct {
	token types.SecretString
}

// NewStaticTokenSource creates a StaticTokenSource.
func NewStaticTokenSource(token types.SecretString) *StaticTokenSource {
	return &StaticTokenSource{token: token}
}

// Token returns the configured token.
func (s *StaticTokenSource) Token(_ context.Context) (types.SecretString, error) {
	return s.token, nil
}

var (
	_ types.TokenSource = (*ServiceAccountTokenSource)(nil)
	_ types.TokenSource = (*StaticTokenSource)(nil)
)
