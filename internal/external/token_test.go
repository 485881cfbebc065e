package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"entityemailer/internal/types"
)

func TestServiceAccountTokenSource(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "entity-emailer" || pass != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"abc123","token_type":"Bearer","expires_in":300}`))
	}))
	defer server.Close()

	src := NewServiceAccountTokenSource(server.Client(), ServiceAccountConfig{
		TokenURL:     server.URL + "/token",
		ClientID:     "entity-emailer",
		ClientSecret: "s3cret",
	})

	for i := 0; i < 2; i++ {
		tok, err := src.Token(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok.Unmask() != "abc123" {
			t.Errorf("token = %q", tok.Unmask())
		}
	}
	if calls.Load() != 1 {
		t.Errorf("token endpoint called %d times, want 1 (cached)", calls.Load())
	}
}

func TestServiceAccountTokenSource_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer server.Close()

	src := NewServiceAccountTokenSource(server.Client(), ServiceAccountConfig{TokenURL: server.URL, ClientID: "x", ClientSecret: "y"})
	if _, err := src.Token(context.Background()); appErrorCode(t, err) != types.ErrCodeUpstreamAuth {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestStaticTokenSource(t *testing.T) {
	tok, err := NewStaticTokenSource("local-token").Token(context.Background())
	if err != nil || tok.Unmask() != "local-token" {
		t.Errorf("got %q, %v", tok.Unmask(), err)
	}
}
