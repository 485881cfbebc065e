package external

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"entityemailer/internal/types"
)

func TestPayAPIClient_GetReceipt(t *testing.T) {
	var (
		gotMethod string
		gotPath   string
		gotBody   receiptRequest
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("%PDF-receipt"))
	}))
	defer server.Close()

	client := NewPayAPIClientWithBase(newTestClient(t, NoRetry()), PayAPIClientConfig{BaseURL: server.URL + "/payment-requests"})
	pdf, err := client.GetReceipt(context.Background(), "tok", "1971", "Numbered Company", "August 1, 2026 at 10:15 am Pacific time")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if string(pdf) != "%PDF-receipt" {
		t.Errorf("pdf = %q", pdf)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", gotMethod)
	}
	if gotPath != "/payment-requests/1971/receipts" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody.CorpName != "Numbered Company" {
		t.Errorf("corpName = %q", gotBody.CorpName)
	}
	if gotBody.FilingDateTime != "August 1, 2026 at 10:15 am Pacific time" {
		t.Errorf("filingDateTime = %q", gotBody.FilingDateTime)
	}
}

func TestPayAPIClient_OKIsNotCreated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("%PDF-receipt"))
	}))
	defer server.Close()

	client := NewPayAPIClientWithBase(newTestClient(t, NoRetry()), PayAPIClientConfig{BaseURL: server.URL})
	_, err := client.GetReceipt(context.Background(), "tok", "1971", "ACME", "now")

	var appErr *types.AppError
	if !errors.As(err, &appErr) || appErr.Code != types.ErrCodeUpstreamStatus {
		t.Fatalf("expected %s, got %v", types.ErrCodeUpstreamStatus, err)
	}
}
