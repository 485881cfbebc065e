package external

import (
	"context"
	"fmt"
	"log/slog"

	"entityemailer/internal/types"
)

// ---------------------------------------------------------------------------
// Stub Implementations
//
// Stubs let the worker run locally without the registry services. They log
// each call and return a small, valid PDF.
// ---------------------------------------------------------------------------

// stubPDF is a minimal single-page PDF.
var stubPDF = []byte("%PDF-1.4\n1 0 obj<</Type/Catalog/Pages 2 0 R>>endobj\n" +
	"2 0 obj<</Type/Pages/Kids[3 0 R]/Count 1>>endobj\n" +
	"3 0 obj<</Type/Page/Parent 2 0 R/MediaBox[0 0 612 792]>>endobj\n" +
	"trailer<</Root 1 0 R>>\n%%EOF\n")

// StubDocumentService implements DocumentService for local runs.
type StubDocumentService struct {
	logger *slog.Logger
}

// NewStubDocumentService creates a new StubDocumentService.
func NewStubDocumentService(logger *slog.Logger) *StubDocumentService {
	return &StubDocumentService{logger: logger}
}

func (s *StubDocumentService) GetDocument(ctx context.Context, _ types.SecretString, businessID string, filingID int64, variant DocumentVariant) ([]byte, error) {
	s.logger.InfoContext(ctx, "stub: GetDocument called",
		"business_id", businessID,
		"filing_id", filingID,
		"variant", string(variant),
	)
	return stubPDF, nil
}

// StubPaymentService implements PaymentService for local runs.
type StubPaymentService struct {
	logger *slog.Logger
}

// NewStubPaymentService creates a new StubPaymentService.
func NewStubPaymentService(logger *slog.Logger) *StubPaymentService {
	return &StubPaymentService{logger: logger}
}

func (s *StubPaymentService) GetReceipt(ctx context.Context, _ types.SecretString, paymentToken, corpName, filingDateTime string) ([]byte, error) {
	s.logger.InfoContext(ctx, "stub: GetReceipt called",
		"payment_token", paymentToken,
		"corp_name", corpName,
		"filing_date_time", filingDateTime,
	)
	return stubPDF, nil
}

// StubContactService implements ContactService for local runs.
type StubContactService struct {
	logger *slog.Logger
}

// NewStubContactService creates a new StubContactService.
func NewStubContactService(logger *slog.Logger) *StubContactService {
	return &StubContactService{logger: logger}
}

func (s *StubContactService) BusinessContacts(ctx context.Context, _ types.SecretString, identifier string) ([]string, error) {
	s.logger.InfoContext(ctx, "stub: BusinessContacts called", "identifier", identifier)
	return []string{fmt.Sprintf("%s@stub.local", identifier)}, nil
}

var (
	_ DocumentService = (*StubDocumentService)(nil)
	_ PaymentService  = (*StubPaymentService)(nil)
	_ ContactService  = (*StubContactService)(nil)
)
