package external

import (
	"context"

	"entityemailer/internal/types"
)

// DocumentVariant selects which rendering of a filing the legal API returns.
type DocumentVariant string

const (
	// VariantFiling is the primary filing document (no type parameter).
	VariantFiling DocumentVariant = ""
	// VariantNoticeOfArticles is the Notice of Articles.
	VariantNoticeOfArticles DocumentVariant = "noa"
	// VariantCertificate is the incorporation certificate.
	VariantCertificate DocumentVariant = "certificate"
)

// DocumentService fetches generated filing PDFs.
type DocumentService interface {
	GetDocument(ctx context.Context, token types.SecretString, businessID string, filingID int64, variant DocumentVariant) ([]byte, error)
}

// PaymentService fetches payment receipt PDFs.
type PaymentService interface {
	GetReceipt(ctx context.Context, token types.SecretString, paymentToken, corpName, filingDateTime string) ([]byte, error)
}

// ContactService looks up the contact emails registered for a business.
type ContactService interface {
	BusinessContacts(ctx context.Context, token types.SecretString, identifier string) ([]string, error)
}
