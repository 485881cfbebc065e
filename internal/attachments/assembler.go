// Package attachments fetches the PDF documents attached to a filing
// notification.
package attachments

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"entityemailer/internal/external"
	"entityemailer/internal/templates"
	"entityemailer/internal/types"
)

// Document names the kind of document a slot fetches. The value appears in
// alerts ("error=<document> generation") and in the metric dimension.
type Document string

const (
	DocumentFiling      Document = "pdf"
	DocumentReceipt     Document = "receipt"
	DocumentNOA         Document = "noa"
	DocumentCertificate Document = "certificate"
)

// Metrics records the outcome of each attachment fetch.
type Metrics interface {
	RecordAttachment(ctx context.Context, document string, result string)
}

// slot is one attachment position of a status.
type slot struct {
	order    string
	document Document
	fileName func(filingType types.FilingType) string
	applies  func(filingType types.FilingType) bool
}

func always(types.FilingType) bool { return true }

func onlyFor(ft types.FilingType) func(types.FilingType) bool {
	return func(filingType types.FilingType) bool { return filingType == ft }
}

func named(name string) func(types.FilingType) string {
	return func(types.FilingType) string { return name }
}

// slotTable lists, per status, the attachments a notification carries in
// attach order. Statuses absent from the table carry none.
var slotTable = map[types.FilingStatus][]slot{
	types.FilingStatusPaid: {
		{
			order:    "1",
			document: DocumentFiling,
			fileName: func(ft types.FilingType) string {
				return "Notice of " + templates.HumanizeFilingType(ft) + ".pdf"
			},
			applies: always,
		},
		{order: "2", document: DocumentReceipt, fileName: named("Receipt.pdf"), applies: always},
	},
	types.FilingStatusCompleted: {
		{order: "1", document: DocumentNOA, fileName: named("Notice of Articles.pdf"), applies: always},
		{
			order:    "2",
			document: DocumentCertificate,
			fileName: named("Incorporation Certificate.pdf"),
			applies:  onlyFor(types.FilingTypeIncorporationApplication),
		},
	},
}

// Assembler fetches and encodes the attachments of a notification.
type Assembler struct {
	documents external.DocumentService
	payments  external.PaymentService
	monitor   types.Monitor
	metrics   Metrics
	timeout   time.Duration
}

// Options configures an Assembler.
type Options struct {
	Documents external.DocumentService
	Payments  external.PaymentService
	Monitor   types.Monitor
	// Metrics may be nil.
	Metrics Metrics
	// Timeout bounds each fetch; zero means no per-fetch deadline.
	Timeout time.Duration
}

// NewAssembler creates an Assembler.
func NewAssembler(opts Options) *Assembler {
	return &Assembler{
		documents: opts.Documents,
		payments:  opts.Payments,
		monitor:   opts.Monitor,
		metrics:   opts.Metrics,
		timeout:   opts.Timeout,
	}
}

// Assemble returns the attachments for the filing's notification in slot
// order. Slots are fetched concurrently. A failed fetch is logged, alerted
// and omitted; it never affects the other slots and never fails the call.
func (a *Assembler) Assemble(ctx context.Context, status types.FilingStatus, info *types.FilingInfo, token types.SecretString) []types.Attachment {
	slots := slotTable[status]
	results := make([]*types.Attachment, len(slots))

	var g errgroup.Group
	for i, s := range slots {
		if !s.applies(info.Filing.FilingType) {
			continue
		}
		g.Go(func() error {
			results[i] = a.fetchSlot(ctx, s, info, token)
			return nil
		})
	}
	_ = g.Wait()

	attachments := make([]types.Attachment, 0, len(results))
	for _, r := range results {
		if r != nil {
			attachments = append(attachments, *r)
		}
	}
	return attachments
}

func (a *Assembler) fetchSlot(ctx context.Context, s slot, info *types.FilingInfo, token types.SecretString) *types.Attachment {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	data, err := a.fetch(ctx, s.document, info, token)
	if err != nil {
		filingID := info.Filing.ID
		a.monitor.LogError(ctx, "failed to fetch attachment",
			"filing_id", filingID,
			"document", string(s.document),
			"error", err,
		)
		a.monitor.CaptureAlert(ctx,
			fmt.Sprintf("Email Queue: filing id=%d, error=%s generation", filingID, s.document),
			types.AlertLevelError)
		a.record(ctx, s.document, types.ResultFailed)
		return nil
	}

	a.record(ctx, s.document, types.ResultSuccess)
	return &types.Attachment{
		FileName:    s.fileName(info.Filing.FilingType),
		FileBytes:   base64.StdEncoding.EncodeToString(data),
		FileURL:     "",
		AttachOrder: s.order,
	}
}

func (a *Assembler) fetch(ctx context.Context, doc Document, info *types.FilingInfo, token types.SecretString) ([]byte, error) {
	f := info.Filing
	switch doc {
	case DocumentFiling:
		return a.documents.GetDocument(ctx, token, info.Business.Identifier, f.ID, external.VariantFiling)
	case DocumentNOA:
		return a.documents.GetDocument(ctx, token, info.Business.Identifier, f.ID, external.VariantNoticeOfArticles)
	case DocumentCertificate:
		return a.documents.GetDocument(ctx, token, info.Business.Identifier, f.ID, external.VariantCertificate)
	case DocumentReceipt:
		return a.payments.GetReceipt(ctx, token, f.PaymentToken, f.CorpName(info.Business), info.FilingDateTime)
	default:
		return nil, fmt.Errorf("no fetcher for document %q", doc)
	}
}

func (a *Assembler) record(ctx context.Context, doc Document, result string) {
	if a.metrics != nil {
		a.metrics.RecordAttachment(ctx, string(doc), result)
	}
}
