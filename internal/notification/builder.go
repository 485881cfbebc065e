// Package notification assembles the complete outbound email for one filing
// event.
package notification

import (
	"context"
	"fmt"
	"time"

	"entityemailer/internal/subject"
	"entityemailer/internal/templates"
	"entityemailer/internal/types"
)

// DefaultSender is the RequestBy identity on every outbound message.
const DefaultSender = "BCRegistries@gov.bc.ca"

// FilingInfoProvider loads a filing with its business snapshot.
type FilingInfoProvider interface {
	FilingInfo(ctx context.Context, id int64) (*types.FilingInfo, error)
}

// TemplateResolver locates the raw body template for a filing event.
type TemplateResolver interface {
	TemplateName(filingType types.FilingType, status types.FilingStatus) (string, error)
	Resolve(ctx context.Context, filingType types.FilingType, status types.FilingStatus) (string, error)
}

// AttachmentAssembler fetches the attachments of a notification.
type AttachmentAssembler interface {
	Assemble(ctx context.Context, status types.FilingStatus, info *types.FilingInfo, token types.SecretString) []types.Attachment
}

// RecipientResolver derives the recipient list.
type RecipientResolver interface {
	Resolve(ctx context.Context, status types.FilingStatus, filing *types.Filing, token types.SecretString) ([]string, error)
}

// Metrics records one sample per Build.
type Metrics interface {
	RecordBuild(ctx context.Context, filingType types.FilingType, status types.FilingStatus, result string, duration time.Duration)
}

// Deps wires a Builder. Metrics may be nil; Sender defaults to DefaultSender.
type Deps struct {
	Filings     FilingInfoProvider
	Templates   TemplateResolver
	Fragments   templates.Store
	Binder      *templates.Binder
	Attachments AttachmentAssembler
	Recipients  RecipientResolver
	Monitor     types.Monitor
	Metrics     Metrics
	Sender      string
}

// Builder produces one OutboundMessage per NotificationRequest.
type Builder struct {
	deps Deps
	now  func() time.Time
}

// NewBuilder creates a Builder.
func NewBuilder(deps Deps) *Builder {
	if deps.Sender == "" {
		deps.Sender = DefaultSender
	}
	return &Builder{deps: deps, now: time.Now}
}

// Build assembles the notification for req. It fails only when the filing
// cannot be loaded or the body cannot be produced; a missing attachment or
// an unreachable contact service degrades the message instead. On error the
// message is nil.
func (b *Builder) Build(ctx context.Context, req types.NotificationRequest, token types.SecretString) (*types.OutboundMessage, error) {
	start := b.now()
	msg, info, err := b.build(ctx, req, token)

	filingType := req.Type
	if info != nil {
		filingType = info.Filing.FilingType
	}
	result := types.ResultSuccess
	if err != nil {
		result = types.ResultFailed
	}
	if b.deps.Metrics != nil {
		b.deps.Metrics.RecordBuild(ctx, filingType, req.Option, result, b.now().Sub(start))
	}
	return msg, err
}

func (b *Builder) build(ctx context.Context, req types.NotificationRequest, token types.SecretString) (*types.OutboundMessage, *types.FilingInfo, error) {
	info, err := b.deps.Filings.FilingInfo(ctx, req.FilingID)
	if err != nil {
		return nil, nil, err
	}
	filing := info.Filing
	if req.Type != "" && req.Type != filing.FilingType {
		return nil, info, types.NewAppError(types.ErrCodeValidationFilingMismatch,
			fmt.Sprintf("filing %d is %s, request names %s", filing.ID, filing.FilingType, req.Type), nil)
	}

	body, err := b.renderBody(ctx, req.Option, info)
	if err != nil {
		return nil, info, err
	}

	attached := b.deps.Attachments.Assemble(ctx, req.Option, info, token)

	recipients, err := b.deps.Recipients.Resolve(ctx, req.Option, filing, token)
	if err != nil {
		b.deps.Monitor.LogError(ctx, "failed to resolve business contact",
			"filing_id", filing.ID,
			"error", err,
		)
	}
	if recipients == nil {
		recipients = []string{}
	}

	return &types.OutboundMessage{
		Recipients: recipients,
		RequestBy:  b.deps.Sender,
		Content: types.MessageContent{
			Subject:     subject.Compose(req.Option, filing.FilingType, filing.LegalName(info.Business)),
			Body:        body,
			Attachments: attached,
		},
	}, info, nil
}

func (b *Builder) renderBody(ctx context.Context, status types.FilingStatus, info *types.FilingInfo) (string, error) {
	name, err := b.deps.Templates.TemplateName(info.Filing.FilingType, status)
	if err != nil {
		return "", err
	}
	raw, err := b.deps.Templates.Resolve(ctx, info.Filing.FilingType, status)
	if err != nil {
		return "", err
	}
	inlined, err := templates.Inline(ctx, b.deps.Fragments, raw)
	if err != nil {
		return "", err
	}
	return b.deps.Binder.Render(name, inlined, b.deps.Binder.Bind(info))
}
