// Package queue hands finished notifications to the delivery queue.
package queue

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/klauspost/compress/gzip"

	"entityemailer/internal/types"
)

const (
	// CompressThreshold is the body size above which messages are gzipped.
	CompressThreshold = 200 * 1024
	// MaxMessageSize is the SQS message size limit.
	MaxMessageSize = 256 * 1024

	// AttrContentEncoding is set to "gzip" on compressed messages; their body
	// is the base64 of the gzipped JSON.
	AttrContentEncoding = "ContentEncoding"
	AttrFilingID        = "FilingId"
	AttrTraceID         = "TraceId"
)

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// AttachmentStore keeps attachment documents outside the message and returns
// a URL the delivery transport can fetch them from.
type AttachmentStore interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
}

// Publisher sends OutboundMessages to the delivery queue as JSON.
type Publisher struct {
	client      SQSSender
	queueURL    string
	logger      *slog.Logger
	attachments AttachmentStore
}

// PublisherOption configures optional Publisher behaviour.
type PublisherOption func(*Publisher)

// WithAttachmentStore lets the Publisher move attachment bytes to store when
// a message would not fit in SQS.
func WithAttachmentStore(store AttachmentStore) PublisherOption {
	return func(p *Publisher) {
		p.attachments = store
	}
}

// NewPublisher creates a Publisher targeting queueURL.
func NewPublisher(client SQSSender, queueURL string, logger *slog.Logger, opts ...PublisherOption) *Publisher {
	p := &Publisher{client: client, queueURL: queueURL, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish serializes msg and sends it. Bodies larger than CompressThreshold
// are gzipped. When the encoded message still exceeds MaxMessageSize and an
// AttachmentStore is configured, every inline attachment is uploaded and sent
// by URL instead. msg itself is never modified.
func (p *Publisher) Publish(ctx context.Context, filingID int64, msg *types.OutboundMessage) error {
	payload, compressed, err := encode(msg)
	if err != nil {
		return err
	}

	offloaded := 0
	if len(payload) > MaxMessageSize && p.attachments != nil {
		msg, offloaded, err = p.offload(ctx, filingID, msg)
		if err != nil {
			return err
		}
		if payload, compressed, err = encode(msg); err != nil {
			return err
		}
	}
	if len(payload) > MaxMessageSize {
		return types.NewAppError(types.ErrCodeValidationMessageSize,
			fmt.Sprintf("outbound message is %d bytes after encoding, limit %d", len(payload), MaxMessageSize), nil)
	}

	attrs := map[string]sqsTypes.MessageAttributeValue{
		AttrFilingID: {
			DataType:    aws.String("Number"),
			StringValue: aws.String(strconv.FormatInt(filingID, 10)),
		},
	}
	if traceID := types.GetRequestID(ctx); traceID != "" {
		attrs[AttrTraceID] = sqsTypes.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(traceID),
		}
	}
	if compressed {
		attrs[AttrContentEncoding] = sqsTypes.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String("gzip"),
		}
	}

	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:          aws.String(p.queueURL),
		MessageBody:       aws.String(payload),
		MessageAttributes: attrs,
	})
	if err != nil {
		return types.NewAppError(types.ErrCodeUpstreamQueue,
			fmt.Sprintf("failed to send outbound message to %s", p.queueURL), err)
	}

	p.logger.InfoContext(ctx, "outbound message published",
		"filing_id", filingID,
		"recipients", len(msg.Recipients),
		"attachments", len(msg.Content.Attachments),
		"offloaded_attachments", offloaded,
		"bytes", len(payload),
		"compressed", compressed,
	)
	return nil
}

// offload returns a copy of msg whose inline attachments are replaced by
// store URLs, and how many were moved.
func (p *Publisher) offload(ctx context.Context, filingID int64, msg *types.OutboundMessage) (*types.OutboundMessage, int, error) {
	out := *msg
	out.Content.Attachments = make([]types.Attachment, len(msg.Content.Attachments))
	copy(out.Content.Attachments, msg.Content.Attachments)

	moved := 0
	for i := range out.Content.Attachments {
		a := &out.Content.Attachments[i]
		if a.FileBytes == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(a.FileBytes)
		if err != nil {
			return nil, 0, types.NewAppError(types.ErrCodeInternalUnexpected,
				fmt.Sprintf("attachment %q is not base64", a.FileName), err)
		}
		url, err := p.attachments.Put(ctx, attachmentKey(filingID, a.AttachOrder, data), data)
		if err != nil {
			return nil, 0, types.NewAppError(types.ErrCodeUpstreamStorage,
				fmt.Sprintf("failed to store attachment %q", a.FileName), err)
		}
		a.FileURL = url
		a.FileBytes = ""
		moved++
	}
	return &out, moved, nil
}

// attachmentKey is derived from the document content, so rebuilding the same
// notification overwrites rather than duplicates.
func attachmentKey(filingID int64, order string, data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("filings/%d/%s-%x.pdf", filingID, order, sum[:8])
}

// encode returns the SQS body for msg and whether it was compressed.
func encode(msg *types.OutboundMessage) (string, bool, error) {
	body, err := msg.MarshalWire()
	if err != nil {
		return "", false, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to marshal outbound message", err)
	}
	if len(body) <= CompressThreshold {
		return string(body), false, nil
	}
	payload, err := compress(body)
	if err != nil {
		return "", false, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to compress outbound message", err)
	}
	return payload, true, nil
}

func compress(body []byte) (string, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return "", err
	}
	if _, err := zw.Write(body); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
