package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"entityemailer/internal/logging"
	"entityemailer/internal/types"
)

// NotificationBuilder assembles the outbound message for one request.
type NotificationBuilder interface {
	Build(ctx context.Context, req types.NotificationRequest, token types.SecretString) (*types.OutboundMessage, error)
}

// MessagePublisher hands a finished message to the delivery queue.
type MessagePublisher interface {
	Publish(ctx context.Context, filingID int64, msg *types.OutboundMessage) error
}

// Handler consumes the filing notification queue.
type Handler struct {
	builder   NotificationBuilder
	publisher MessagePublisher
	tokens    types.TokenSource
	validate  *validator.Validate
	logger    *slog.Logger
	newID     func() string
}

// NewHandler creates a Handler.
func NewHandler(builder NotificationBuilder, publisher MessagePublisher, tokens types.TokenSource, logger *slog.Logger) *Handler {
	return &Handler{
		builder:   builder,
		publisher: publisher,
		tokens:    tokens,
		validate:  validator.New(),
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// Handle processes an SQS batch. Each record is handled independently;
// records that fail are returned in BatchItemFailures so SQS redelivers only
// those.
func (h *Handler) Handle(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	response := events.SQSEventResponse{}

	for _, record := range sqsEvent.Records {
		if err := h.processMessage(ctx, record); err != nil {
			h.logger.ErrorContext(ctx, "failed to process SQS message",
				"message_id", record.MessageId,
				"error_code", errorCode(err),
				"upstream", isUpstream(err),
				"error", err.Error(),
			)
			response.BatchItemFailures = append(response.BatchItemFailures,
				events.SQSBatchItemFailure{ItemIdentifier: record.MessageId},
			)
		}
	}

	return response, nil
}

// processMessage builds and publishes the notification for one record.
// Malformed envelopes are logged and acknowledged, since redelivery cannot
// fix them.
func (h *Handler) processMessage(ctx context.Context, record events.SQSMessage) error {
	var envelope types.QueueEnvelope
	if err := json.Unmarshal([]byte(record.Body), &envelope); err != nil {
		h.logger.ErrorContext(ctx, "failed to unmarshal queue envelope",
			"message_id", record.MessageId,
			"error", err.Error(),
		)
		return nil
	}
	if err := h.validate.Struct(envelope); err != nil {
		h.logger.ErrorContext(ctx, "invalid queue envelope",
			"message_id", record.MessageId,
			"error_code", types.ErrCodeValidationEnvelope,
			"error", err.Error(),
		)
		return nil
	}
	req := *envelope.Email

	ctx = types.WithRequestID(ctx, h.newID())
	logger := h.logger.With(
		"filing_id", req.FilingID,
		"filing_type", string(req.Type),
		"option", string(req.Option),
		"trace_id", types.GetRequestID(ctx),
	)
	if count, ok := record.Attributes["ApproximateReceiveCount"]; ok {
		logger = logger.With("receive_count", count)
	}
	ctx = types.WithLogger(ctx, logging.NewAdapter(logger))
	logger.InfoContext(ctx, "processing filing notification")

	token, err := h.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("acquire service token: %w", err)
	}

	msg, err := h.builder.Build(ctx, req, token)
	if err != nil {
		return fmt.Errorf("build notification: %w", err)
	}

	if err := h.publisher.Publish(ctx, req.FilingID, msg); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}

	logger.InfoContext(ctx, "filing notification queued for delivery",
		"subject", msg.Content.Subject,
		"recipients", len(msg.Recipients),
		"attachments", len(msg.Content.Attachments),
	)
	return nil
}

// isUpstream reports whether err came from an unavailable collaborator, as
// opposed to a filing that can never be built.
func isUpstream(err error) bool {
	var appErr *types.AppError
	return errors.As(err, &appErr) && !appErr.Code.Fatal()
}

func errorCode(err error) string {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return string(appErr.Code)
	}
	return ""
}
