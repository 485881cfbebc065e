// Package main is the entrypoint for the Entity Emailer Lambda function.
//
// The Entity Emailer consumes filing notification requests from SQS, builds
// the complete email for each (recipients, subject, rendered body and PDF
// attachments) and hands it to the delivery queue.
//
// Cold Start (main):
//  1. Load configuration (SSM secrets resolved outside local mode).
//  2. Initialize structured logger and Sentry.
//  3. Load AWS SDK configuration and create SQS, S3 and CloudWatch clients.
//  4. Open the read-only filings database pool.
//  5. Initialize the legal, pay and auth API clients and the token source.
//  6. Wire the template store, attachment assembler, notification builder
//     and publisher (with the S3 attachment store when configured).
//  7. Register handler and call lambda.Start.
//
// Handler flow:
//
//	For each SQS message in the batch:
//	  1. Unmarshal and validate the {"email": {...}} envelope.
//	  2. Acquire a service token.
//	  3. Build the OutboundMessage.
//	  4. Publish it to the delivery queue.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/getsentry/sentry-go"

	"entityemailer/internal/attachments"
	"entityemailer/internal/config"
	"entityemailer/internal/db"
	"entityemailer/internal/external"
	"entityemailer/internal/filings"
	"entityemailer/internal/logging"
	"entityemailer/internal/monitoring"
	"entityemailer/internal/notification"
	"entityemailer/internal/queue"
	"entityemailer/internal/recipients"
	"entityemailer/internal/templates"
	"entityemailer/internal/types"
)

func main() {
	cfg, err := config.Load(secretProvider())
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, flush := logging.New(logging.Options{
		Level:       cfg.LogLevel,
		SentryDSN:   cfg.Observability.SentryDSN,
		Environment: cfg.Environment,
		Release:     cfg.Build.Release(),
	})
	defer flush()
	fail := func(msg string, err error) {
		logger.Error(msg, "error", err)
		flush()
		os.Exit(1)
	}

	logger.Info("Entity Emailer Lambda initializing (cold start)",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
	)

	ctx := context.Background()

	// Load AWS SDK configuration.
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		fail("Failed to load AWS SDK config", err)
	}
	endpoint := cfg.AWS.EndpointURL
	sqsClient := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	cwClient := cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	location, err := time.LoadLocation(cfg.Email.Timezone)
	if err != nil {
		fail("Failed to load legislation time zone", err)
	}

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		fail("Failed to open database pool", err)
	}
	defer pool.Close()

	// External services.
	httpClient := &http.Client{Timeout: cfg.Services.FetchTimeout}
	var (
		documents external.DocumentService
		payments  external.PaymentService
		contacts  external.ContactService
	)
	if cfg.Environment == "local" && cfg.Services.StubServices {
		logger.Warn("STUB_SERVICES set, using stub legal, pay and auth services")
		documents = external.NewStubDocumentService(logger)
		payments = external.NewStubPaymentService(logger)
		contacts = external.NewStubContactService(logger)
	} else {
		documents = external.NewLegalAPIClient(httpClient, external.LegalAPIClientConfig{
			BaseURL:   cfg.Services.LegalAPIURL,
			UserAgent: cfg.Services.UserAgent,
			Logger:    logger,
		})
		payments = external.NewPayAPIClient(httpClient, external.PayAPIClientConfig{
			BaseURL:   cfg.Services.PayAPIURL,
			UserAgent: cfg.Services.UserAgent,
			Logger:    logger,
		})
		if cfg.Services.AuthAPIURL != "" {
			contacts = external.NewAuthAPIClient(httpClient, external.AuthAPIClientConfig{
				BaseURL:   cfg.Services.AuthAPIURL,
				UserAgent: cfg.Services.UserAgent,
				Logger:    logger,
			})
		} else {
			logger.Warn("AUTH_API_URL not set, business contact fallback disabled")
		}
	}

	var tokens types.TokenSource
	switch {
	case !cfg.Auth.StaticToken.IsZero():
		tokens = external.NewStaticTokenSource(cfg.Auth.StaticToken)
	case cfg.Auth.TokenURL != "":
		tokens = external.NewServiceAccountTokenSource(&http.Client{Timeout: 10 * time.Second}, external.ServiceAccountConfig{
			TokenURL:     cfg.Auth.TokenURL,
			ClientID:     cfg.Auth.ClientID,
			ClientSecret: cfg.Auth.ClientSecret,
		})
	default:
		fail("No token source configured", fmt.Errorf("set KEYCLOAK_TOKEN_URL or SERVICE_TOKEN"))
	}

	// Templates come from S3 when a bucket is configured, else from disk.
	var store templates.Store
	if cfg.Email.TemplateBucket != "" {
		store = templates.NewS3Store(s3Client, cfg.Email.TemplateBucket, cfg.Email.TemplatePrefix)
	} else {
		store = templates.NewFSStore(os.DirFS(cfg.Email.TemplatePath))
	}

	// Monitoring.
	var hub *sentry.Hub
	if cfg.Observability.SentryDSN != "" {
		hub = sentry.CurrentHub()
	}
	monitor := monitoring.NewSink(logger, hub)

	var metrics interface {
		attachments.Metrics
		notification.Metrics
	} = monitoring.NopMetrics{}
	if cfg.Observability.EnableMetrics {
		metrics = monitoring.NewCloudWatchMetrics(cwClient, cfg.Observability.MetricNamespace, logging.NewAdapter(logger))
	}

	builder := notification.NewBuilder(notification.Deps{
		Filings:   filings.NewProvider(pool, location, cfg.Database.QueryTimeout),
		Templates: templates.NewResolver(store, cfg.Email.Jurisdiction),
		Fragments: store,
		Binder:    templates.NewBinder(cfg.Email.DashboardURL),
		Attachments: attachments.NewAssembler(attachments.Options{
			Documents: documents,
			Payments:  payments,
			Monitor:   monitor,
			Metrics:   metrics,
			Timeout:   cfg.Services.FetchTimeout,
		}),
		Recipients: recipients.NewResolver(contacts),
		Monitor:    monitor,
		Metrics:    metrics,
		Sender:     cfg.Email.Sender,
	})

	var publishOpts []queue.PublisherOption
	if cfg.AWS.AttachmentBucket != "" {
		publishOpts = append(publishOpts, queue.WithAttachmentStore(queue.NewS3AttachmentStore(
			s3Client, s3.NewPresignClient(s3Client),
			cfg.AWS.AttachmentBucket, cfg.AWS.AttachmentPrefix, cfg.AWS.AttachmentURLTTL,
		)))
	}
	publisher := queue.NewPublisher(sqsClient, cfg.AWS.DeliveryQueue, logger, publishOpts...)
	handler := NewHandler(builder, publisher, tokens, logger)

	logger.Info("Entity Emailer Lambda initialized",
		"delivery_queue", cfg.AWS.DeliveryQueue,
		"template_bucket", cfg.Email.TemplateBucket,
		"attachment_bucket", cfg.AWS.AttachmentBucket,
		"metric_namespace", cfg.Observability.MetricNamespace,
	)

	// Local mode: read JSON SQS event from stdin instead of starting Lambda runtime.
	// Usage: echo '{"Records":[{"messageId":"1","body":"{\"email\":{...}}"}]}' | go run ./cmd/entity-emailer
	if cfg.Environment == "local" {
		logger.Info("APP_ENV=local: reading SQS event from stdin")
		payload, err := io.ReadAll(os.Stdin)
		if err != nil {
			fail("Failed to read stdin", err)
		}
		if len(payload) == 0 {
			fail("No input received on stdin", io.ErrUnexpectedEOF)
		}
		var sqsEvent events.SQSEvent
		if err := json.Unmarshal(payload, &sqsEvent); err != nil {
			fail("Failed to parse stdin as SQS event", err)
		}
		response, err := handler.Handle(ctx, sqsEvent)
		if err != nil {
			fail("Handler execution failed", err)
		}
		if len(response.BatchItemFailures) > 0 {
			logger.Warn("Handler reported partial failures",
				"failed_count", len(response.BatchItemFailures),
			)
			respJSON, _ := json.MarshalIndent(response, "", "  ")
			fmt.Fprintln(os.Stderr, string(respJSON))
		}
		logger.Info("Handler execution completed",
			"records_processed", len(sqsEvent.Records),
			"failures", len(response.BatchItemFailures),
		)
		return
	}

	lambda.Start(handler.Handle)
}

// secretProvider resolves _SSM_PARAM references from SSM, or from plain
// environment variables when SECRETS_PROVIDER=env.
func secretProvider() config.SecretProvider {
	if os.Getenv("SECRETS_PROVIDER") == "env" {
		return config.NewEnvVarProvider()
	}
	return config.NewSSMProvider(os.Getenv("AWS_REGION"), os.Getenv("AWS_ENDPOINT_URL"))
}
