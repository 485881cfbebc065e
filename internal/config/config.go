// Package config defines the configuration of the entity emailer. It is
// loaded once at cold start and never mutated; components receive only the
// sub-struct they need.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> AWS SSM Parameter Store (Lowest)
package config

import (
	"time"

	"entityemailer/internal/types"
)

// SecretString is an alias for types.SecretString.
type SecretString = types.SecretString

// Config is the top-level configuration struct.
type Config struct {
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev test prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"entity-emailer"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Email         EmailConfig
	Services      ServicesConfig
	Auth          AuthConfig
	Database      DatabaseConfig
	AWS           AWSConfig
	Observability ObservabilityConfig

	Build BuildInfo
}

// EmailConfig holds template storage and content settings.
type EmailConfig struct {
	// TemplatePath is a local directory of templates. Ignored when
	// TemplateBucket is set.
	TemplatePath   string `envconfig:"TEMPLATE_PATH" default:"templates"`
	TemplateBucket string `envconfig:"TEMPLATE_BUCKET"`
	TemplatePrefix string `envconfig:"TEMPLATE_PREFIX"`
	Jurisdiction   string `envconfig:"TEMPLATE_JURISDICTION" default:"BC" validate:"required,alpha"`

	Sender       string `envconfig:"EMAIL_SENDER" default:"BCRegistries@gov.bc.ca" validate:"required,email"`
	DashboardURL string `envconfig:"DASHBOARD_URL" validate:"required,url"`
	Timezone     string `envconfig:"LEGISLATION_TIMEZONE" default:"America/Vancouver" validate:"required,timezone"`
}

// ServicesConfig holds the collaborator API endpoints (no trailing slash).
type ServicesConfig struct {
	LegalAPIURL  string        `envconfig:"LEGAL_API_URL" validate:"required,url"`
	PayAPIURL    string        `envconfig:"PAY_API_URL" validate:"required,url"`
	AuthAPIURL   string        `envconfig:"AUTH_API_URL" validate:"omitempty,url"`
	FetchTimeout time.Duration `envconfig:"DOCUMENT_FETCH_TIMEOUT" default:"30s" validate:"gt=0"`
	UserAgent    string        `envconfig:"HTTP_USER_AGENT" default:"entity-emailer/1.0"`

	// StubServices replaces the legal, pay and auth clients with local stubs.
	// Only honoured when APP_ENV=local.
	StubServices bool `envconfig:"STUB_SERVICES" default:"false"`
}

// AuthConfig holds the service account used to obtain bearer tokens.
// StaticToken short-circuits the client credentials flow for local runs; one
// of TokenURL or StaticToken must be set.
type AuthConfig struct {
	TokenURL     string       `envconfig:"KEYCLOAK_TOKEN_URL" validate:"omitempty,url"`
	ClientID     string       `envconfig:"KEYCLOAK_CLIENT_ID" validate:"required_with=TokenURL"`
	ClientSecret SecretString `envconfig:"KEYCLOAK_CLIENT_SECRET"`
	StaticToken  SecretString `envconfig:"SERVICE_TOKEN"`
}

// DatabaseConfig holds the filing store connection and pool tuning.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required"`

	MaxConns        int32         `envconfig:"DB_MAX_CONNS" default:"4"`
	MinConns        int32         `envconfig:"DB_MIN_CONNS" default:"0"`
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	QueryTimeout    time.Duration `envconfig:"DB_QUERY_TIMEOUT" default:"5s"`
}

// AWSConfig holds AWS resource identifiers and regional configuration.
type AWSConfig struct {
	Region        string `envconfig:"AWS_REGION" default:"ca-central-1"`
	DeliveryQueue string `envconfig:"SQS_DELIVERY_QUEUE" validate:"required,url"`

	// AttachmentBucket receives attachment documents when a message would
	// exceed the SQS size limit. Left empty, such messages are rejected.
	AttachmentBucket string        `envconfig:"ATTACHMENT_BUCKET"`
	AttachmentPrefix string        `envconfig:"ATTACHMENT_PREFIX" default:"attachments"`
	AttachmentURLTTL time.Duration `envconfig:"ATTACHMENT_URL_TTL" default:"24h" validate:"gt=0"`

	// LocalStack support (empty in prod).
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// ObservabilityConfig holds telemetry and alerting settings.
type ObservabilityConfig struct {
	SentryDSN       string `envconfig:"SENTRY_DSN"`
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"EntityEmailer"`
	EnableMetrics   bool   `envconfig:"ENABLE_METRICS" default:"true"`
}

// BuildInfo holds build-time metadata injected via ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	ErrMissingEnv    ConfigErrorType = "MISSING_ENV"
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	ErrValidation    ConfigErrorType = "VALIDATION_FAILED"
	ErrParsing       ConfigErrorType = "PARSING_FAILED"
)
