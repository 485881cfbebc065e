package types

// Telemetry metric names for CloudWatch.
const (
	MetricAttachmentFetch   = "AttachmentFetch"
	MetricNotificationBuilt = "NotificationBuilt"
	MetricBuildLatency      = "NotificationBuildLatency"

	DimDocument   = "Document"
	DimResult     = "Result"
	DimFilingType = "FilingType"
	DimStatus     = "Status"

	// Default namespace; overridden by METRIC_NAMESPACE.
	MetricNamespace = "EntityEmailer"
)

// Metric result dimension values.
const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
)
