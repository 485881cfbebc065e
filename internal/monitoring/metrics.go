package monitoring

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"entityemailer/internal/types"
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchMetrics emits the emailer's metrics:
//   - AttachmentFetch: Dims {Document, Result} -- on every attachment fetch
//   - NotificationBuilt: Dims {FilingType, Status, Result} -- on every build
//   - NotificationBuildLatency: Dims {FilingType} -- build duration
//
// Failures to publish are logged and otherwise ignored.
type CloudWatchMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    types.Logger
}

// NewCloudWatchMetrics creates a CloudWatchMetrics. An empty namespace means
// types.MetricNamespace.
func NewCloudWatchMetrics(client CloudWatchClient, namespace string, logger types.Logger) *CloudWatchMetrics {
	if namespace == "" {
		namespace = types.MetricNamespace
	}
	return &CloudWatchMetrics{client: client, namespace: namespace, logger: logger}
}

func dim(name, value string) cwtypes.Dimension {
	return cwtypes.Dimension{Name: aws.String(name), Value: aws.String(value)}
}

// RecordAttachment emits one AttachmentFetch count.
func (m *CloudWatchMetrics) RecordAttachment(ctx context.Context, document string, result string) {
	m.put(ctx, cwtypes.MetricDatum{
		MetricName: aws.String(types.MetricAttachmentFetch),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: []cwtypes.Dimension{
			dim(types.DimDocument, document),
			dim(types.DimResult, result),
		},
	})
}

// RecordBuild emits a NotificationBuilt count and the build latency in
// milliseconds.
func (m *CloudWatchMetrics) RecordBuild(ctx context.Context, filingType types.FilingType, status types.FilingStatus, result string, duration time.Duration) {
	m.put(ctx,
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricNotificationBuilt),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: []cwtypes.Dimension{
				dim(types.DimFilingType, string(filingType)),
				dim(types.DimStatus, string(status)),
				dim(types.DimResult, result),
			},
		},
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricBuildLatency),
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Dimensions: []cwtypes.Dimension{
				dim(types.DimFilingType, string(filingType)),
			},
		},
	)
}

func (m *CloudWatchMetrics) put(ctx context.Context, data ...cwtypes.MetricDatum) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to put metric data",
			"error", err.Error(),
			"metric", aws.ToString(data[0].MetricName),
		)
	}
}

// NopMetrics discards all metrics. Used when ENABLE_METRICS is false.
type NopMetrics struct{}

func (NopMetrics) RecordAttachment(context.Context, string, string) {}
func (NopMetrics) RecordBuild(context.Context, types.FilingType, types.FilingStatus, string, time.Duration) {
}
