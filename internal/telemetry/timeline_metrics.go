package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	reconcileCounter  metric.Int64Counter
	reconcileDuration metric.Float64Histogram
	reconcileDelta    metric.Int64Histogram

	reconcileErrorCounter metric.Int64Counter
)

// InitTimelineMetrics initializes timeline reconciliation metrics
func InitTimelineMetrics() error {
	meter := otel.Meter("planbox.timeline")

	var err error

	reconcileCounter, err = meter.Int64Counter(
		"timeline.reconcile.count",
		metric.WithDescription("Number of timeline reconciliation operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return err
	}

	reconcileDuration, err = meter.Float64Histogram(
		"timeline.reconcile.duration",
		metric.WithDescription("Duration of timeline reconciliation operations"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	reconcileDelta, err = meter.Int64Histogram(
		"timeline.reconcile.delta",
		metric.WithDescription("Events touched per reconciliation (upserts + deletes)"),
		metric.WithUnit("{events}"),
	)
	if err != nil {
		return err
	}

	reconcileErrorCounter, err = meter.Int64Counter(
		"timeline.reconcile.errors",
		metric.WithDescription("Number of timeline reconciliation errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// RecordReconcileSuccess records a successful reconciliation
func RecordReconcileSuccess(ctx context.Context, durationMs float64, upserts, deletes int64) {
	if reconcileCounter != nil {
		reconcileCounter.Add(ctx, 1,
			metric.WithAttributes(attribute.String("status", "success")),
		)
	}

	if reconcileDuration != nil {
		reconcileDuration.Record(ctx, durationMs,
			metric.WithAttributes(attribute.String("status", "success")),
		)
	}

	if reconcileDelta != nil {
		reconcileDelta.Record(ctx, upserts+deletes,
			metric.WithAttributes(
				attribute.Int64("upserts", upserts),
				attribute.Int64("deletes", deletes),
			),
		)
	}
}

// RecordReconcileError records a reconciliation error
func RecordReconcileError(ctx context.Context, errorType string, durationMs float64) {
	if reconcileErrorCounter != nil {
		reconcileErrorCounter.Add(ctx, 1,
			metric.WithAttributes(attribute.String("error_type", errorType)),
		)
	}

	if reconcileDuration != nil {
		reconcileDuration.Record(ctx, durationMs,
			metric.WithAttributes(
				attribute.String("status", "error"),
				attribute.String("error_type", errorType),
			),
		)
	}
}
