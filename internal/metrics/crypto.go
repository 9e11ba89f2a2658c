package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CryptoMetrics records field encryption observability signals: operation
// counts, redacted reads, and reencryption sweep outcomes.
type CryptoMetrics interface {
	// RecordOperation records one field crypto operation with its status.
	// Operation examples: "encrypt", "decrypt", "beacon"
	// Status examples: "success", "error", "redacted"
	RecordOperation(ctx context.Context, contextKey, operation, status string)

	// RecordReencryption records the outcome of one model's reencryption
	// sweep: how many instances were found, how many arrived unencrypted,
	// and how many were rewritten.
	RecordReencryption(ctx context.Context, model string, found, unencrypted, reencrypted int64)

	// RecordDuration records the duration of a reencryption sweep per model.
	RecordDuration(ctx context.Context, model string, duration time.Duration, status string)
}

type cryptoMetrics struct {
	operationCounter   metric.Int64Counter
	reencryptedCounter metric.Int64Counter
	durationHisto      metric.Float64Histogram
}

// NewCryptoMetrics creates a CryptoMetrics implementation on the provided
// meter provider. The namespace parameter prefixes all metric names.
func NewCryptoMetrics(meterProvider metric.MeterProvider, namespace string) (CryptoMetrics, error) {
	meter := meterProvider.Meter(namespace)

	operationCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_crypto_operations_total", namespace),
		metric.WithDescription("Total number of field crypto operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	reencryptedCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_reencrypted_instances_total", namespace),
		metric.WithDescription("Total number of instances visited by reencryption sweeps"),
		metric.WithUnit("{instance}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reencryption counter: %w", err)
	}

	durationHisto, err := meter.Float64Histogram(
		fmt.Sprintf("%s_reencryption_duration_seconds", namespace),
		metric.WithDescription("Duration of per-model reencryption sweeps in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return &cryptoMetrics{
		operationCounter:   operationCounter,
		reencryptedCounter: reencryptedCounter,
		durationHisto:      durationHisto,
	}, nil
}

func (c *cryptoMetrics) RecordOperation(ctx context.Context, contextKey, operation, status string) {
	c.operationCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("context_key", contextKey),
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}

func (c *cryptoMetrics) RecordReencryption(ctx context.Context, model string, found, unencrypted, reencrypted int64) {
	for state, count := range map[string]int64{
		"found":       found,
		"unencrypted": unencrypted,
		"reencrypted": reencrypted,
	} {
		if count == 0 {
			continue
		}
		c.reencryptedCounter.Add(ctx, count,
			metric.WithAttributes(
				attribute.String("model", model),
				attribute.String("state", state),
			),
		)
	}
}

func (c *cryptoMetrics) RecordDuration(ctx context.Context, model string, duration time.Duration, status string) {
	c.durationHisto.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("model", model),
			attribute.String("status", status),
		),
	)
}

// NoOpCryptoMetrics is a no-op implementation for when metrics are disabled.
type NoOpCryptoMetrics struct{}

// NewNoOpCryptoMetrics creates a no-op CryptoMetrics implementation.
func NewNoOpCryptoMetrics() CryptoMetrics {
	return &NoOpCryptoMetrics{}
}

func (n *NoOpCryptoMetrics) RecordOperation(ctx context.Context, contextKey, operation, status string) {
}

func (n *NoOpCryptoMetrics) RecordReencryption(ctx context.Context, model string, found, unencrypted, reencrypted int64) {
}

func (n *NoOpCryptoMetrics) RecordDuration(ctx context.Context, model string, duration time.Duration, status string) {
}
