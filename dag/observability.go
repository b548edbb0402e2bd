package dag

import (
	"context"
	"time"

	"github.com/kbukum/starschema/errors"
	"github.com/kbukum/starschema/logger"
	"github.com/kbukum/starschema/observability"
)

// WithTracing wraps a Node with OpenTelemetry span creation.
// Each attempt creates a pipeline.stage span tagged with the node name.
func WithTracing(node Node) Node {
	return &tracingNode{inner: node}
}

type tracingNode struct {
	inner Node
}

func (n *tracingNode) Name() string { return n.inner.Name() }
func (n *tracingNode) Unwrap() Node { return n.inner }

func (n *tracingNode) Run(ctx context.Context) error {
	ctx, span := observability.StartSpan(ctx, observability.SpanStage)
	defer span.End()

	observability.SetSpanAttribute(ctx, observability.AttrStage, n.inner.Name())

	err := n.inner.Run(ctx)
	if err != nil {
		observability.SetSpanError(ctx, err)
		observability.SetSpanAttribute(ctx, observability.AttrErrorCode, string(errorCode(err)))
	}
	return err
}

// WithMetrics wraps a Node with metric recording.
// Records attempt count, duration, and errors by code.
func WithMetrics(node Node, metrics *observability.Metrics) Node {
	return &metricsNode{inner: node, metrics: metrics}
}

type metricsNode struct {
	inner   Node
	metrics *observability.Metrics
}

func (n *metricsNode) Name() string { return n.inner.Name() }
func (n *metricsNode) Unwrap() Node { return n.inner }

func (n *metricsNode) Run(ctx context.Context) error {
	n.metrics.RecordStageStart(ctx)
	start := time.Now()
	err := n.inner.Run(ctx)
	duration := time.Since(start)

	status := string(StatusSucceeded)
	if err != nil {
		status = string(StatusFailed)
		n.metrics.RecordStageError(ctx, n.inner.Name(), string(errorCode(err)))
	}
	n.metrics.RecordStageEnd(ctx, n.inner.Name(), status, duration)
	return err
}

// WithLogging wraps a Node with attempt logging.
// Logs: node name, duration, and success/error status.
func WithLogging(node Node, log *logger.Logger) Node {
	return &loggingNode{inner: node, log: log}
}

type loggingNode struct {
	inner Node
	log   *logger.Logger
}

func (n *loggingNode) Name() string { return n.inner.Name() }
func (n *loggingNode) Unwrap() Node { return n.inner }

func (n *loggingNode) Run(ctx context.Context) error {
	start := time.Now()
	err := n.inner.Run(ctx)

	fields := logger.MergeWithDuration(logger.Fields(logger.FieldStage, n.inner.Name()), time.Since(start))
	log := n.log.WithContext(ctx)
	if err != nil {
		fields["retryable"] = errors.IsRetryable(err)
		log.Error("dag node attempt failed", logger.MergeWithError(fields, err))
	} else {
		log.Debug("dag node attempt completed", fields)
	}
	return err
}
