package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Outcome labels recorded on spans and metrics.
const (
	OutcomeSuccess   = "success"
	OutcomeError     = "error"
	OutcomeCancelled = "cancelled"
)

// CallSpan tracks one client call: a span plus in-flight and completion
// metrics. A nil *Metrics disables metric recording.
type CallSpan struct {
	span     trace.Span
	metrics  *Metrics
	method   string
	strategy string
	start    time.Time
}

// StartCall starts the call span and records the call start.
func StartCall(ctx context.Context, metrics *Metrics, method, url, strategy string) (context.Context, *CallSpan) {
	ctx, span := StartSpan(ctx, SpanCall,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(AttrMethod, method),
			attribute.String(AttrURL, url),
			attribute.String(AttrStrategy, strategy),
		),
	)
	if metrics != nil {
		metrics.RecordCallStart(ctx)
	}
	return ctx, &CallSpan{
		span:     span,
		metrics:  metrics,
		method:   method,
		strategy: strategy,
		start:    time.Now(),
	}
}

// SetAttributes adds attributes to the call span.
func (c *CallSpan) SetAttributes(attrs ...attribute.KeyValue) {
	c.span.SetAttributes(attrs...)
}

// Retry records a re-issued request.
func (c *CallSpan) Retry(ctx context.Context, attempt int) {
	c.span.AddEvent("retry", trace.WithAttributes(attribute.Int(AttrAttempt, attempt)))
	if c.metrics != nil {
		c.metrics.RecordRetry(ctx, c.method)
	}
}

// End closes the span with outcome and records completion metrics.
// errCode labels the failure and is ignored when err is nil.
func (c *CallSpan) End(ctx context.Context, outcome string, err error, errCode string) time.Duration {
	d := time.Since(c.start)
	c.span.SetAttributes(attribute.String(AttrOutcome, outcome))
	if err != nil {
		c.span.RecordError(err)
		c.span.SetStatus(codes.Error, err.Error())
		if errCode != "" {
			c.span.SetAttributes(attribute.String(AttrErrorCode, errCode))
		}
	}
	c.span.End()

	if c.metrics != nil {
		// The call context may already be cancelled; metrics still record.
		c.metrics.RecordCallEnd(context.WithoutCancel(ctx), c.method, c.strategy, outcome, d)
	}
	return d
}
