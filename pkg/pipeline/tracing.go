package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/matzehuels/bandorder/pkg/observability"
)

var tracer = otel.Tracer("github.com/matzehuels/bandorder/pkg/pipeline")

func traceError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// phaseObserver forwards engine phase boundaries to the span and the
// pipeline hooks.
type phaseObserver struct {
	ctx  context.Context
	span trace.Span
}

func (o phaseObserver) PhaseStarted(phase string) {
	o.span.AddEvent("phase.start", trace.WithAttributes(attribute.String("phase", phase)))
}

func (o phaseObserver) PhaseFinished(phase string, elapsed time.Duration) {
	o.span.AddEvent("phase.end", trace.WithAttributes(
		attribute.String("phase", phase),
		attribute.Int64("duration_us", elapsed.Microseconds()),
	))
	observability.Pipeline().OnPhaseComplete(o.ctx, phase, elapsed)
}
