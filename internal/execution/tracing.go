// Tracing instrumentation for the simulated collaborator.
package execution

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"maestro/internal/strategy"
)

func tracer() trace.Tracer {
	return otel.Tracer("maestro/execution")
}

// startExecutionSpan starts a span covering a whole execution.
func startExecutionSpan(ctx context.Context, opt strategy.Option) (context.Context, trace.Span) {
	ctx, span := tracer().Start(ctx, "execution.run")
	span.SetAttributes(
		attribute.String("option.name", opt.Name),
		attribute.String("option.strategy", opt.Strategy),
		attribute.Float64("option.cost", opt.Cost),
		attribute.Int("option.volume", opt.Volume),
	)
	return ctx, span
}

// endExecutionSpan ends the execution span with result info.
func endExecutionSpan(span trace.Span, res *Result, err error) {
	if res != nil {
		span.SetAttributes(
			attribute.Float64("result.actual_cost", res.ActualCost),
			attribute.Float64("result.actual_quality", res.ActualQuality),
			attribute.Int("result.processed", res.Processed),
		)
	}
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}

// startPhaseSpan starts a span for one execution phase.
func startPhaseSpan(ctx context.Context, phase string, units int) (context.Context, trace.Span) {
	ctx, span := tracer().Start(ctx, "execution.phase")
	span.SetAttributes(
		attribute.String("phase.name", phase),
		attribute.Int("phase.units", units),
	)
	return ctx, span
}

// endPhaseSpan ends the phase span.
func endPhaseSpan(span trace.Span, succeeded int, err error) {
	span.SetAttributes(attribute.Int("phase.succeeded", succeeded))
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}
