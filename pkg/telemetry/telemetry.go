// Package telemetry wraps a Connection's Run/Pull calls in an
// OpenTelemetry span when the caller has a tracer configured, and is
// a complete no-op otherwise. Grounded in the teacher's go.mod already
// carrying go.opentelemetry.io/otel as a transitive dependency (pulled
// in via pkg/replication's cluster instrumentation); this package is
// the first in the module to call the API directly, covering the
// optional per-request tracing hook spec.md leaves to the
// collaborator.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/orneryd/boltclient/pkg/bolt"

// Tracer returns the module's named tracer from the globally
// configured OTel TracerProvider (a no-op provider if the caller
// never set one up, so this is always safe to call).
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// StartRun starts a span for one RUN+PULL/DISCARD cycle, tagging it
// with the negotiated Bolt version and the query text's length (never
// the query text itself, which may carry sensitive literals).
func StartRun(ctx context.Context, boltVersion string, cypherLen int) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "bolt.run",
		trace.WithAttributes(
			attribute.String("bolt.version", boltVersion),
			attribute.Int("bolt.cypher_length", cypherLen),
		),
	)
}

// RunSpan is StartRun against a caller-supplied tracer, the form
// bolt.ConnConfig.Tracer uses. A nil tracer returns a nil span, which
// End treats as a no-op.
func RunSpan(tr trace.Tracer, boltVersion string, cypherLen int) trace.Span {
	if tr == nil {
		return nil
	}
	_, span := tr.Start(context.Background(), "bolt.run",
		trace.WithAttributes(
			attribute.String("bolt.version", boltVersion),
			attribute.Int("bolt.cypher_length", cypherLen),
		),
	)
	return span
}

// StreamSpan starts a span for one PULL/DISCARD drain (op "pull" or
// "discard"), tagging it with the record-count request (-1 = all).
func StreamSpan(tr trace.Tracer, op, boltVersion string, n int) trace.Span {
	if tr == nil {
		return nil
	}
	_, span := tr.Start(context.Background(), "bolt."+op,
		trace.WithAttributes(
			attribute.String("bolt.version", boltVersion),
			attribute.Int("bolt.n", n),
		),
	)
	return span
}

// End records err on span (if any) and ends it. A nil span (from a
// nil tracer) is a no-op.
func End(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
