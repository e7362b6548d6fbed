// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("accounts/auth")

func startSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "auth."+operation,
		trace.WithAttributes(attribute.String("auth.operation", operation)),
	)
}

// record reports an outcome to the Recorder and tags the current span.
func (c *serviceConfig) record(ctx context.Context, operation, outcome string) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String("auth.outcome", outcome))
	if outcome == OutcomeError {
		span.SetStatus(codes.Error, operation+" failed")
	}
	c.recorder.RecordOutcome(operation, outcome)
}
