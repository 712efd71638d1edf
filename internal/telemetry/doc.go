// Package telemetry owns the OpenTelemetry tracer and meter providers.
//
// When disabled, the global (no-op unless configured elsewhere) providers
// are used. When enabled, in-process SDK providers collect spans and metrics
// for the lifetime of the run so a summary can be logged before exit.
//
// Use TestTelemetry in tests:
//
//	tt := telemetry.NewTestTelemetry()
//	ctx, span := tt.Tracer("test").Start(ctx, "stage")
//	span.End()
//	tt.AssertSpanExists(t, "stage")
package telemetry
