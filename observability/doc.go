// Package observability provides OpenTelemetry tracing and metrics setup
// for storagekit, along with small helpers for span attributes.
//
// Applications initialize the providers once at startup:
//
//	tp, _ := observability.InitTracer(ctx, observability.DefaultTracerConfig("storage-service"))
//	defer tp.Shutdown(ctx)
//
// Instrumented code then uses StartSpan / SetSpanAttribute without touching
// the SDK directly.
package observability
