// Package trace records spans for the phases of a stagec run.
//
// A Tracer is carried in a context.Context; passes open spans against the
// tracer and parent span found there:
//
//	span, ctx := trace.Start(ctx, trace.ScopePass, "scopes")
//	defer span.End("")
//
// Levels select which scopes are emitted: phase shows driver and pass
// spans, detail adds unit spans, debug shows everything. StreamTracer
// writes each event as it happens, in text or NDJSON form.
package trace
