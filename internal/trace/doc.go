// Package trace provides the tracing subsystem of glint.
//
// It tracks checked documents and pipeline stages to help diagnose slow or
// stuck runs.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	glint check --trace=- --trace-level=detail views/
//
// # Architecture
//
// The package provides several tracer implementations:
//
//   - Nop: zero-overhead no-op tracer when disabled
//   - StreamTracer: immediate write to output (file/stderr)
//   - RingTracer: circular buffer for crash dumps
//   - MultiTracer: combines multiple tracers
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: only crash dumps
//   - LevelPhase: runs and documents
//   - LevelDetail: pipeline stages (transpile, extract, normalize, assemble)
//   - LevelDebug: everything including dropped nodes
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeStage, "transpile", parentID)
//	defer span.End("")
package trace
