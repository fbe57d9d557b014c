// Package observability provides structured logging and dispatch metrics.
//
// This package implements:
//   - zap logger construction from level/format settings
//   - An in-memory outcome recorder keyed by provider and error category
//
// The dispatcher records one outcome per provider call.
package observability
