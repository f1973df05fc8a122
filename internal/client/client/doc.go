// Package client contains client-side building blocks for smallwins.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface) to talk
//     to the smallwins backend: moment lookup by server or client id,
//     creation, enrichment requests, favorite updates, delete and restore.
//  2. A concrete HTTP implementation (see HTTPClient) that talks JSON over
//     HTTP, attaches the anonymous user identity header to every request,
//     retries transient server errors with a bounded constant backoff, and
//     maps HTTP status codes and wire error codes to sentinel errors.
//  3. Local persistence bootstrap utilities (InitDatabase, RunMigrations),
//     wiring an SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Expected conditions are exposed as sentinel errors that callers can match
// with errors.Is: ErrNotFound, ErrEnrichInProgress, ErrDailyLimitReached,
// ErrTotalLimitReached, ErrUnavailable. Note that ErrNotFound and
// ErrEnrichInProgress are control-flow signals rather than failures: the
// first means "create it", the second means "poll again later".
//
// Concurrency & Contexts
//
// Implementations should be safe for concurrent use unless stated otherwise.
// All operations accept context.Context and must honor cancellation/timeouts.
package client
