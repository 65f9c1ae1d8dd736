// Package client is the remote gateway of the diary app.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract (see the Client interface): Ping, List,
//     Create, Delete and Analyze.
//  2. A REST implementation (see HTTPClient) built on resty. It sends the
//     X-API-Key header, applies a per-request timeout, retries transient
//     failures with exponential backoff and maps HTTP statuses to sentinel
//     errors.
//  3. A development decorator (see DevFallback) that answers with canned
//     data whenever the backend fails, so the app is usable without one.
//
// # Error Handling
//
// Conditions are exposed as sentinel errors that callers match with
// errors.Is: ErrUnavailable, ErrUnauthorized, ErrNotFound, ErrBadRequest,
// ErrRemote. Transient reports whether a failure may succeed on retry.
//
// All operations accept context.Context and honor cancellation.
package client
