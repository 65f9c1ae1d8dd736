// Package cli provides the interactive diary shell.
//
// It wires the engine (entry repository, draft controller, preferences) to a
// line-oriented REPL and tracks connectivity in the background: when the
// backend becomes reachable again, pending creates and deletes are retried
// and the collection is refreshed.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher and runREPL for details.
package cli
