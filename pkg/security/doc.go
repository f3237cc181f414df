// Package security provides validation, sanitization, and limits for the invoker.
//
// It guards the names that reach the handler registry and bounds what the
// invocation loop reads and what the journal stores.
package security
