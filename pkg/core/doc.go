// Package core provides the fundamental types and interfaces for the invoker.
//
// This package contains:
//   - Locator and artifact kinds produced by locator parsing
//   - The Invocation record with GORM annotations
//   - The Journal interface defining the persistence contract
//   - Event types emitted by the invocation loop
//   - Error types for resolution and invocation
//
// Most users should import the root package github.com/jdziat/simple-function-invoker
// instead of this package directly.
package core
