// Package context carries the invocation in flight through context.Context.
//
// This package is internal; handlers use the public invctx package.
package context
