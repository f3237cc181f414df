// Package loop provides the invocation loop.
//
// The loop is a two-state machine. It starts in StateReading and reads one
// line at a time from its input, calling the resolved handler synchronously
// for each line. Handler errors and panics are reported on the diagnostics
// stream and the loop keeps reading. The loop moves to StateTerminated on
// end of input, on interruption (context cancellation) or on a read error.
//
// Most users should import the root package github.com/jdziat/simple-function-invoker
// which wires the loop to the process streams and signals.
package loop
