// Package handler adapts registered Go functions into single-argument
// callables that accept one invocation unit.
package handler
