package core

import "time"

// Event is the interface for all loop events.
type Event interface {
	eventMarker()
}

// InvocationStarted is emitted before the handler is called.
type InvocationStarted struct {
	Invocation *Invocation
	Timestamp  time.Time
}

func (*InvocationStarted) eventMarker() {}

// InvocationCompleted is emitted when the handler returns without error.
type InvocationCompleted struct {
	Invocation *Invocation
	Duration   time.Duration
	Timestamp  time.Time
}

func (*InvocationCompleted) eventMarker() {}

// InvocationFailed is emitted when the handler returns an error or panics.
type InvocationFailed struct {
	Invocation *Invocation
	Error      error
	Timestamp  time.Time
}

func (*InvocationFailed) eventMarker() {}

// LoopTerminated is emitted once when the loop reaches its terminal state.
type LoopTerminated struct {
	Reason    string
	Timestamp time.Time
}

func (*LoopTerminated) eventMarker() {}
