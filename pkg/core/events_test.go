package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInvocationStarted_ImplementsEvent(t *testing.T) {
	var e Event = &InvocationStarted{
		Invocation: &Invocation{ID: "test"},
		Timestamp:  time.Now(),
	}
	assert.NotNil(t, e)
}

func TestInvocationCompleted_ImplementsEvent(t *testing.T) {
	var e Event = &InvocationCompleted{
		Invocation: &Invocation{ID: "test"},
		Duration:   time.Second,
		Timestamp:  time.Now(),
	}
	assert.NotNil(t, e)
}

func TestInvocationFailed_ImplementsEvent(t *testing.T) {
	var e Event = &InvocationFailed{
		Invocation: &Invocation{ID: "test", Status: StatusFailed},
		Error:      errors.New("bad input"),
		Timestamp:  time.Now(),
	}
	assert.NotNil(t, e)
}

func TestLoopTerminated_ImplementsEvent(t *testing.T) {
	var e Event = &LoopTerminated{Reason: "end-of-input", Timestamp: time.Now()}
	assert.NotNil(t, e)
}

func TestInvocation_Failed(t *testing.T) {
	assert.True(t, (&Invocation{Status: StatusFailed}).Failed())
	assert.False(t, (&Invocation{Status: StatusCompleted}).Failed())
}

func TestLocator_String(t *testing.T) {
	loc := Locator{Raw: "file:///tmp/echo.go?handler=echo", Scheme: SchemeFile}
	assert.Equal(t, "file:///tmp/echo.go?handler=echo", loc.String())
}
