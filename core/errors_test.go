package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatchExhaustedError_ListsAllAttempts(t *testing.T) {
	err := &DispatchExhaustedError{
		TaskID: "t1",
		Attempts: []Attempt{
			{HandlerID: "a", HandlerName: "Alpha", Reason: "timeout"},
			{HandlerID: "b", HandlerName: "Beta", Reason: "no data"},
		},
	}

	msg := err.Error()
	assert.Contains(t, msg, "Alpha: timeout")
	assert.Contains(t, msg, "Beta: no data")
}

func TestDuplicateHandlerError_IsSentinel(t *testing.T) {
	err := fmt.Errorf("register: %w", &DuplicateHandlerError{HandlerID: "h"})
	assert.True(t, errors.Is(err, ErrDuplicateHandler))
	assert.Contains(t, err.Error(), "h is already registered")
}

func TestHandlerExecutionError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := fmt.Errorf("dispatch: %w", &HandlerExecutionError{HandlerID: "h", Err: inner})

	var execErr *HandlerExecutionError
	assert.True(t, errors.As(err, &execErr))
	assert.Equal(t, "h", execErr.HandlerID)
	assert.True(t, errors.Is(err, inner))
}

func TestRoutingFailureError_Message(t *testing.T) {
	assert.Contains(t, (&RoutingFailureError{TaskID: "t"}).Error(), "no routing rule matched")
	assert.Contains(t,
		(&RoutingFailureError{TaskID: "t", Tags: []string{"inventory_management"}}).Error(),
		"inventory_management")
}

func TestDomainSkippedError_Unwrap(t *testing.T) {
	inner := &DispatchExhaustedError{TaskID: "t"}
	err := &DomainSkippedError{Domain: "forecasting", Err: inner}

	var exhausted *DispatchExhaustedError
	assert.True(t, errors.As(err, &exhausted))
	assert.Contains(t, err.Error(), "forecasting")
}
