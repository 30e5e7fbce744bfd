package stateflow

import (
	"errors"
	"fmt"
)

// Sentinel errors for executor lifecycle.
var (
	// ErrExecutorRunning indicates Run() was called on a loop that is already running.
	ErrExecutorRunning = errors.New("executor already running")

	// ErrExecutorStopped indicates the executor was stopped and cannot run tasks.
	ErrExecutorStopped = errors.New("executor stopped")
)

// ContractError describes a programming defect detected by the runtime:
// a state that returned no directive, a ticket released twice, a barrier
// released past zero. These are never returned; the runtime panics with
// them because no caller can recover a flow whose invariants are broken.
type ContractError struct {
	// Component is the object that detected the defect ("flow", "barrier", ...).
	Component string
	// Name identifies the instance, when it has one.
	Name string
	// Msg describes the violated contract.
	Msg string
}

// Error implements the error interface.
func (e *ContractError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("stateflow: %s: %s", e.Component, e.Msg)
	}
	return fmt.Sprintf("stateflow: %s %s: %s", e.Component, e.Name, e.Msg)
}

// violation panics with a ContractError.
func violation(component, name, msg string) {
	panic(&ContractError{Component: component, Name: name, Msg: msg})
}
