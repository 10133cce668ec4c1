package system

import (
	"errors"
	"fmt"
	"slices"
)

// SystemState is the lifecycle phase of the endpoint as a whole. Individual
// devices have no state of their own beyond streaming on/off.
type SystemState int

const (
	StateInitializing SystemState = iota
	StateRunning
	StateReloading
	StateStopping
	StateStopped
	StateError
)

var ErrInvalidTransition = errors.New("invalid state transition")

var stateNames = [...]string{
	StateInitializing: "INITIALIZING",
	StateRunning:      "RUNNING",
	StateReloading:    "RELOADING",
	StateStopping:     "STOPPING",
	StateStopped:      "STOPPED",
	StateError:        "ERROR",
}

// transitions lists the successors of every state. A failed reload lands in
// StateError, from where another reload or a shutdown is still possible.
var transitions = map[SystemState][]SystemState{
	StateInitializing: {StateRunning, StateError},
	StateRunning:      {StateReloading, StateStopping, StateError},
	StateReloading:    {StateRunning, StateStopping, StateError},
	StateStopping:     {StateStopped, StateError},
	StateStopped:      {StateInitializing},
	StateError:        {StateInitializing, StateReloading, StateStopping, StateStopped},
}

func (s SystemState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

func (s SystemState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CanTransition reports whether to is a legal successor of s.
func (s SystemState) CanTransition(to SystemState) bool {
	return slices.Contains(transitions[s], to)
}

func ValidateTransition(from, to SystemState) error {
	if _, known := transitions[from]; !known {
		return fmt.Errorf("%w: unknown current state %s", ErrInvalidTransition, from)
	}
	if !from.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
