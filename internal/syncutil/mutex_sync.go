//go:build !deadlock

// Package syncutil provides the mutexes used for shared device state.
// Build with -tags=deadlock to swap in the go-deadlock detector.
package syncutil

import "sync"

// DeadlockEnabled reports whether the deadlock detector is compiled in.
const DeadlockEnabled = false

type Mutex struct {
	sync.Mutex
}

type RWMutex struct {
	sync.RWMutex
}
