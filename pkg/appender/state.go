package appender

import "sync/atomic"

// State is a step of the appender lifecycle.
type State int32

const (
	StateUninitialized State = iota
	StateStarting
	StateStarted
	StateStopping
	StateStopped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateStarting:
		return "starting"
	case StateStarted:
		return "started"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "invalid"
	}
}

type atomicState struct {
	v atomic.Int32
}

func (s *atomicState) load() State   { return State(s.v.Load()) }
func (s *atomicState) store(v State) { s.v.Store(int32(v)) }

func (s *atomicState) swap(from, to State) bool {
	return s.v.CompareAndSwap(int32(from), int32(to))
}
