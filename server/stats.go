package server

import (
	"fmt"
	"sync/atomic"
)

// AtomicInt is a thread-safe counter. Session workers and the stats API
// touch it concurrently; it is never used for admission decisions.
type AtomicInt struct {
	value int64
}

func NewAtomicInt(value int64) *AtomicInt {
	return &AtomicInt{
		value: value,
	}
}

func (a *AtomicInt) String() string {
	return fmt.Sprintf("%d", a.Get())
}

func (a *AtomicInt) Get() int64 {
	return atomic.LoadInt64(&a.value)
}

func (a *AtomicInt) Increment() {
	atomic.AddInt64(&a.value, 1)
}

func (a *AtomicInt) Decrement() {
	atomic.AddInt64(&a.value, -1)
}

// Stats are the host's live counters, shared by every session worker.
type Stats struct {
	ActiveSessions *AtomicInt
	TotalSessions  *AtomicInt
	RoundsPlayed   *AtomicInt
}

func NewStats() *Stats {
	return &Stats{
		ActiveSessions: NewAtomicInt(0),
		TotalSessions:  NewAtomicInt(0),
		RoundsPlayed:   NewAtomicInt(0),
	}
}
