package relay

import (
	"sync"

	"github.com/wal-g/relaysum/internal/checksum"
)

// Handoff is the exclusive handle of an accumulator travelling along a relay.
// Exactly one holder can use it: seeding a stage or finalizing consumes it,
// and the stage that produced it no longer references the accumulator.
type Handoff struct {
	mu        sync.Mutex
	calc      checksum.Calculator
	algorithm checksum.Algorithm
}

// NewHandoff returns a handle to a fresh accumulator.
func NewHandoff(algorithm checksum.Algorithm) (*Handoff, error) {
	calc, err := checksum.NewCalculator(algorithm)
	if err != nil {
		return nil, err
	}
	return newHandoff(calc), nil
}

// RestoreHandoff rebuilds a handle from a State snapshot.
func RestoreHandoff(algorithm checksum.Algorithm, state []byte, written int64) (*Handoff, error) {
	calc, err := checksum.RestoreCalculator(algorithm, state, written)
	if err != nil {
		return nil, err
	}
	return newHandoff(calc), nil
}

func newHandoff(calc checksum.Calculator) *Handoff {
	return &Handoff{calc: calc, algorithm: calc.Algorithm()}
}

func (handoff *Handoff) Algorithm() checksum.Algorithm {
	return handoff.algorithm
}

// Written returns the number of bytes the accumulator has seen, or -1 once consumed.
func (handoff *Handoff) Written() int64 {
	handoff.mu.Lock()
	defer handoff.mu.Unlock()
	if handoff.calc == nil {
		return -1
	}
	return handoff.calc.Written()
}

// Consumed reports whether the handle was already passed on or finalized.
func (handoff *Handoff) Consumed() bool {
	handoff.mu.Lock()
	defer handoff.mu.Unlock()
	return handoff.calc == nil
}

// Finalize consumes the handle and returns the digest of every byte the relay has seen.
func (handoff *Handoff) Finalize() (checksum.Digest, error) {
	calc, err := handoff.take()
	if err != nil {
		return checksum.Digest{}, err
	}
	return calc.Finalize()
}

// State snapshots the accumulator without consuming the handle.
func (handoff *Handoff) State() ([]byte, error) {
	handoff.mu.Lock()
	defer handoff.mu.Unlock()
	if handoff.calc == nil {
		return nil, NewProtocolViolationError("handoff of %s accumulator is already consumed", handoff.algorithm)
	}
	return checksum.MarshalState(handoff.calc)
}

func (handoff *Handoff) take() (checksum.Calculator, error) {
	handoff.mu.Lock()
	defer handoff.mu.Unlock()
	if handoff.calc == nil {
		return nil, NewProtocolViolationError("handoff of %s accumulator is already consumed", handoff.algorithm)
	}
	calc := handoff.calc
	handoff.calc = nil
	return calc, nil
}
