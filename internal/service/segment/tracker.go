// Package segment numbers utterance segments and tracks their lifecycle.
package segment

import (
	"errors"
	"fmt"
	"sync"
)

// State is the lifecycle state of one utterance segment.
type State int

const (
	// StateOpen accepts interim results and exactly one final.
	StateOpen State = iota
	// StateFinalized has received its final result.
	StateFinalized
	// StateClosed ended normally.
	StateClosed
	// StateDropped was abandoned without a final. Terminal.
	StateDropped
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateFinalized:
		return "FINALIZED"
	case StateClosed:
		return "CLOSED"
	case StateDropped:
		return "DROPPED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal reports whether no further results are accepted.
func (s State) IsTerminal() bool {
	return s == StateClosed || s == StateDropped
}

var (
	ErrSegmentClosed     = errors.New("segment is closed")
	ErrAlreadyFinalized  = errors.New("segment already has a final result")
	ErrInterimAfterFinal = errors.New("interim result after final")
)

// Tracker follows a single utterance from its first interim result to its
// final one. It is safe for concurrent use.
//
//	OPEN --Interim()*--> OPEN --Finalize()--> FINALIZED --Close()--> CLOSED
//	  \________________________ Drop() ________________________/--> DROPPED
type Tracker struct {
	mu       sync.RWMutex
	id       string
	state    State
	interim  string
	interims int
}

// NewTracker returns an OPEN tracker for segment id.
func NewTracker(id string) *Tracker {
	return &Tracker{id: id, state: StateOpen}
}

func (t *Tracker) ID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.id
}

func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// InterimText is the latest interim hypothesis, empty once finalized.
func (t *Tracker) InterimText() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.interim
}

// Interims counts interim results accepted for this segment.
func (t *Tracker) Interims() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.interims
}

// Interim records a new interim hypothesis, replacing the previous one.
func (t *Tracker) Interim(text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case StateOpen:
		t.interim = text
		t.interims++
		return nil
	case StateFinalized:
		return ErrInterimAfterFinal
	default:
		return ErrSegmentClosed
	}
}

// Finalize moves the segment to FINALIZED and clears its interim text.
func (t *Tracker) Finalize() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case StateOpen:
		t.state = StateFinalized
		t.interim = ""
		return nil
	case StateFinalized:
		return ErrAlreadyFinalized
	default:
		return ErrSegmentClosed
	}
}

// Close ends the segment. Idempotent.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StateClosed
	t.interim = ""
}

// Drop abandons the segment without a final. It returns false when the
// segment was already terminal.
func (t *Tracker) Drop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.IsTerminal() {
		return false
	}
	t.state = StateDropped
	t.interim = ""
	return true
}

// Next reopens the tracker for a new segment id.
func (t *Tracker) Next(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.id = id
	t.state = StateOpen
	t.interim = ""
	t.interims = 0
}
