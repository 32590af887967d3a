package segment

import "testing"

func TestTracker_InitialState(t *testing.T) {
	tr := NewTracker("seg-1")

	if tr.State() != StateOpen {
		t.Errorf("expected StateOpen, got %v", tr.State())
	}
	if tr.ID() != "seg-1" {
		t.Errorf("expected seg-1, got %v", tr.ID())
	}
	if tr.InterimText() != "" {
		t.Errorf("expected empty interim text, got %q", tr.InterimText())
	}
}

func TestTracker_InterimReplacesPrevious(t *testing.T) {
	tr := NewTracker("seg-1")

	for _, text := range []string{"i", "i want", "i want to"} {
		if err := tr.Interim(text); err != nil {
			t.Fatalf("Interim(%q): unexpected error: %v", text, err)
		}
	}

	if tr.InterimText() != "i want to" {
		t.Errorf("expected latest interim, got %q", tr.InterimText())
	}
	if tr.Interims() != 3 {
		t.Errorf("expected 3 interims, got %d", tr.Interims())
	}
}

func TestTracker_FinalizeOnlyOnce(t *testing.T) {
	tr := NewTracker("seg-1")
	tr.Interim("partial")

	if err := tr.Finalize(); err != nil {
		t.Fatalf("first finalize: unexpected error: %v", err)
	}
	if tr.InterimText() != "" {
		t.Errorf("expected interim cleared on finalize, got %q", tr.InterimText())
	}
	if err := tr.Finalize(); err != ErrAlreadyFinalized {
		t.Errorf("second finalize: expected ErrAlreadyFinalized, got %v", err)
	}
	if err := tr.Interim("late"); err != ErrInterimAfterFinal {
		t.Errorf("expected ErrInterimAfterFinal, got %v", err)
	}
}

func TestTracker_OperationsFailWhenTerminal(t *testing.T) {
	for _, end := range []func(*Tracker){
		func(tr *Tracker) { tr.Close() },
		func(tr *Tracker) { tr.Drop() },
	} {
		tr := NewTracker("seg-1")
		end(tr)

		if err := tr.Interim("x"); err != ErrSegmentClosed {
			t.Errorf("Interim: expected ErrSegmentClosed, got %v", err)
		}
		if err := tr.Finalize(); err != ErrSegmentClosed {
			t.Errorf("Finalize: expected ErrSegmentClosed, got %v", err)
		}
	}
}

func TestTracker_Drop(t *testing.T) {
	tr := NewTracker("seg-1")
	tr.Interim("half an utter")

	if !tr.Drop() {
		t.Error("expected Drop() to succeed from OPEN")
	}
	if tr.State() != StateDropped {
		t.Errorf("expected StateDropped, got %v", tr.State())
	}
	if tr.Drop() {
		t.Error("expected second Drop() to return false")
	}

	closed := NewTracker("seg-2")
	closed.Close()
	if closed.Drop() {
		t.Error("expected Drop() to return false from CLOSED")
	}
	if closed.State() != StateClosed {
		t.Errorf("expected StateClosed, got %v", closed.State())
	}
}

func TestTracker_Next(t *testing.T) {
	tr := NewTracker("seg-1")
	tr.Interim("a")
	tr.Finalize()
	tr.Close()

	tr.Next("seg-2")

	if tr.ID() != "seg-2" {
		t.Errorf("expected seg-2, got %v", tr.ID())
	}
	if tr.State() != StateOpen {
		t.Errorf("expected StateOpen after Next, got %v", tr.State())
	}
	if tr.Interims() != 0 {
		t.Errorf("expected interim count reset, got %d", tr.Interims())
	}
	if err := tr.Interim("b"); err != nil {
		t.Errorf("expected interim accepted after Next, got %v", err)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{StateOpen, "OPEN"},
		{StateFinalized, "FINALIZED"},
		{StateClosed, "CLOSED"},
		{StateDropped, "DROPPED"},
		{State(99), "UNKNOWN(99)"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.expected {
			t.Errorf("State(%d).String() = %v, want %v", tt.state, got, tt.expected)
		}
	}
}

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state      State
		isTerminal bool
	}{
		{StateOpen, false},
		{StateFinalized, false},
		{StateClosed, true},
		{StateDropped, true},
	}

	for _, tt := range tests {
		if got := tt.state.IsTerminal(); got != tt.isTerminal {
			t.Errorf("State(%s).IsTerminal() = %v, want %v", tt.state, got, tt.isTerminal)
		}
	}
}
