package segment

import (
	"sync"
	"testing"
)

func TestGenerator_Next(t *testing.T) {
	gen := New()

	if seg := gen.Next("sess-1"); seg != "sess-1-seg-1" {
		t.Errorf("expected 'sess-1-seg-1', got %s", seg)
	}
	if seg := gen.Next("sess-1"); seg != "sess-1-seg-2" {
		t.Errorf("expected 'sess-1-seg-2', got %s", seg)
	}
	// Each session is numbered independently
	if seg := gen.Next("sess-2"); seg != "sess-2-seg-1" {
		t.Errorf("expected 'sess-2-seg-1', got %s", seg)
	}
}

func TestGenerator_CountAndForget(t *testing.T) {
	gen := New()
	gen.Next("sess-1")
	gen.Next("sess-1")

	if n := gen.Count("sess-1"); n != 2 {
		t.Errorf("expected count 2, got %d", n)
	}

	gen.Forget("sess-1")
	if n := gen.Count("sess-1"); n != 0 {
		t.Errorf("expected count 0 after Forget, got %d", n)
	}
	if seg := gen.Next("sess-1"); seg != "sess-1-seg-1" {
		t.Errorf("expected numbering to restart, got %s", seg)
	}
}

func TestGenerator_ThreadSafety(t *testing.T) {
	gen := New()
	numGoroutines := 100
	perGoroutine := 10

	var wg sync.WaitGroup
	results := make(chan string, numGoroutines*perGoroutine)

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				results <- gen.Next("sess-concurrent")
			}
		}()
	}

	wg.Wait()
	close(results)

	seen := make(map[string]bool)
	for seg := range results {
		if seen[seg] {
			t.Errorf("duplicate segment ID generated: %s", seg)
		}
		seen[seg] = true
	}

	if len(seen) != numGoroutines*perGoroutine {
		t.Errorf("expected %d unique segment IDs, got %d", numGoroutines*perGoroutine, len(seen))
	}
	if n := gen.Count("sess-concurrent"); n != uint64(numGoroutines*perGoroutine) {
		t.Errorf("expected count %d, got %d", numGoroutines*perGoroutine, n)
	}
}
