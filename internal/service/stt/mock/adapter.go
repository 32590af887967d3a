// Package mock provides a scripted STT adapter for running without cloud
// credentials. Its utterances are interview answers with the kind of
// mis-transcriptions browsers and cloud engines produce.
package mock

import (
	"context"
	"sync"
	"time"

	"futurefind-speech-service/internal/service/stt"
)

// SimulatedUtterance is one scripted answer.
type SimulatedUtterance struct {
	Partials   []string // Progressive interim hypotheses
	Final      string   // Raw final transcript
	Confidence float64
}

// DefaultUtterances are cycled through by New.
var DefaultUtterances = []SimulatedUtterance{
	{
		Partials:   []string{"um i would", "um i would use a hash", "um i would use a hashtable"},
		Final:      "um i would use a hashtable for constant time look ups",
		Confidence: 0.91,
	},
	{
		Partials:   []string{"i built", "i built the front end", "i built the front end in re-act"},
		Final:      "i built the front end in re-act and type script",
		Confidence: 0.88,
	},
	{
		Partials:   []string{"the api", "the api was rest"},
		Final:      "the api was rest with a mongo db data base",
		Confidence: 0.90,
	},
	{
		Partials:   []string{"like we store", "like we store sessions in a cash"},
		Final:      "like we store sessions in a cash which saved 50 percent",
		Confidence: 0.86,
	},
	{
		Partials:   []string{"i can't", "i can't never remember"},
		Final:      "i can't never remember the sin tax for java script promises",
		Confidence: 0.83,
	},
}

var (
	utteranceCounter int
	counterMu        sync.Mutex
)

// Adapter implements stt.Adapter with scripted responses:
//   - one interim hypothesis per audio frame until the script runs out
//   - exactly one final, followed by end-of-utterance
//   - Close flushes the final if the stream ended early
type Adapter struct {
	mu           sync.Mutex
	cb           stt.Callback
	utterance    SimulatedUtterance
	partialIndex int
	finalSent    bool
	closed       bool
	frames       int

	partialDelay time.Duration
	finalDelay   time.Duration
	pending      sync.WaitGroup
}

// New returns an adapter scripted with the next default utterance.
func New() *Adapter {
	counterMu.Lock()
	idx := utteranceCounter % len(DefaultUtterances)
	utteranceCounter++
	counterMu.Unlock()

	return NewWithUtterance(DefaultUtterances[idx])
}

// NewWithUtterance returns an adapter scripted with u.
func NewWithUtterance(u SimulatedUtterance) *Adapter {
	return &Adapter{
		utterance:    u,
		partialDelay: 50 * time.Millisecond,
		finalDelay:   100 * time.Millisecond,
	}
}

// Start registers the callback.
func (a *Adapter) Start(ctx context.Context, cb stt.Callback) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cb = cb
	return nil
}

// SendAudio advances the script by one step per frame.
func (a *Adapter) SendAudio(ctx context.Context, audio []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed || a.cb == nil {
		return nil
	}
	a.frames++
	cb := a.cb

	if a.partialIndex < len(a.utterance.Partials) {
		text := a.utterance.Partials[a.partialIndex]
		a.partialIndex++
		a.deliver(a.partialDelay, func() { cb.OnPartial(text) })
		return nil
	}

	if !a.finalSent {
		// Script exhausted: behave as if silence was detected.
		a.finalSent = true
		utt := a.utterance
		a.deliver(a.finalDelay, func() {
			cb.OnFinal(utt.Final, utt.Confidence)
			cb.OnEndOfUtterance()
		})
	}
	return nil
}

// Frames returns the number of audio frames accepted.
func (a *Adapter) Frames() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.frames
}

// deliver runs fn after delay on its own goroutine. Callers hold a.mu.
func (a *Adapter) deliver(delay time.Duration, fn func()) {
	a.pending.Add(1)
	go func() {
		defer a.pending.Done()
		if delay > 0 {
			time.Sleep(delay)
		}
		fn()
	}()
}

// Close waits for scheduled results and sends the final if the stream
// ended before the script did.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	cb := a.cb
	sendFinal := !a.finalSent && cb != nil
	a.finalSent = true
	utt := a.utterance
	a.mu.Unlock()

	a.pending.Wait()
	if sendFinal {
		cb.OnFinal(utt.Final, utt.Confidence)
	}
	return nil
}
