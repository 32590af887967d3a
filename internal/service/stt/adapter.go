// Package stt defines the interface for Speech-to-Text adapters.
package stt

import "context"

// Callback receives recognition results from an STT provider.
type Callback interface {
	// OnPartial is called with an interim hypothesis that may still change.
	OnPartial(text string)

	// OnFinal is called once per utterance with the stable result.
	OnFinal(text string, confidence float64)

	// OnEndOfUtterance is called when the provider detects the speaker
	// stopped talking.
	OnEndOfUtterance()

	// OnError is called when recognition fails.
	OnError(err error)
}

// Adapter defines the interface for STT providers.
type Adapter interface {
	// Start begins a streaming recognition session.
	Start(ctx context.Context, cb Callback) error

	// SendAudio sends audio bytes to the provider.
	SendAudio(ctx context.Context, audio []byte) error

	// Close ends the session. It returns after the provider's last results
	// have been delivered to the callback.
	Close() error
}

// Provider names accepted by configuration.
const (
	ProviderMock   = "mock"
	ProviderGoogle = "google"
)
