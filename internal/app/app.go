package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"futurefind-speech-service/internal/config"
	"futurefind-speech-service/internal/events"
	"futurefind-speech-service/internal/observability/logging"
	"futurefind-speech-service/internal/service/capture"
	"futurefind-speech-service/internal/service/correction"
	"futurefind-speech-service/internal/service/feedback"
	"futurefind-speech-service/internal/service/segment"
	"futurefind-speech-service/internal/service/stt"
	"futurefind-speech-service/internal/service/stt/google"
	"futurefind-speech-service/internal/service/stt/mock"
)

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Config

	Processor *correction.Processor
	Sessions  *capture.Manager
	Publisher *events.Publisher
	// Evaluator and Questions are nil when no Gemini API key is configured.
	Evaluator *feedback.Evaluator
	Questions *feedback.QuestionGenerator

	ready atomic.Bool
}

// New wires the services described by cfg. Session updates are passed to
// listener, which may be nil.
func New(ctx context.Context, cfg *config.Config, listener func(capture.Update)) (*Application, error) {
	logging.Init(logging.Config{
		Level:      cfg.Observability.LogLevel,
		Format:     cfg.Observability.LogFormat,
		TimeFormat: time.RFC3339,
		Service:    "futurefind-speech-service",
	})

	a := &Application{
		Cfg:    cfg,
		Logger: logging.WithComponent("application"),
	}

	processor, err := NewProcessor(cfg.Corrections)
	if err != nil {
		return nil, err
	}
	a.Processor = processor

	a.Publisher = events.New(&events.Config{
		Enabled:       cfg.Kafka.Enabled,
		Brokers:       cfg.Kafka.Brokers,
		TopicPartial:  cfg.Kafka.TopicPartial,
		TopicFinal:    cfg.Kafka.TopicFinal,
		TopicFeedback: cfg.Kafka.TopicFeedback,
		Principal:     cfg.Kafka.Principal,
	})

	factory, err := NewAdapterFactory(cfg.STT)
	if err != nil {
		return nil, err
	}

	a.Sessions = capture.NewManager(capture.Options{
		ContextSize:        cfg.Capture.ContextSize,
		EnhancedProcessing: cfg.Capture.EnhancedProcessing,
		Limits: capture.Limits{
			MaxAudioBytes: cfg.SegmentLimits.MaxAudioBytes,
			MaxDuration:   cfg.SegmentLimits.MaxDuration,
			MaxPartials:   cfg.SegmentLimits.MaxPartials,
		},
		Processor:  processor,
		NewAdapter: factory,
		Provider:   cfg.STT.Provider,
		Publisher:  a.Publisher,
		Listener:   listener,
		Segments:   segment.New(),
	})

	if cfg.Feedback.Enabled() {
		gen, err := feedback.NewGemini(ctx, cfg.Feedback.GeminiAPIKey, cfg.Feedback.Model)
		if err != nil {
			return nil, err
		}
		a.Evaluator = feedback.NewEvaluator(gen, cfg.Feedback.MinAnswerLength)
		a.Questions = feedback.NewQuestionGenerator(gen)
	} else {
		a.Logger.Warn().Msg("GEMINI_API_KEY not set, answer evaluation and question generation disabled")
	}

	a.Logger.Info().
		Str("sttProvider", cfg.STT.Provider).
		Bool("kafka", a.Publisher.Enabled()).
		Bool("feedback", a.Evaluator != nil).
		Msg("FutureFind speech service application created")
	return a, nil
}

// NewProcessor builds the transcript processor, adding the terms file if
// one is configured.
func NewProcessor(cfg config.CorrectionsConfig) (*correction.Processor, error) {
	if cfg.TermsFile == "" {
		return correction.New(), nil
	}
	terms, err := correction.LoadTerms(cfg.TermsFile)
	if err != nil {
		return nil, err
	}
	log.Info().Str("file", cfg.TermsFile).Int("terms", len(terms)).Msg("Loaded extra technical terms")
	return correction.New(correction.WithExtraTerms(terms)), nil
}

// NewAdapterFactory returns the recognizer factory for the configured
// provider.
func NewAdapterFactory(cfg config.STTConfig) (capture.AdapterFactory, error) {
	switch cfg.Provider {
	case stt.ProviderMock:
		return func(ctx context.Context) (stt.Adapter, error) {
			return mock.New(), nil
		}, nil
	case stt.ProviderGoogle:
		gcfg := google.Config{
			LanguageCode:   cfg.LanguageCode,
			SampleRateHz:   cfg.SampleRateHz,
			InterimResults: cfg.InterimResults,
			AudioEncoding:  cfg.AudioEncoding,
			Phrases:        cfg.Phrases,
		}
		return func(ctx context.Context) (stt.Adapter, error) {
			a, err := google.New(ctx, gcfg)
			if err != nil {
				return nil, err
			}
			return a, nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown STT provider %q", cfg.Provider)
	}
}

// Start marks the application ready to serve traffic.
func (a *Application) Start() error {
	a.StartupTime = time.Now().UTC()
	a.ready.Store(true)

	a.Logger.Info().
		Str("method", "Start").
		Time("startupTime", a.StartupTime).
		Msg("FutureFind speech service starting")
	return nil
}

// Ready reports whether Start has run and Shutdown has not.
func (a *Application) Ready() bool {
	return a.ready.Load()
}

// Shutdown stops every session and flushes the event publisher.
func (a *Application) Shutdown() {
	a.ready.Store(false)

	logger := a.Logger.With().
		Str("method", "Shutdown").
		Logger()

	logger.Info().Int("sessions", a.Sessions.Len()).Msg("FutureFind speech service shutting down")
	if err := a.Sessions.Close(); err != nil {
		logger.Error().Err(err).Msg("Error stopping sessions")
	}
	if err := a.Publisher.Close(); err != nil {
		logger.Error().Err(err).Msg("Error closing publisher")
	}
}
