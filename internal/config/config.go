// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config is the full service configuration.
type Config struct {
	Service       ServiceConfig
	STT           STTConfig
	SegmentLimits SegmentLimitsConfig
	Capture       CaptureConfig
	Corrections   CorrectionsConfig
	Feedback      FeedbackConfig
	Kafka         KafkaConfig
	HTTP          HTTPConfig
	Observability ObservabilityConfig
}

type ServiceConfig struct {
	Principal string
	GRPCPort  string
	Env       string
}

type STTConfig struct {
	Provider       string // mock, google
	LanguageCode   string
	SampleRateHz   int
	InterimResults bool
	AudioEncoding  string
	// Phrases bias recognition towards technical vocabulary.
	Phrases []string
}

type SegmentLimitsConfig struct {
	MaxAudioBytes int64
	MaxDuration   time.Duration
	MaxPartials   int
}

type CaptureConfig struct {
	ContextSize        int
	EnhancedProcessing bool
}

type CorrectionsConfig struct {
	// TermsFile is an optional YAML file of extra technical terms.
	TermsFile string
}

type FeedbackConfig struct {
	GeminiAPIKey    string
	Model           string
	MinAnswerLength int
	Timeout         time.Duration
}

// Enabled reports whether answer evaluation can run.
func (f FeedbackConfig) Enabled() bool {
	return f.GeminiAPIKey != ""
}

type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	TopicPartial  string
	TopicFinal    string
	TopicFeedback string
	Principal     string
}

type HTTPConfig struct {
	Port           string
	AllowedOrigins []string
}

type ObservabilityConfig struct {
	LogLevel    string
	LogFormat   string
	MetricsPort string
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first if present; real environment
// variables win. Invalid values fall back to defaults.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("Loaded .env file")
	}
	return FromEnv()
}

// FromEnv reads configuration from the process environment only.
func FromEnv() *Config {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-futurefind-speech")

	return &Config{
		Service: ServiceConfig{
			Principal: principal,
			GRPCPort:  envOrDefault("GRPC_PORT", "50051"),
			Env:       envOrDefault("ENV", "prod"),
		},
		STT: STTConfig{
			Provider:       strings.ToLower(envOrDefault("STT_PROVIDER", "mock")),
			LanguageCode:   envOrDefault("STT_LANGUAGE_CODE", "en-US"),
			SampleRateHz:   envOrDefaultInt("STT_SAMPLE_RATE_HZ", 16000),
			InterimResults: envOrDefaultBool("STT_INTERIM_RESULTS", true),
			AudioEncoding:  envOrDefault("STT_AUDIO_ENCODING", "LINEAR16"),
			Phrases:        envOrDefaultList("STT_PHRASES", nil),
		},
		SegmentLimits: SegmentLimitsConfig{
			MaxAudioBytes: envOrDefaultInt64("SEGMENT_MAX_AUDIO_BYTES", 5*1024*1024),
			MaxDuration:   envOrDefaultDuration("SEGMENT_MAX_DURATION", 5*time.Minute),
			MaxPartials:   envOrDefaultInt("SEGMENT_MAX_PARTIALS", 500),
		},
		Capture: CaptureConfig{
			ContextSize:        envOrDefaultInt("CAPTURE_CONTEXT_SIZE", 10),
			EnhancedProcessing: envOrDefaultBool("CAPTURE_ENHANCED_PROCESSING", true),
		},
		Corrections: CorrectionsConfig{
			TermsFile: os.Getenv("CORRECTIONS_TERMS_FILE"),
		},
		Feedback: FeedbackConfig{
			GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
			Model:           envOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
			MinAnswerLength: envOrDefaultInt("FEEDBACK_MIN_ANSWER_LENGTH", 30),
			Timeout:         envOrDefaultDuration("FEEDBACK_TIMEOUT", 30*time.Second),
		},
		Kafka: KafkaConfig{
			Enabled:       envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:       envOrDefaultList("KAFKA_BROKERS", nil),
			TopicPartial:  envOrDefault("KAFKA_TOPIC_PARTIAL", "interview.transcript.partial"),
			TopicFinal:    envOrDefault("KAFKA_TOPIC_FINAL", "interview.transcript.final"),
			TopicFeedback: envOrDefault("KAFKA_TOPIC_FEEDBACK", "interview.answer.feedback"),
			Principal:     envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		HTTP: HTTPConfig{
			Port:           envOrDefault("HTTP_PORT", "8080"),
			AllowedOrigins: envOrDefaultList("HTTP_ALLOWED_ORIGINS", nil),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			LogFormat:   envOrDefault("LOG_FORMAT", "json"),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Invalid integer, using default")
		return def
	}
	return n
}

func envOrDefaultInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Invalid integer, using default")
		return def
	}
	return n
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Invalid boolean, using default")
		return def
	}
	return b
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Invalid duration, using default")
		return def
	}
	return d
}

// envOrDefaultList splits a comma separated value, dropping blanks.
func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
