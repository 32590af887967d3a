// Transcript viewer: tails the interview event topics and relays them to
// browsers over WebSocket.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"futurefind-speech-service/internal/config"
	"futurefind-speech-service/internal/events"
	httpapi "futurefind-speech-service/internal/http"
	"futurefind-speech-service/internal/observability/logging"
)

func main() {
	cfg := config.Load()

	defaultBrokers := "localhost:9092"
	if len(cfg.Kafka.Brokers) > 0 {
		defaultBrokers = strings.Join(cfg.Kafka.Brokers, ",")
	}

	port := flag.String("port", "8081", "HTTP server port")
	brokers := flag.String("brokers", defaultBrokers, "Kafka brokers (comma-separated)")
	since := flag.Duration("since", time.Hour, "Replay events newer than this")
	flag.Parse()

	logging.Init(logging.Config{
		Level:      cfg.Observability.LogLevel,
		Format:     cfg.Observability.LogFormat,
		TimeFormat: time.RFC3339,
		Service:    "futurefind-transcript-viewer",
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	hub := httpapi.NewHub(cfg.HTTP.AllowedOrigins)
	go hub.Run(ctx)

	consumer := events.NewConsumer(events.ConsumerConfig{
		Brokers: strings.Split(*brokers, ","),
		Topics:  []string{cfg.Kafka.TopicPartial, cfg.Kafka.TopicFinal, cfg.Kafka.TopicFeedback},
		Since:   *since,
	})
	defer consumer.Close()
	go consumer.Run(ctx, func(env events.Envelope) {
		hub.Publish(env.SessionID, env.Payload)
	})

	r := chi.NewRouter()
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, "")
	})
	r.Get("/ws/{sessionId}", func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, chi.URLParam(r, "sessionId"))
	})

	server := &http.Server{
		Addr:              ":" + *port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Info().
		Str("port", *port).
		Str("brokers", *brokers).
		Strs("topics", []string{cfg.Kafka.TopicPartial, cfg.Kafka.TopicFinal, cfg.Kafka.TopicFeedback}).
		Msg("Transcript viewer starting")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server error")
	}
}
