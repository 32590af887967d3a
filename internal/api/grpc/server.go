// Package grpcapi serves TranscriptService over gRPC.
package grpcapi

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"futurefind-speech-service/internal/observability/logging"
	"futurefind-speech-service/internal/schema"
	"futurefind-speech-service/internal/service/capture"
	"futurefind-speech-service/internal/service/correction"
)

// Server implements TranscriptServiceServer.
type Server struct {
	UnimplementedTranscriptServiceServer
	processor *correction.Processor
	sessions  *capture.Manager
	validator *schema.Validator
	provider  string
}

// NewServer returns a server that processes text with processor and feeds
// streamed audio into sessions of manager.
func NewServer(processor *correction.Processor, sessions *capture.Manager, provider string) *Server {
	return &Server{
		processor: processor,
		sessions:  sessions,
		validator: schema.MustNew(),
		provider:  provider,
	}
}

// Register registers a new Server on g.
func Register(g *grpc.Server, processor *correction.Processor, sessions *capture.Manager, provider string) *Server {
	s := NewServer(processor, sessions, provider)
	RegisterTranscriptServiceServer(g, s)
	return s
}

// Process post-processes one segment.
func (s *Server) Process(ctx context.Context, req *ProcessRequest) (*ProcessResponse, error) {
	resp := &ProcessResponse{Raw: req.Text}
	if req.Trace {
		resp.Stages = s.processor.Trace(req.Text)
		resp.Text = resp.Stages[len(resp.Stages)-1].Text
	} else {
		resp.Text = s.processor.Process(req.Text)
	}
	return resp, nil
}

// StreamAudio records one answer from streamed audio. The first frame
// names the session (a new one is created when empty or unknown); the
// summary is sent once the client closes the stream and the recognizer
// has delivered its last result.
func (s *Server) StreamAudio(stream TranscriptService_StreamAudioServer) error {
	ctx := stream.Context()

	frame, err := stream.Recv()
	if err == io.EOF {
		return status.Error(codes.InvalidArgument, "empty audio stream")
	}
	if err != nil {
		return err
	}

	session, err := s.session(frame.SessionId)
	if err != nil {
		return err
	}
	logger := logging.WithStream(session.ID(), s.provider)

	if err := session.Start(ctx); err != nil {
		return toStatus(err)
	}
	logger.Info().Msg("Audio stream started")

	for {
		if err := s.validator.ValidateValue(schema.AudioFrame, frame); err != nil {
			session.Stop()
			return toStatus(err)
		}
		if err := session.SendAudio(ctx, frame.Audio, frame.AudioOffsetMs); err != nil {
			logger.Warn().Err(err).Msg("Audio rejected")
			session.Stop()
			return toStatus(err)
		}

		frame, err = stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn().Err(err).Msg("Audio stream aborted")
			session.Stop()
			return err
		}
	}

	if err := session.Stop(); err != nil {
		logger.Error().Err(err).Msg("Failed to close recognizer")
	}
	snap := session.Snapshot()
	logger.Info().Int("segments", snap.Segments).Msg("Audio stream completed")

	return stream.SendAndClose(&StreamSummary{
		SessionId:  snap.ID,
		Transcript: snap.Transcript,
		Segments:   snap.Segments,
		Context:    snap.Context,
	})
}

func (s *Server) session(id string) (*capture.Session, error) {
	if id == "" {
		return s.sessions.Create(), nil
	}
	if sess, err := s.sessions.Get(id); err == nil {
		return sess, nil
	}
	sess, err := s.sessions.CreateWithID(id)
	if errors.Is(err, capture.ErrSessionExists) {
		// Created concurrently by another caller.
		return s.sessions.Get(id)
	}
	if err != nil {
		return nil, toStatus(err)
	}
	log.Debug().Str("sessionId", id).Msg("Session created for audio stream")
	return sess, nil
}

// toStatus maps domain errors to gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, schema.ErrInvalid):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, capture.ErrAlreadyRecording):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, capture.ErrNotRecording), errors.Is(err, capture.ErrNoAdapter):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, capture.ErrSegmentLimit):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, capture.ErrSessionNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
