package observability

import (
	"context"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"futurefind-speech-service/internal/observability/metrics"
)

const healthPrefix = "/grpc.health.v1.Health/"

// callEvent picks the log level for a finished call: health probes are
// debug noise, failures that are not client errors are warnings.
func callEvent(method string, code codes.Code) *zerolog.Event {
	switch {
	case strings.HasPrefix(method, healthPrefix):
		return log.Debug()
	case code == codes.Internal || code == codes.Unknown || code == codes.Unavailable:
		return log.Warn()
	default:
		return log.Info()
	}
}

func recovered(method string, p any) error {
	log.Error().
		Str("method", method).
		Interface("panic", p).
		Bytes("stack", debug.Stack()).
		Msg("Recovered from panic in gRPC handler")
	return status.Errorf(codes.Internal, "internal error")
}

// UnaryServerInterceptor logs each unary call, counts it by status code
// and turns handler panics into Internal errors.
func UnaryServerInterceptor(m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		start := time.Now()
		defer func() {
			if p := recover(); p != nil {
				err = recovered(info.FullMethod, p)
			}
			code := status.Code(err)
			m.RecordUnaryCall(info.FullMethod, code.String())
			callEvent(info.FullMethod, code).
				Str("method", info.FullMethod).
				Str("code", code.String()).
				Dur("duration", time.Since(start)).
				Msg("gRPC unary call")
		}()

		return handler(ctx, req)
	}
}

// StreamServerInterceptor tracks open streams and their duration.
func StreamServerInterceptor(m *metrics.Metrics) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		start := time.Now()
		m.RecordStreamStart()
		defer func() {
			if p := recover(); p != nil {
				err = recovered(info.FullMethod, p)
			}
			elapsed := time.Since(start)
			m.RecordStreamEnd(err == nil, elapsed.Seconds())

			code := status.Code(err)
			callEvent(info.FullMethod, code).
				Str("method", info.FullMethod).
				Str("code", code.String()).
				Dur("duration", elapsed).
				Msg("gRPC stream completed")
		}()

		return handler(srv, ss)
	}
}
