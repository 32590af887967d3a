package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	grpcapi "futurefind-speech-service/internal/api/grpc"
	"futurefind-speech-service/internal/wav"
)

func main() {
	audioFile := flag.String("audio", "answer.wav", "Path to a PCM WAV file (16kHz 16-bit mono for Google STT)")
	serverAddr := flag.String("server", "localhost:50051", "gRPC server address")
	sessionId := flag.String("session", "", "Session to record into (created when empty or unknown)")
	chunk := flag.Duration("chunk", 100*time.Millisecond, "Audio per frame; frames are paced in real time")
	flag.Parse()

	f, err := os.Open(*audioFile)
	if err != nil {
		log.Fatalf("Failed to open audio file: %v", err)
	}
	defer f.Close()

	audio, err := wav.NewReader(f)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *audioFile, err)
	}
	format := audio.Format
	log.Printf("WAV: channels=%d sampleRate=%d bitsPerSample=%d", format.Channels, format.SampleRate, format.BitsPerSample)
	if format.SampleRate != 16000 || format.Channels != 1 {
		log.Printf("Warning: recognizer expects 16kHz mono, streaming anyway")
	}

	conn, err := grpc.NewClient(*serverAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	summary, err := streamWAV(ctx, grpcapi.NewTranscriptServiceClient(conn), audio, *sessionId, *chunk)
	if err != nil {
		log.Fatalf("Stream failed: %v", err)
	}

	log.Printf("Stream completed: session=%s segments=%d", summary.SessionId, summary.Segments)
	log.Printf("Transcript: %s", summary.Transcript)
}

// streamWAV sends audio in real time and returns the server's summary once
// the recognizer has flushed.
func streamWAV(ctx context.Context, client grpcapi.TranscriptServiceClient, audio *wav.Reader, sessionId string, chunk time.Duration) (*grpcapi.StreamSummary, error) {
	stream, err := client.StreamAudio(ctx)
	if err != nil {
		return nil, err
	}

	size := int(int64(audio.Format.BytesPerSecond()) * chunk.Milliseconds() / 1000)
	if size <= 0 {
		size = 3200
	}

	frames := 0
	start := time.Now()
	err = audio.Chunks(size, func(pcm []byte, offsetMs int64) error {
		frame := &grpcapi.AudioFrame{Audio: pcm, AudioOffsetMs: offsetMs}
		if frames == 0 {
			frame.SessionId = sessionId
		}
		if err := stream.Send(frame); err != nil {
			return err
		}
		frames++
		if frames%50 == 0 {
			log.Printf("Sent %d frames (%d bytes, offset=%dms)", frames, audio.BytesRead(), offsetMs)
		}
		time.Sleep(chunk)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Sent %d frames in %v, waiting for final transcript...", frames, time.Since(start).Round(time.Millisecond))
	return stream.CloseAndRecv()
}
