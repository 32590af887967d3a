package main

import (
	"bytes"
	"context"
	"flag"
	"io"
	"log"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	grpcapi "futurefind-speech-service/internal/api/grpc"
	"futurefind-speech-service/internal/wav"
)

func main() {
	serverAddr := flag.String("server", "localhost:50051", "gRPC server address")
	text := flag.String("text", "um so i think java script is like the best for a p i design", "Raw transcript to process")
	trace := flag.Bool("trace", false, "Print the output of every correction stage")
	frames := flag.Int("frames", 3, "Frames of silence to stream when no -audio file is given")
	audioFile := flag.String("audio", "", "Optional PCM WAV file to stream after processing")
	flag.Parse()

	conn, err := grpc.NewClient(*serverAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	log.Println("Connected to server")

	client := grpcapi.NewTranscriptServiceClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	resp, err := client.Process(ctx, &grpcapi.ProcessRequest{Text: *text, Trace: *trace})
	if err != nil {
		log.Fatalf("failed to process: %v", err)
	}
	for _, st := range resp.Stages {
		log.Printf("  %-10s %s", st.Stage, st.Text)
	}
	log.Printf("Processed: %q -> %q", resp.Raw, resp.Text)

	// With STT_PROVIDER=mock every frame advances a scripted utterance, so
	// generated silence is enough.
	var src io.Reader
	if *audioFile != "" {
		f, err := os.Open(*audioFile)
		if err != nil {
			log.Fatalf("failed to open audio file: %v", err)
		}
		defer f.Close()
		src = f
	} else if *frames > 0 {
		format := wav.Format{Channels: 1, SampleRate: 16000, BitsPerSample: 16}
		src = bytes.NewReader(wav.Encode(format, make([]byte, *frames*3200)))
	} else {
		return
	}

	audio, err := wav.NewReader(src)
	if err != nil {
		log.Fatalf("failed to read audio: %v", err)
	}

	stream, err := client.StreamAudio(ctx)
	if err != nil {
		log.Fatalf("failed to create stream: %v", err)
	}
	err = audio.Chunks(3200, func(pcm []byte, offsetMs int64) error {
		return stream.Send(&grpcapi.AudioFrame{Audio: pcm, AudioOffsetMs: offsetMs})
	})
	if err != nil {
		log.Fatalf("failed to send audio: %v", err)
	}

	summary, err := stream.CloseAndRecv()
	if err != nil {
		log.Fatalf("failed to receive summary: %v", err)
	}
	log.Printf("Session %s: %d segments, transcript=%q", summary.SessionId, summary.Segments, summary.Transcript)
}
