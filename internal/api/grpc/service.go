package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"futurefind-speech-service/internal/service/correction"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "futurefind.speech.v1.TranscriptService"

const (
	processMethod     = "/" + ServiceName + "/Process"
	streamAudioMethod = "/" + ServiceName + "/StreamAudio"
)

// ProcessRequest asks for one raw segment to be post-processed.
type ProcessRequest struct {
	Text  string `json:"text"`
	Trace bool   `json:"trace,omitempty"`
}

type ProcessResponse struct {
	Raw    string                   `json:"raw"`
	Text   string                   `json:"text"`
	Stages []correction.StageOutput `json:"stages,omitempty"`
}

// AudioFrame is one chunk of the client audio stream. SessionId is read
// from the first frame only.
type AudioFrame struct {
	SessionId     string `json:"sessionId,omitempty"`
	Audio         []byte `json:"audio"`
	AudioOffsetMs int64  `json:"audioOffsetMs"`
}

// StreamSummary is returned when the client closes its audio stream.
type StreamSummary struct {
	SessionId  string   `json:"sessionId"`
	Transcript string   `json:"transcript"`
	Segments   int      `json:"segments"`
	Context    []string `json:"context,omitempty"`
}

// TranscriptServiceServer is the server API for TranscriptService.
type TranscriptServiceServer interface {
	Process(context.Context, *ProcessRequest) (*ProcessResponse, error)
	StreamAudio(TranscriptService_StreamAudioServer) error
}

// UnimplementedTranscriptServiceServer can be embedded for forward
// compatibility.
type UnimplementedTranscriptServiceServer struct{}

func (UnimplementedTranscriptServiceServer) Process(context.Context, *ProcessRequest) (*ProcessResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Process not implemented")
}

func (UnimplementedTranscriptServiceServer) StreamAudio(TranscriptService_StreamAudioServer) error {
	return status.Error(codes.Unimplemented, "method StreamAudio not implemented")
}

// RegisterTranscriptServiceServer registers srv on s.
func RegisterTranscriptServiceServer(s grpc.ServiceRegistrar, srv TranscriptServiceServer) {
	s.RegisterService(&TranscriptService_ServiceDesc, srv)
}

func _TranscriptService_Process_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ProcessRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TranscriptServiceServer).Process(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: processMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TranscriptServiceServer).Process(ctx, req.(*ProcessRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _TranscriptService_StreamAudio_Handler(srv any, stream grpc.ServerStream) error {
	return srv.(TranscriptServiceServer).StreamAudio(&transcriptServiceStreamAudioServer{stream})
}

// TranscriptService_StreamAudioServer is the server side of StreamAudio.
type TranscriptService_StreamAudioServer interface {
	SendAndClose(*StreamSummary) error
	Recv() (*AudioFrame, error)
	grpc.ServerStream
}

type transcriptServiceStreamAudioServer struct {
	grpc.ServerStream
}

func (x *transcriptServiceStreamAudioServer) SendAndClose(m *StreamSummary) error {
	return x.ServerStream.SendMsg(m)
}

func (x *transcriptServiceStreamAudioServer) Recv() (*AudioFrame, error) {
	m := new(AudioFrame)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// TranscriptService_ServiceDesc describes TranscriptService for
// grpc.Server.RegisterService.
var TranscriptService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TranscriptServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Process",
			Handler:    _TranscriptService_Process_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamAudio",
			Handler:       _TranscriptService_StreamAudio_Handler,
			ClientStreams: true,
		},
	},
}

// TranscriptServiceClient is the client API for TranscriptService. Calls
// always use the JSON codec.
type TranscriptServiceClient interface {
	Process(ctx context.Context, in *ProcessRequest, opts ...grpc.CallOption) (*ProcessResponse, error)
	StreamAudio(ctx context.Context, opts ...grpc.CallOption) (TranscriptService_StreamAudioClient, error)
}

type transcriptServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewTranscriptServiceClient(cc grpc.ClientConnInterface) TranscriptServiceClient {
	return &transcriptServiceClient{cc}
}

func callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
}

func (c *transcriptServiceClient) Process(ctx context.Context, in *ProcessRequest, opts ...grpc.CallOption) (*ProcessResponse, error) {
	out := new(ProcessResponse)
	if err := c.cc.Invoke(ctx, processMethod, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *transcriptServiceClient) StreamAudio(ctx context.Context, opts ...grpc.CallOption) (TranscriptService_StreamAudioClient, error) {
	stream, err := c.cc.NewStream(ctx, &TranscriptService_ServiceDesc.Streams[0], streamAudioMethod, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	return &transcriptServiceStreamAudioClient{stream}, nil
}

// TranscriptService_StreamAudioClient is the client side of StreamAudio.
type TranscriptService_StreamAudioClient interface {
	Send(*AudioFrame) error
	CloseAndRecv() (*StreamSummary, error)
	grpc.ClientStream
}

type transcriptServiceStreamAudioClient struct {
	grpc.ClientStream
}

func (x *transcriptServiceStreamAudioClient) Send(m *AudioFrame) error {
	return x.ClientStream.SendMsg(m)
}

func (x *transcriptServiceStreamAudioClient) CloseAndRecv() (*StreamSummary, error) {
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	m := new(StreamSummary)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
