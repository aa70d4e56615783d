package remote

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const serviceName = "greenroom.ActorTransport"

// ActorTransportServer is the server-side contract for the actor transport
// service: unary send/spawn/stop plus a server-streaming watch.
type ActorTransportServer interface {
	SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error)
	SpawnActor(context.Context, *SpawnActorRequest) (*SpawnActorResponse, error)
	StopActor(context.Context, *StopActorRequest) (*StopActorResponse, error)
	WatchActor(*WatchActorRequest, ActorTransport_WatchActorServer) error
}

// UnimplementedActorTransportServer can be embedded by a Server to satisfy
// ActorTransportServer without implementing every method.
type UnimplementedActorTransportServer struct{}

func (UnimplementedActorTransportServer) SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SendMessage not implemented")
}

func (UnimplementedActorTransportServer) SpawnActor(context.Context, *SpawnActorRequest) (*SpawnActorResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SpawnActor not implemented")
}

func (UnimplementedActorTransportServer) StopActor(context.Context, *StopActorRequest) (*StopActorResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method StopActor not implemented")
}

func (UnimplementedActorTransportServer) WatchActor(*WatchActorRequest, ActorTransport_WatchActorServer) error {
	return status.Errorf(codes.Unimplemented, "method WatchActor not implemented")
}

// ActorTransport_WatchActorServer is the server-side stream handle for
// WatchActor.
type ActorTransport_WatchActorServer interface {
	Send(*WatchActorEvent) error
	grpc.ServerStream
}

type actorTransportWatchActorServer struct {
	grpc.ServerStream
}

func (s *actorTransportWatchActorServer) Send(e *WatchActorEvent) error {
	return s.ServerStream.SendMsg(e)
}

// RegisterActorTransportServer registers srv's implementation with s.
func RegisterActorTransportServer(s grpc.ServiceRegistrar, srv ActorTransportServer) {
	s.RegisterService(&serviceDesc, srv)
}

func actorTransportSendMessageHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SendMessageRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ActorTransportServer).SendMessage(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/SendMessage"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ActorTransportServer).SendMessage(ctx, req.(*SendMessageRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func actorTransportSpawnActorHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SpawnActorRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ActorTransportServer).SpawnActor(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/SpawnActor"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ActorTransportServer).SpawnActor(ctx, req.(*SpawnActorRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func actorTransportStopActorHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(StopActorRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ActorTransportServer).StopActor(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/StopActor"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ActorTransportServer).StopActor(ctx, req.(*StopActorRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func actorTransportWatchActorHandler(srv interface{}, stream grpc.ServerStream) error {
	m := new(WatchActorRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(ActorTransportServer).WatchActor(m, &actorTransportWatchActorServer{stream})
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ActorTransportServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SendMessage", Handler: actorTransportSendMessageHandler},
		{MethodName: "SpawnActor", Handler: actorTransportSpawnActorHandler},
		{MethodName: "StopActor", Handler: actorTransportStopActorHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "WatchActor", Handler: actorTransportWatchActorHandler, ServerStreams: true},
	},
	Metadata: "greenroom/remote/actor_transport.proto",
}

// ActorTransportClient is the client-side contract for the actor transport
// service.
type ActorTransportClient interface {
	SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*SendMessageResponse, error)
	SpawnActor(ctx context.Context, in *SpawnActorRequest, opts ...grpc.CallOption) (*SpawnActorResponse, error)
	StopActor(ctx context.Context, in *StopActorRequest, opts ...grpc.CallOption) (*StopActorResponse, error)
	WatchActor(ctx context.Context, in *WatchActorRequest, opts ...grpc.CallOption) (ActorTransport_WatchActorClient, error)
}

type actorTransportClient struct {
	cc grpc.ClientConnInterface
}

// NewActorTransportClient wraps cc in an ActorTransportClient.
func NewActorTransportClient(cc grpc.ClientConnInterface) ActorTransportClient {
	return &actorTransportClient{cc: cc}
}

func (c *actorTransportClient) SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*SendMessageResponse, error) {
	opts = append(opts, grpc.CallContentSubtype(CodecName))
	out := new(SendMessageResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/SendMessage", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *actorTransportClient) SpawnActor(ctx context.Context, in *SpawnActorRequest, opts ...grpc.CallOption) (*SpawnActorResponse, error) {
	opts = append(opts, grpc.CallContentSubtype(CodecName))
	out := new(SpawnActorResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/SpawnActor", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *actorTransportClient) StopActor(ctx context.Context, in *StopActorRequest, opts ...grpc.CallOption) (*StopActorResponse, error) {
	opts = append(opts, grpc.CallContentSubtype(CodecName))
	out := new(StopActorResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/StopActor", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *actorTransportClient) WatchActor(ctx context.Context, in *WatchActorRequest, opts ...grpc.CallOption) (ActorTransport_WatchActorClient, error) {
	opts = append(opts, grpc.CallContentSubtype(CodecName))
	stream, err := c.cc.NewStream(ctx, &serviceDesc.Streams[0], "/"+serviceName+"/WatchActor", opts...)
	if err != nil {
		return nil, err
	}
	x := &actorTransportWatchActorClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// ActorTransport_WatchActorClient is the client-side stream handle for
// WatchActor.
type ActorTransport_WatchActorClient interface {
	Recv() (*WatchActorEvent, error)
	grpc.ClientStream
}

type actorTransportWatchActorClient struct {
	grpc.ClientStream
}

func (x *actorTransportWatchActorClient) Recv() (*WatchActorEvent, error) {
	m := new(WatchActorEvent)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
