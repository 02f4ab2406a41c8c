// Package pb holds the relay's gRPC contract: request, ack and event
// records plus the service descriptor, client and server glue.
package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	Relay_SubmitOrder_FullMethodName  = "/kitchen.relay.v1.Relay/SubmitOrder"
	Relay_UpdateStatus_FullMethodName = "/kitchen.relay.v1.Relay/UpdateStatus"
	Relay_Subscribe_FullMethodName    = "/kitchen.relay.v1.Relay/Subscribe"
)

type SubmitOrderRequest struct {
	OrderId string `json:"order_id"`
	Table   string `json:"table"`
	Item    string `json:"item"`
}

func (x *SubmitOrderRequest) GetOrderId() string {
	if x != nil {
		return x.OrderId
	}
	return ""
}

func (x *SubmitOrderRequest) GetTable() string {
	if x != nil {
		return x.Table
	}
	return ""
}

func (x *SubmitOrderRequest) GetItem() string {
	if x != nil {
		return x.Item
	}
	return ""
}

type UpdateStatusRequest struct {
	OrderId string `json:"order_id"`
	Status  string `json:"status"`
}

func (x *UpdateStatusRequest) GetOrderId() string {
	if x != nil {
		return x.OrderId
	}
	return ""
}

func (x *UpdateStatusRequest) GetStatus() string {
	if x != nil {
		return x.Status
	}
	return ""
}

type Ack struct{}

type SubscribeRequest struct {
	ClientName string `json:"client_name,omitempty"`
}

func (x *SubscribeRequest) GetClientName() string {
	if x != nil {
		return x.ClientName
	}
	return ""
}

// RelayEvent is one broadcast. Name is ReceiveOrder, ReceiveStatusUpdate
// or Subscribed; unused fields are empty.
type RelayEvent struct {
	Name    string `json:"name"`
	OrderId string `json:"order_id,omitempty"`
	Table   string `json:"table,omitempty"`
	Item    string `json:"item,omitempty"`
	Status  string `json:"status,omitempty"`
}

// RelayClient is the client API for the Relay service.
type RelayClient interface {
	SubmitOrder(ctx context.Context, in *SubmitOrderRequest, opts ...grpc.CallOption) (*Ack, error)
	UpdateStatus(ctx context.Context, in *UpdateStatusRequest, opts ...grpc.CallOption) (*Ack, error)
	Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[RelayEvent], error)
}

type relayClient struct {
	cc grpc.ClientConnInterface
}

func NewRelayClient(cc grpc.ClientConnInterface) RelayClient {
	return &relayClient{cc}
}

func (c *relayClient) SubmitOrder(ctx context.Context, in *SubmitOrderRequest, opts ...grpc.CallOption) (*Ack, error) {
	out := new(Ack)
	if err := c.cc.Invoke(ctx, Relay_SubmitOrder_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *relayClient) UpdateStatus(ctx context.Context, in *UpdateStatusRequest, opts ...grpc.CallOption) (*Ack, error) {
	out := new(Ack)
	if err := c.cc.Invoke(ctx, Relay_UpdateStatus_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *relayClient) Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[RelayEvent], error) {
	stream, err := c.cc.NewStream(ctx, &Relay_ServiceDesc.Streams[0], Relay_Subscribe_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[SubscribeRequest, RelayEvent]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// RelayServer is the server API for the Relay service.
type RelayServer interface {
	SubmitOrder(context.Context, *SubmitOrderRequest) (*Ack, error)
	UpdateStatus(context.Context, *UpdateStatusRequest) (*Ack, error)
	Subscribe(*SubscribeRequest, grpc.ServerStreamingServer[RelayEvent]) error
}

func RegisterRelayServer(s grpc.ServiceRegistrar, srv RelayServer) {
	s.RegisterService(&Relay_ServiceDesc, srv)
}

func _Relay_SubmitOrder_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SubmitOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RelayServer).SubmitOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Relay_SubmitOrder_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RelayServer).SubmitOrder(ctx, req.(*SubmitOrderRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Relay_UpdateStatus_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(UpdateStatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RelayServer).UpdateStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Relay_UpdateStatus_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RelayServer).UpdateStatus(ctx, req.(*UpdateStatusRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Relay_Subscribe_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(SubscribeRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(RelayServer).Subscribe(m, &grpc.GenericServerStream[SubscribeRequest, RelayEvent]{ServerStream: stream})
}

var Relay_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "kitchen.relay.v1.Relay",
	HandlerType: (*RelayServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SubmitOrder",
			Handler:    _Relay_SubmitOrder_Handler,
		},
		{
			MethodName: "UpdateStatus",
			Handler:    _Relay_UpdateStatus_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       _Relay_Subscribe_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "relay.proto",
}

// UnimplementedRelayServer can be embedded to have forward compatible implementations.
type UnimplementedRelayServer struct{}

func (UnimplementedRelayServer) SubmitOrder(context.Context, *SubmitOrderRequest) (*Ack, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SubmitOrder not implemented")
}

func (UnimplementedRelayServer) UpdateStatus(context.Context, *UpdateStatusRequest) (*Ack, error) {
	return nil, status.Errorf(codes.Unimplemented, "method UpdateStatus not implemented")
}

func (UnimplementedRelayServer) Subscribe(*SubscribeRequest, grpc.ServerStreamingServer[RelayEvent]) error {
	return status.Errorf(codes.Unimplemented, "method Subscribe not implemented")
}
