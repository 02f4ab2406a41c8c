package handler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/kitchen-relay/internal/adapter/handler/pb"
	"github.com/rl1809/kitchen-relay/internal/core/domain"
	"github.com/rl1809/kitchen-relay/internal/core/service"
)

type GRPCHandler struct {
	pb.UnimplementedRelayServer
	relay  *service.RelayService
	logger *slog.Logger
}

func NewGRPCHandler(relay *service.RelayService, logger *slog.Logger) *GRPCHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GRPCHandler{relay: relay, logger: logger}
}

func (h *GRPCHandler) SubmitOrder(ctx context.Context, req *pb.SubmitOrderRequest) (*pb.Ack, error) {
	if err := h.relay.SubmitOrder(ctx, req.GetOrderId(), req.GetTable(), req.GetItem()); err != nil {
		return nil, relayError(err)
	}
	return &pb.Ack{}, nil
}

func (h *GRPCHandler) UpdateStatus(ctx context.Context, req *pb.UpdateStatusRequest) (*pb.Ack, error) {
	if err := h.relay.UpdateStatus(ctx, req.GetOrderId(), req.GetStatus()); err != nil {
		return nil, relayError(err)
	}
	return &pb.Ack{}, nil
}

// Subscribe registers the caller, acknowledges with a Subscribed event and
// then forwards broadcasts until the caller goes away or the relay stops.
func (h *GRPCHandler) Subscribe(req *pb.SubscribeRequest, stream grpc.ServerStreamingServer[pb.RelayEvent]) error {
	sub, err := h.relay.Subscribe()
	if err != nil {
		return relayError(err)
	}
	defer h.relay.Unsubscribe(sub)

	h.logger.Info("client subscribed", "subscriber_id", sub.ID, "client", req.GetClientName())
	defer h.logger.Info("client unsubscribed", "subscriber_id", sub.ID, "client", req.GetClientName())

	if err := stream.Send(&pb.RelayEvent{Name: domain.EventSubscribed}); err != nil {
		return err
	}

	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return status.Error(codes.Unavailable, "relay shutting down")
			}
			if err := stream.Send(pb.FromEvent(ev)); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}

func relayError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}
	return status.Error(codes.Unavailable, err.Error())
}

// UnaryLoggingInterceptor logs every unary call with its duration and code.
func UnaryLoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("grpc call",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration", time.Since(start))
		return resp, err
	}
}
