package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"google.golang.org/grpc"

	"github.com/rl1809/kitchen-relay/internal/adapter/broker"
	"github.com/rl1809/kitchen-relay/internal/adapter/handler"
	"github.com/rl1809/kitchen-relay/internal/adapter/handler/pb"
	"github.com/rl1809/kitchen-relay/internal/config"
	"github.com/rl1809/kitchen-relay/internal/core/domain"
	"github.com/rl1809/kitchen-relay/internal/core/service"
	"github.com/rl1809/kitchen-relay/internal/port"
)

const (
	shutdownTimeout = 5 * time.Second
	publishTimeout  = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "relay: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := pflag.NewFlagSet("relay", pflag.ExitOnError)
	config.RegisterFlags(fs)
	fs.Parse(os.Args[1:])

	cfg, err := config.LoadWithFlags(fs)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	var mirror *broker.AMQPMirror
	mirrorQueue := 0
	if cfg.Mirror.URL != "" {
		mirror, err = broker.Dial(cfg.Mirror.URL, cfg.Mirror.Exchange)
		if err != nil {
			return fmt.Errorf("connect mirror: %w", err)
		}
		defer mirror.Close()
		mirrorQueue = cfg.Mirror.QueueSize
		logger.Info("mirroring broadcasts", "exchange", cfg.Mirror.Exchange, "workers", cfg.Mirror.Workers)
	}

	relay := service.NewRelayService(cfg.Relay.SubscriberBuffer, mirrorQueue, logger)

	// Start mirror workers
	var wg sync.WaitGroup
	if mirror != nil {
		for i := 0; i < cfg.Mirror.Workers; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				mirrorLoop(id, relay.MirrorQueue(), mirror, logger)
			}(i)
		}
	}

	// Initialize gRPC server
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(handler.UnaryLoggingInterceptor(logger)))
	pb.RegisterRelayServer(grpcServer, handler.NewGRPCHandler(relay, logger))

	lis, err := net.Listen("tcp", cfg.Relay.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Relay.GRPCAddr, err)
	}

	go func() {
		logger.Info("gRPC server listening", "addr", cfg.Relay.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", "error", err)
		}
	}()

	// Initialize HTTP server
	httpServer := &http.Server{
		Addr:    cfg.Relay.HTTPAddr,
		Handler: handler.NewRouter(handler.NewHTTPHandler(relay, logger)),
	}

	go func() {
		logger.Info("HTTP server listening", "addr", cfg.Relay.HTTPAddr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")

	// Closing the hub ends every open stream so the servers can drain.
	relay.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", "error", err)
	}
	logger.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	wg.Wait()
	logger.Info("mirror workers stopped")
	return nil
}

func mirrorLoop(id int, queue <-chan domain.Event, mirror port.BroadcastMirror, logger *slog.Logger) {
	for event := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)

		if err := mirror.Publish(ctx, event); err != nil {
			logger.Warn("mirror publish failed", "worker", id, "event", event.Name, "order_id", event.OrderID, "error", err)
		} else {
			logger.Debug("mirrored broadcast", "worker", id, "event", event.Name, "order_id", event.OrderID)
		}

		cancel()
	}
}
