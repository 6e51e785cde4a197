package server

import (
	"context"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService serves the standard gRPC health protocol so orchestrators
// can check the process. It implements Service.
type HealthService struct {
	addr   string
	logger *zap.Logger
	grpc   *grpc.Server
	health *health.Server

	mu       sync.Mutex
	listener net.Listener
	ready    chan struct{}
}

// NewHealthService creates a HealthService for addr ("host:port"; port 0
// picks a free port).
//
// Precondition: logger must be non-nil.
func NewHealthService(addr string, logger *zap.Logger) *HealthService {
	h := &HealthService{
		addr:   addr,
		logger: logger,
		grpc:   grpc.NewServer(),
		health: health.NewServer(),
		ready:  make(chan struct{}),
	}
	healthpb.RegisterHealthServer(h.grpc, h.health)
	return h
}

// SetServing marks a named component (or "" for the whole process) as
// serving or not.
func (h *HealthService) SetServing(component string, serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus(component, status)
}

// Start listens and serves health checks until Stop.
//
// Postcondition: The process reports SERVING once the listener is open.
func (h *HealthService) Start(context.Context) error {
	lis, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", h.addr, err)
	}
	h.mu.Lock()
	h.listener = lis
	h.mu.Unlock()

	h.SetServing("", true)
	close(h.ready)
	h.logger.Info("health endpoint listening", zap.String("addr", lis.Addr().String()))
	if err := h.grpc.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return err
	}
	return nil
}

// Stop reports NOT_SERVING and drains in-flight checks, forcing the stop
// when ctx expires.
func (h *HealthService) Stop(ctx context.Context) {
	h.health.Shutdown()
	done := make(chan struct{})
	go func() {
		h.grpc.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		h.grpc.Stop()
		<-done
	}
}

// Ready is closed once the listener is open.
func (h *HealthService) Ready() <-chan struct{} { return h.ready }

// Addr returns the bound address, or "" before Start.
func (h *HealthService) Addr() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listener == nil {
		return ""
	}
	return h.listener.Addr().String()
}
