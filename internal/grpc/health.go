package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health/grpc_health_v1"
)

const defaultWatchInterval = 5 * time.Second

// Pinger is a dependency whose reachability decides health, such as the
// snapshot store.
type Pinger interface {
	Ping() error
}

// HealthReporter is a long-lived connection that reports its own health,
// such as the event publisher.
type HealthReporter interface {
	IsHealthy() bool
}

// HealthServer implements the gRPC health checking protocol
type HealthServer struct {
	grpc_health_v1.UnimplementedHealthServer
	store         Pinger
	publisher     HealthReporter
	log           *zap.Logger
	watchInterval time.Duration
}

// NewHealthServer creates a new health check server. publisher may be nil
// when events are disabled.
func NewHealthServer(store Pinger, publisher HealthReporter, log *zap.Logger) *HealthServer {
	return &HealthServer{
		store:         store,
		publisher:     publisher,
		log:           log,
		watchInterval: defaultWatchInterval,
	}
}

func (h *HealthServer) status() grpc_health_v1.HealthCheckResponse_ServingStatus {
	if err := h.store.Ping(); err != nil {
		h.log.Error("Snapshot store health check failed", zap.Error(err))
		return grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}

	if h.publisher != nil && !h.publisher.IsHealthy() {
		h.log.Error("RabbitMQ health check failed")
		return grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}

	return grpc_health_v1.HealthCheckResponse_SERVING
}

// Check implements the health check
func (h *HealthServer) Check(ctx context.Context, req *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	return &grpc_health_v1.HealthCheckResponse{Status: h.status()}, nil
}

// Watch sends the current status, then every change until the client goes away
func (h *HealthServer) Watch(req *grpc_health_v1.HealthCheckRequest, server grpc_health_v1.Health_WatchServer) error {
	last := h.status()
	if err := server.Send(&grpc_health_v1.HealthCheckResponse{Status: last}); err != nil {
		return err
	}

	ticker := time.NewTicker(h.watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-server.Context().Done():
			return nil
		case <-ticker.C:
			current := h.status()
			if current == last {
				continue
			}
			last = current
			if err := server.Send(&grpc_health_v1.HealthCheckResponse{Status: current}); err != nil {
				return err
			}
		}
	}
}
