package app

import (
	"github.com/sony/gobreaker"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// RemoteScorerService is the gRPC health service name that follows the
// remote scorer breaker. It is only registered when a remote is configured.
const RemoteScorerService = "ecocrop.RemoteScorer"

func newHealthServer() *health.Server {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	return hs
}

func (a *Advisor) setScorerHealth(s gobreaker.State) {
	status := healthpb.HealthCheckResponse_SERVING
	if s == gobreaker.StateOpen {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	a.health.SetServingStatus(RemoteScorerService, status)
}

// Shutdown flips every service to NOT_SERVING so clients drain.
func (a *Advisor) Shutdown() {
	a.health.Shutdown()
}
