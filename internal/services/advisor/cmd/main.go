package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/climate"
	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/logging"
	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/services/advisor/app"
	"github.com/LeonardoBeccarini/eco_crop_advisor/pkg/rabbitmq"
)

func main() {
	cfg, err := Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("advisor: config")
	}
	logging.Init(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// === MQTT (optional) ===
	var pub app.Publisher
	if cfg.MQTT.Enabled() {
		client, err := rabbitmq.Connect(ctx, cfg.MQTT)
		if err != nil {
			logging.Warn().Err(err).Msg("advisor: broker unavailable, events disabled")
		} else {
			pub = rabbitmq.NewPublisher(client, 2*time.Second)
			defer rabbitmq.Close(client)
		}
	}

	// === Climate (optional) ===
	var cl *climate.Client
	if cfg.Climate.APIKey != "" {
		cl = climate.NewClient(cfg.Climate.APIKey, cfg.Climate.BaseURL, cfg.Climate.Timeout)
	}

	advisor := app.NewAdvisor(cfg.AppConfig(), pub, cl)

	// === gRPC health ===
	var gs *grpc.Server
	if cfg.GRPC.Addr != "" {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			logging.Fatal().Err(err).Str("addr", cfg.GRPC.Addr).Msg("advisor: grpc listen")
		}
		gs = grpc.NewServer()
		healthpb.RegisterHealthServer(gs, advisor.Health())
		go func() {
			logging.Info().Str("addr", cfg.GRPC.Addr).Msg("advisor: gRPC health listening")
			if err := gs.Serve(lis); err != nil {
				logging.Error().Err(err).Msg("advisor: grpc server")
			}
		}()
	}

	// === HTTP ===
	hs := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           advisor.Router(cfg.RouterConfig()),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}
	go func() {
		logging.Info().
			Str("addr", cfg.HTTP.Addr).
			Bool("remote_scorer", cfg.Remote.BaseURL != "").
			Bool("events", pub != nil).
			Bool("climate", cl.Enabled()).
			Msg("advisor: HTTP listening")
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("advisor: http server")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("advisor: shutting down")

	advisor.Shutdown()
	shCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(shCtx); err != nil {
		logging.Warn().Err(err).Msg("advisor: http shutdown")
	}
	if gs != nil {
		gs.GracefulStop()
	}
}
