package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/logging"
	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/model/messages"
	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/services/recorder"
	"github.com/LeonardoBeccarini/eco_crop_advisor/pkg/dedup"
	"github.com/LeonardoBeccarini/eco_crop_advisor/pkg/rabbitmq"
)

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func main() {
	// === Config ===
	cfg := struct {
		MQTT rabbitmq.Config

		InfluxURL    string
		InfluxToken  string
		InfluxOrg    string
		InfluxBucket string

		BatchSize     int
		FlushInterval time.Duration
		CacheSize     int
		QueryTimeout  time.Duration

		HTTPPort int
	}{
		MQTT: rabbitmq.Config{
			Host:              envStr("MQTT_HOST", "localhost"),
			Port:              envInt("MQTT_PORT", 1883),
			User:              envStr("MQTT_USER", "guest"),
			Password:          envStr("MQTT_PASSWORD", "guest"),
			ClientID:          envStr("HOSTNAME", "eco-crop-recorder"),
			PersistentSession: true,
			MaxRetries:        envInt("MQTT_MAX_RETRIES", 5),
		},

		InfluxURL:    envStr("INFLUX_URL", "http://localhost:8086"),
		InfluxToken:  os.Getenv("INFLUX_TOKEN"),
		InfluxOrg:    envStr("INFLUX_ORG", "ecocrop"),
		InfluxBucket: envStr("INFLUX_BUCKET", "advisor"),

		BatchSize:     envInt("RECORDER_WRITE_BATCH_SIZE", 20),
		FlushInterval: time.Duration(envInt("RECORDER_WRITE_FLUSH_INTERVAL_MS", 500)) * time.Millisecond,
		CacheSize:     envInt("RECORDER_CACHE_SIZE", 200),
		QueryTimeout:  time.Duration(envInt("RECORDER_QUERY_TIMEOUT_MS", 2000)) * time.Millisecond,

		HTTPPort: envInt("RECORDER_HTTP_PORT", 8081),
	}
	logging.Init(logging.Config{
		Level:  envStr("RECORDER_LOG_LEVEL", "info"),
		Format: envStr("RECORDER_LOG_FORMAT", "json"),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// === InfluxDB ===
	opts := influxdb2.DefaultOptions().
		SetBatchSize(uint(cfg.BatchSize)).
		SetFlushInterval(uint(cfg.FlushInterval.Milliseconds()))
	influx := influxdb2.NewClientWithOptions(cfg.InfluxURL, cfg.InfluxToken, opts)
	defer influx.Close()
	writeAPI := influx.WriteAPI(cfg.InfluxOrg, cfg.InfluxBucket)
	defer writeAPI.Flush()
	pingCtx, pingCancel := context.WithTimeout(ctx, cfg.QueryTimeout)
	influxOK, err := influx.Ping(pingCtx)
	pingCancel()
	if err != nil || !influxOK {
		logging.Warn().Err(err).Str("url", cfg.InfluxURL).Msg("recorder: influx not reachable at startup")
	}
	writer := recorder.NewWriter(writeAPI)
	querier := recorder.NewInfluxQuerier(influx.QueryAPI(cfg.InfluxOrg), cfg.InfluxBucket)
	cache := recorder.NewCache(cfg.CacheSize)

	// === MQTT ===
	client, err := rabbitmq.Connect(ctx, cfg.MQTT)
	if err != nil {
		logging.Fatal().Err(err).Msg("recorder: mqtt connection")
	}
	defer rabbitmq.Close(client)

	// === HTTP ===
	mux := http.NewServeMux()
	mux.Handle("/healthz", recorder.NewHealthHandler(client, influxOK, writer))
	mux.Handle("/readyz", recorder.NewReadyHandler(client, influxOK, writer, 2*time.Second))
	mux.Handle("/predictions/recent", recorder.NewRecentHandler(querier, cache, cfg.QueryTimeout))
	mux.Handle("/metrics", promhttp.Handler())

	hs := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logging.Info().Int("port", cfg.HTTPPort).Msg("recorder: HTTP listening")
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("recorder: http server")
		}
	}()

	// === Consumer ===
	h := recorder.NewMQTTHandler(dedup.New(10*time.Minute, 20000), func(rec recorder.Record) {
		writer.Write(rec)
		if rec.Prediction != nil {
			cache.Add(rec.Timestamp, *rec.Prediction)
		}
	})
	consumer := rabbitmq.NewConsumer(client, map[string]byte{
		messages.PredictionTopicFilter: 1,
		messages.FeedbackTopicFilter:   1,
	}, h.Handle)
	if err := consumer.Run(ctx); err != nil {
		logging.Fatal().Err(err).Msg("recorder: subscribe")
	}

	// === Shutdown ===
	logging.Info().Msg("recorder: shutting down")
	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(shCtx); err != nil {
		logging.Error().Err(err).Msg("recorder: http shutdown")
	}
}
