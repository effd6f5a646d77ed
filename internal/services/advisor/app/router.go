package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/logging"
)

type RouterConfig struct {
	AllowedOrigins []string      `koanf:"allowed_origins"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// Router builds the HTTP API.
func (a *Advisor) Router(rc RouterConfig) http.Handler {
	origins := rc.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	timeout := rc.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", a.HandleHealthz)
	r.Get("/readyz", a.HandleReadyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(timeout))

		r.Post("/crop/recommend", a.HandleCropRecommend)
		r.Get("/crops", a.HandleCrops)

		r.Post("/fertilizer/recommend", a.HandleFertilizerRecommend)
		r.Get("/fertilizer/options", a.HandleFertilizerOptions)

		r.Get("/chat", a.HandleChatGreeting)
		r.Post("/chat", a.HandleChat)
		r.Post("/feedback", a.HandleFeedback)

		r.Get("/guides", a.HandleGuides)
		r.Get("/guides/{topic}", a.HandleGuide)

		r.Get("/climate", a.HandleClimate)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Msg("http request")
	})
}
