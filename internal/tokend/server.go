package tokend

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xela07ax/sentinel-console/internal/infra"
	"github.com/xela07ax/sentinel-console/internal/infra/auth"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Server struct {
	router *chi.Mux
	logger *zap.Logger
}

// NewServer собирает роутер tokend: строгий CORS, рейт-лимит и
// обязательная проверка сессионного токена перед выпуском.
func NewServer(
	cfg infra.TokendConfig,
	handler *Handler,
	validator auth.TokenValidator,
	metrics *Metrics,
	reg *prometheus.Registry,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router: chi.NewRouter(),
		logger: logger.Named("tokend-api"),
	}

	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(CORSMiddleware(cfg.AllowedOrigins))

	// --- 2. ПУБЛИЧНЫЕ РОУТЫ ---
	r.Group(func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		if reg != nil {
			r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		}
	})

	// --- 3. ЗАЩИЩЕННЫЙ ПЕРИМЕТР ---
	r.Group(func(r chi.Router) {
		limiter := rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
		r.Use(RateLimitMiddleware(limiter, metrics))
		r.Use(auth.NewMiddleware(validator, s.logger))

		r.Post("/generateToken", handler.GenerateToken)
	})

	return s
}

// ServeHTTP позволяет использовать Server как стандартный http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
