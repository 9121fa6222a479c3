package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	apimw "github.com/hamed0406/uptimewalk/internal/httpapi/middleware"
	"github.com/hamed0406/uptimewalk/internal/metrics"
	"github.com/hamed0406/uptimewalk/internal/notify"
	"github.com/hamed0406/uptimewalk/internal/probe"
)

// maxRequestBody caps the size of a POST /walk payload.
const maxRequestBody = 64 << 10

const alertTimeout = 10 * time.Second

type Server struct {
	Logger  *zap.Logger
	Walker  *probe.Walker
	Metrics *metrics.Collector
	// Alerts, when set, receives every failed walk. Delivery is async and
	// never delays the response.
	Alerts notify.Notifier
}

func NewServer(l *zap.Logger, w *probe.Walker, m *metrics.Collector) *Server {
	return &Server{Logger: l, Walker: w, Metrics: m}
}

// Router wires the probe behind auth, per-IP rate limiting and CORS.
// An empty origins list allows any origin.
func (s *Server) Router(keys []string, origins []string, rpm, burst int) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if len(origins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
			MaxAge:         300,
		}))
	}
	if s.Metrics != nil {
		r.Use(s.Metrics.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireKey(keys))
		r.Use(apimw.RateLimit(rpm, burst))
		r.Post("/walk", s.handleWalk)
	})

	return r
}

func (s *Server) handleWalk(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	req, err := probe.ParseRequest(raw)
	if err != nil {
		s.Logger.Info("walk_rejected",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := s.Walker.Walk(r.Context(), req)
	if s.Metrics != nil {
		s.Metrics.Observe(res)
	}
	if a, ok := notify.FromResult(req, res); ok && s.Alerts != nil {
		go s.sendAlert(a)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		s.Logger.Warn("walk_encode_failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) sendAlert(a notify.Alert) {
	ctx, cancel := context.WithTimeout(context.Background(), alertTimeout)
	defer cancel()
	if err := s.Alerts.Notify(ctx, a); err != nil {
		s.Logger.Warn("walk_alert_failed", zap.String("url", a.URL), zap.Error(err))
	}
}
