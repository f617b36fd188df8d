package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/nikas17mc/digital-technician-dashboard/internal/metrics"
)

// NewRouter wires every route of the workshop API.
func NewRouter(h *Handlers, allowedOrigins []string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Disposition", "X-Export-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Healthz)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/data", func(r chi.Router) {
			r.Post("/add", h.AddEntry)
			r.Post("/clear", h.ClearData)
			r.Get("/filter", h.FilterData)
			r.Get("/summary", h.Summary)
			r.Get("/statistics", h.Statistics)
			r.Post("/import", h.ImportData)
			r.Get("/export", h.ExportData)
			r.Post("/backup", h.BackupData)
		})

		r.Get("/technicians", h.Technicians)

		r.Route("/identifiers", func(r chi.Router) {
			r.Post("/classify", h.Classify)
			r.Get("/{technician}/{status}", h.IdentifierDetails)
		})

		r.Route("/analysis", func(r chi.Router) {
			r.Get("/data", h.AnalysisData)
			r.Get("/report", h.AnalysisReport)
			r.Get("/export/identifiers", h.ExportIdentifiers)
			r.Get("/mismatch", h.Mismatch)
			r.Post("/clear-cache", h.ClearCache)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", h.GetSettings)
			r.Put("/", h.PutSettings)
			r.Get("/export", h.ExportSettings)
			r.Post("/reset", h.ResetSettings)
			r.Post("/backup", h.BackupSettings)
			r.Post("/restore", h.RestoreSettings)
		})
	})

	return r
}

// requestLogger logs every request and records its route metrics under the
// matched chi pattern, so path parameters do not explode label cardinality.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				route := "unmatched"
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					route = rctx.RoutePattern()
				}
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				elapsed := time.Since(start)
				metrics.ObserveHTTP(r.Method, route, status, elapsed)
				logger.Debug("HTTP request",
					zap.String("method", r.Method),
					zap.String("route", route),
					zap.Int("status", status),
					zap.Duration("duration", elapsed),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
