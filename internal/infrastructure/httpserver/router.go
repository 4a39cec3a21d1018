package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"ArticleHunter/internal/domain"
)

// StateReader exposes the current aggregator state for read-only endpoints.
type StateReader interface {
	Articles() map[string][]domain.MatchedArticle
	Keywords() []domain.Keyword
	SourceDefinitions() []domain.SourceDefinition
}

// RouterDeps wires handlers into the router. Nil handlers are not mounted.
type RouterDeps struct {
	State          StateReader
	WebSocket      http.HandlerFunc
	Metrics        http.Handler
	AllowedOrigins []string
	Logger         *slog.Logger
}

type snapshotResponse struct {
	Articles    map[string][]domain.MatchedArticle `json:"articles"`
	KeywordList []string                           `json:"keywordList"`
	SourceList  []domain.SourceDefinition          `json:"sourceList"`
}

// NewRouter configures all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger(logger))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, map[string]string{"status": "ok"})
	})

	if deps.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", deps.Metrics)
	}
	if deps.WebSocket != nil {
		router.Get("/ws", deps.WebSocket)
	}
	if deps.State != nil {
		router.Get("/api/snapshot", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, logger, snapshotResponse{
				Articles:    deps.State.Articles(),
				KeywordList: domain.Strings(deps.State.Keywords()),
				SourceList:  deps.State.SourceDefinitions(),
			})
		})
	}

	return router
}

func requestLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", chimiddleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, body any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("write response", "error", err)
	}
}
