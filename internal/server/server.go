package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"techdoc-rag/internal/rag"
)

// Server exposes the retrieval engine over HTTP.
type Server struct {
	engine    *rag.Engine
	startedAt time.Time
}

func New(engine *rag.Engine) *Server {
	return &Server{engine: engine, startedAt: time.Now()}
}

// Handler builds the route table. All responses are JSON.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ingest", method(http.MethodPost, s.handleIngest))
	mux.HandleFunc("/ingest-json", method(http.MethodPost, s.handleIngestJSON))
	mux.HandleFunc("/ask", method(http.MethodPost, s.handleAsk))
	mux.HandleFunc("/clear", method(http.MethodPost, s.handleClear))
	mux.HandleFunc("/stats", method(http.MethodGet, s.handleStats))
	mux.HandleFunc("/health", method(http.MethodGet, s.handleHealth))
	return requestLogger(mux)
}

func method(want string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != want {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		next(w, r)
	}
}

// requestLogger attaches a request id and logs every request on completion.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		logger := log.With().Str("request_id", reqID).Str("method", r.Method).Str("path", r.URL.Path).Logger()
		ctx := logger.WithContext(r.Context())
		w.Header().Set("X-Request-Id", reqID)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		logger.Info().Dur("elapsed", time.Since(start)).Msg("Request handled")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Error encoding response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func loggerFrom(r *http.Request) *zerolog.Logger {
	return zerolog.Ctx(r.Context())
}
