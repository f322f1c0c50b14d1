// Package server exposes the chat use case to the browser front-end.
package server

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/m-mizutani/parley/pkg/metrics"
	"github.com/m-mizutani/parley/pkg/usecase/chat"
	"github.com/m-mizutani/parley/pkg/usecase/transcript"
)

//go:embed static
var staticFS embed.FS

// maxRequestBody bounds a posted message including an attached image
const maxRequestBody = 20 << 20

// Server routes HTTP requests. It implements http.Handler.
type Server struct {
	chat        *chat.UseCase
	transcripts *transcript.UseCase
	metrics     *metrics.Metrics
	handler     http.Handler
}

type Option func(*Server)

// WithTranscripts enables the transcript endpoints
func WithTranscripts(uc *transcript.UseCase) Option {
	return func(s *Server) {
		s.transcripts = uc
	}
}

// WithMetrics records HTTP metrics and serves them on /metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

func New(chatUC *chat.UseCase, opts ...Option) *Server {
	s := &Server{chat: chatUC}
	for _, opt := range opts {
		opt(s)
	}

	router := mux.NewRouter()
	router.Use(s.withMetrics)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/agents", s.listAgents).Methods(http.MethodGet)
	api.HandleFunc("/agents/{id}/messages", s.getMessages).Methods(http.MethodGet)
	api.HandleFunc("/agents/{id}/messages", s.postMessage).Methods(http.MethodPost)
	api.HandleFunc("/agents/{id}/messages", s.clearMessages).Methods(http.MethodDelete)
	api.HandleFunc("/agents/{id}/transcripts", s.exportTranscript).Methods(http.MethodPost)
	api.HandleFunc("/transcripts", s.listTranscripts).Methods(http.MethodGet)
	api.HandleFunc("/transcripts/{id}", s.getTranscript).Methods(http.MethodGet)

	router.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic("static assets are not embedded: " + err.Error())
	}
	router.PathPrefix("/").Handler(http.FileServer(http.FS(static))).Methods(http.MethodGet)

	s.handler = withLogging(router)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
