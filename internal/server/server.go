package server

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spacesedan/emotiflow/config"
	"github.com/spacesedan/emotiflow/internal/models"
	"github.com/spacesedan/emotiflow/internal/sentiment"
	"github.com/spacesedan/emotiflow/web"
)

const APP_TITLE = "Emotion Analyzer"

// Analyzer classifies text into a dominant emotion.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (models.AnalysisResult, error)
}

type readinessCheck struct {
	name string
	fn   func(context.Context) error
}

type Option func(*Server)

// WithReadinessCheck adds a dependency probe to /health/ready.
func WithReadinessCheck(name string, fn func(context.Context) error) Option {
	return func(s *Server) {
		s.checks = append(s.checks, readinessCheck{name: name, fn: fn})
	}
}

type Server struct {
	router     chi.Router
	httpServer *http.Server
	config     *config.Config
	analyzer   Analyzer
	indexPage  []byte
	checks     []readinessCheck
	startTime  time.Time
}

type indexData struct {
	Title        string
	Styles       map[sentiment.Emotion]string
	NeutralStyle string
}

func NewServer(cfg *config.Config, analyzer Analyzer, opts ...Option) (*Server, error) {
	indexPage, err := renderIndex()
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:    chi.NewRouter(),
		config:    cfg,
		analyzer:  analyzer,
		indexPage: indexPage,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerRoutes()

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort("", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s, nil
}

// The page content only depends on config, so it is rendered once.
func renderIndex() ([]byte, error) {
	tmpl, err := template.ParseFS(web.Templates, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("[Server] failed to parse index template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, indexData{
		Title:        APP_TITLE,
		Styles:       sentiment.Styles(),
		NeutralStyle: sentiment.StyleFor(sentiment.Neutral),
	})
	if err != nil {
		return nil, fmt.Errorf("[Server] failed to render index template: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	slog.Info("[Server] Server running",
		slog.String("address", fmt.Sprintf("http://localhost:%s", s.config.Port)))
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("[Server] Shutting down server gracefully...")
	return s.httpServer.Shutdown(ctx)
}
