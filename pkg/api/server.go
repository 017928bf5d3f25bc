// Package api serves concept graphs and identifiers over HTTP.
//
// Every read endpoint negotiates its representation from the Accept header
// or a ?format= registry code: JSON views, or the SKOS triples of the
// resource as JSON-LD, Turtle, RDF/XML or N-Triples.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/coolbeans/kmdp/pkg/registry"
	"github.com/coolbeans/kmdp/pkg/skos"
	"github.com/coolbeans/kmdp/pkg/store"
)

// Server is the terminology HTTP server.
type Server struct {
	echo     *echo.Echo
	registry *registry.Registry
	logger   *slog.Logger

	rateLimit    float64
	readTimeout  time.Duration
	writeTimeout time.Duration
	queryTimeout time.Duration

	mu      sync.RWMutex
	graph   *skos.ConceptGraph
	triples *store.TripleStore
}

// Option configures a Server.
type Option func(*Server)

// WithRateLimit limits each client to limit requests per second. Zero
// disables limiting.
func WithRateLimit(limit float64) Option {
	return func(s *Server) {
		s.rateLimit = limit
	}
}

// WithTimeouts sets the read and write timeouts of the HTTP server.
func WithTimeouts(read, write time.Duration) Option {
	return func(s *Server) {
		s.readTimeout = read
		s.writeTimeout = write
	}
}

// WithQueryTimeout bounds the evaluation time of SPARQL queries.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.queryTimeout = d
	}
}

// NewServer creates a server for a graph. reg resolves ?format= codes and
// supplies the prefixes of RDF output; it must not be nil.
func NewServer(graph *skos.ConceptGraph, reg *registry.Registry, logger *slog.Logger, options ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = HTTPErrorHandler

	s := &Server{
		echo:         e,
		registry:     reg,
		logger:       logger,
		queryTimeout: 10 * time.Second,
	}
	for _, option := range options {
		option(s)
	}
	s.SetGraph(graph)

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURI:       true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug("Request served",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID)
			return nil
		},
	}))
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())

	if s.rateLimit > 0 {
		s.echo.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(s.rateLimit))))
	}
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.health)

	schemes := s.echo.Group("/schemes")
	schemes.GET("", s.listSchemes)
	schemes.GET("/:scheme", s.getScheme)
	schemes.GET("/:scheme/concepts", s.listConcepts)
	schemes.GET("/:scheme/concepts/:concept", s.getConcept)

	s.echo.GET("/ids", s.getID)

	s.echo.GET("/sparql", s.sparql)
	s.echo.POST("/sparql", s.sparql)

	reg := s.echo.Group("/registry")
	reg.GET("/languages", s.listEntries(registry.KindLanguage))
	reg.GET("/formats", s.listEntries(registry.KindFormat))
	reg.GET("/lexicons", s.listEntries(registry.KindLexicon))
}

// SetGraph replaces the served graph. Requests in flight keep the graph
// they started with.
func (s *Server) SetGraph(graph *skos.ConceptGraph) {
	var triples *store.TripleStore
	if graph != nil {
		triples = graph.Triples()
	} else {
		triples = store.NewTripleStore()
	}

	s.mu.Lock()
	s.graph = graph
	s.triples = triples
	s.mu.Unlock()

	if graph != nil {
		s.logger.Info("Serving concept graph",
			"schemes", len(graph.SchemeURIs()),
			"concepts", graph.Len())
	}
}

func (s *Server) snapshot() (*skos.ConceptGraph, *store.TripleStore) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph, s.triples
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.echo.Server.ReadTimeout = s.readTimeout
	s.echo.Server.WriteTimeout = s.writeTimeout

	s.logger.Info("Starting terminology server", "address", addr)
	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving on %s: %w", addr, err)
	}
	return nil
}

// Shutdown stops the server, waiting for open requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down terminology server")
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	return nil
}

func (s *Server) health(c echo.Context) error {
	graph, _ := s.snapshot()
	body := map[string]any{"status": "healthy", "schemes": 0, "concepts": 0}
	if graph != nil {
		body["schemes"] = len(graph.SchemeURIs())
		body["concepts"] = graph.Len()
	}
	return c.JSON(http.StatusOK, body)
}
