package mockserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/netclient/fixture"
	"github.com/kbukum/netclient/logger"
)

// Server serves fixture payloads for clients running in mock server mode.
type Server struct {
	httpServer *http.Server
	engine     atomic.Pointer[gin.Engine]
	handler    http.Handler
	fixtures   fixture.Source
	log        *logger.Logger
	started    time.Time

	mu     sync.RWMutex
	addr   string
	routes []Route
}

// New creates a Server for routes. Fixture-backed routes read from fixtures;
// a nil source behaves as empty. gin's mode is process-wide and left to the
// caller (see SetMode).
func New(cfg Config, routes []Route, fixtures fixture.Source, log *logger.Logger) (*Server, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if fixtures == nil {
		fixtures = fixture.None
	}
	if log == nil {
		log = logger.WithComponent("mockserver")
	}

	s := &Server{
		fixtures: fixtures,
		log:      log,
		started:  time.Now(),
		addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		routes:   routes,
	}
	engine, err := s.build(routes)
	if err != nil {
		return nil, err
	}
	s.engine.Store(engine)

	// HTTP/2 cleartext so h2c-capable clients can exercise the same routes.
	s.handler = h2c.NewHandler(http.HandlerFunc(s.dispatch), &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          seconds(cfg.IdleTimeout),
	})

	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      s.handler,
		ReadTimeout:  seconds(cfg.ReadTimeout),
		WriteTimeout: seconds(cfg.WriteTimeout),
		IdleTimeout:  seconds(cfg.IdleTimeout),
	}
	return s, nil
}

// build assembles an engine serving routes.
func (s *Server) build(routes []Route) (*gin.Engine, error) {
	engine := gin.New()
	engine.Use(recovery(s.log), requestID(), requestLogger(s.log))
	engine.GET(healthPath, s.health)
	for _, r := range routes {
		if err := register(engine, r, s.serve(r)); err != nil {
			return nil, err
		}
	}
	engine.NoRoute(s.notFound)
	engine.NoMethod(s.notFound)
	return engine, nil
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	s.engine.Load().ServeHTTP(w, r)
}

// Reload replaces the route table. Requests in flight finish on the old
// table. On error the current table stays in place.
func (s *Server) Reload(routes []Route) error {
	engine, err := s.build(routes)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.routes = routes
	s.mu.Unlock()
	s.engine.Store(engine)
	s.log.Info("mock routes reloaded", logger.Fields("routes", len(routes)))
	return nil
}

// SetMode selects gin's release or debug mode from the log level. Call it
// once at startup, before any Server is created.
func SetMode(log *logger.Logger) {
	if log.Enabled(zerolog.DebugLevel) {
		gin.SetMode(gin.DebugMode)
		return
	}
	gin.SetMode(gin.ReleaseMode)
}

// register adds r to engine. gin panics on conflicting paths; that is
// reported as an error instead.
func register(engine *gin.Engine, r Route, h gin.HandlerFunc) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("mock: route %s: %v", r, p)
		}
	}()
	engine.Handle(r.method(), r.Path, h)
	return nil
}

func (s *Server) serve(r Route) gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.Delay > 0 {
			timer := time.NewTimer(r.Delay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-c.Request.Context().Done():
				c.Abort()
				return
			}
		}

		body := []byte(r.Body)
		if r.Fixture != "" {
			payload, ok := s.fixtures.Load(r.Fixture)
			if !ok {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":   "fixture not found",
					"fixture": r.Fixture,
				})
				return
			}
			body = payload
		}
		if len(r.Set) > 0 {
			out, err := r.apply(body, c.Param)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "override failed",
					"cause": err.Error(),
				})
				return
			}
			body = out
		}

		for k, v := range r.Headers {
			c.Header(k, v)
		}
		contentType := c.Writer.Header().Get("Content-Type")
		if contentType == "" {
			contentType = "application/json"
		}
		c.Data(r.status(), contentType, body)
	}
}

func (s *Server) notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"error":  "no mock route",
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	})
}

// Handler returns the server's http.Handler, for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Routes returns the registered route table.
func (s *Server) Routes() []Route {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.routes
}

// Start binds the listener and serves in the background. It returns once
// the port is bound; Addr then reports the bound address.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("mock: bind %s: %w", s.httpServer.Addr, err)
	}

	s.mu.Lock()
	s.addr = listener.Addr().String()
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("mock server error", logger.Fields(logger.FieldError, err.Error()))
		}
	}()

	s.log.Info("mock server started", logger.Fields("addr", s.Addr(), "routes", len(s.Routes())))
	return nil
}

// Stop gracefully shuts down the server with a 5-second deadline.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("mock: shutdown: %w", err)
	}
	s.log.Info("mock server stopped")
	return nil
}

// Addr returns the listen address, resolved after Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// URL returns the base URL clients should use as their mock base URL.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}
