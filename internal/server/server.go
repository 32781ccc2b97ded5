// Package server exposes the proxy pipeline over HTTP with gin.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loykin/curlproxy/internal/auth/jwtauth"
	"github.com/loykin/curlproxy/internal/common"
	"github.com/loykin/curlproxy/internal/constants"
	"github.com/loykin/curlproxy/internal/proxy"
	"github.com/loykin/curlproxy/internal/store"
)

// Config holds the HTTP surface settings.
type Config struct {
	Addr            string
	BasePath        string
	CORSOrigin      string
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Environments maps an /execute env name to its base URL.
	Environments map[string]string
	// ExecutePath and ExecuteParameters are templates with a {smid} placeholder.
	ExecutePath       string
	ExecuteParameters string

	JWT jwtauth.VerifyConfig
}

// DefaultEnvironments returns the built-in env → base URL table.
func DefaultEnvironments() map[string]string {
	envs := make(map[string]string, len(constants.DefaultEnvironments))
	for _, e := range constants.DefaultEnvironments {
		envs[e] = fmt.Sprintf(constants.DefaultEnvURLTemplate, e)
	}
	return envs
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Addr) == "" {
		c.Addr = constants.DefaultServerAddr
	}
	c.BasePath = "/" + strings.Trim(strings.TrimSpace(c.BasePath), "/")
	if c.BasePath == "/" {
		c.BasePath = constants.DefaultBasePath
	}
	if c.CORSOrigin == "" {
		c.CORSOrigin = constants.DefaultCORSOrigin
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = constants.DefaultReadTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = constants.DefaultShutdownTimeout
	}
	if len(c.Environments) == 0 {
		c.Environments = DefaultEnvironments()
	} else {
		envs := make(map[string]string, len(c.Environments))
		for k, v := range c.Environments {
			envs[strings.ToLower(strings.TrimSpace(k))] = strings.TrimRight(v, "/")
		}
		c.Environments = envs
	}
	if c.ExecutePath == "" {
		c.ExecutePath = constants.DefaultExecutePath
	}
	if c.ExecuteParameters == "" {
		c.ExecuteParameters = constants.DefaultExecuteParameters
	}
	return c
}

// RunStore is the read side of the execution history.
type RunStore interface {
	List(ctx context.Context, limit int) ([]store.Run, error)
	Get(ctx context.Context, id string) (*store.Run, error)
}

// Server serves the proxy routes.
type Server struct {
	cfg    Config
	svc    *proxy.Service
	runs   RunStore
	logger *common.Logger
	engine *gin.Engine
}

// New builds the gin engine. runs may be nil when history is disabled.
func New(cfg Config, svc *proxy.Service, runs RunStore, logger *common.Logger) *Server {
	if logger == nil {
		logger = common.GetLogger()
	}
	s := &Server{
		cfg:    cfg.withDefaults(),
		svc:    svc,
		runs:   runs,
		logger: logger.WithComponent("server"),
	}
	s.engine = s.routes()
	return s
}

// Handler returns the http.Handler serving every route.
func (s *Server) Handler() http.Handler { return s.engine }

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.cfg.Addr }

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", ln.Addr().String(), "base_path", s.cfg.BasePath)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server", "timeout", s.cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
