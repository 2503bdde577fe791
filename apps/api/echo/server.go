package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/masomo-web/core"
	"github.com/trezcool/masomo-web/core/actions"
	"github.com/trezcool/masomo-web/core/backend"
	"github.com/trezcool/masomo-web/core/session"
	"github.com/trezcool/masomo-web/core/tenant"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Backend    *backend.Client
		Sessions   session.Accessor
		TenantSvc  *tenant.Service
		Actions    actions.Registry
		Translator ut.Translator
	}

	Server struct {
		ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		ServerDeps: deps,
		app:        echo.New(),
		errors:     make(chan error, 1),
		shutdown:   make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.Conf

	s.app.HideBanner = true
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.New().String() },
	}))
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(sessionMiddleware(s.Sessions, s.Logger))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.Logger, s.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/health", health)

	p := &proxy{client: s.Backend, logger: s.Logger}
	g := s.app.Group("/api")
	registerStudentFiles(g, p) // before the generic :id routes
	registerResources(g, p)
	registerAI(g, p)
	registerDashboard(g, p)
	registerTenantAPI(g, s.TenantSvc)

	registerActions(s.app.Group("/actions"), s.Backend, s.Actions)
}

func (s *Server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

// Start blocks until the server stops; a failure to serve is sent to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
