package application

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/eugenenazirov/amplify-core-api/internal/api"
	"github.com/eugenenazirov/amplify-core-api/internal/config"
	"github.com/eugenenazirov/amplify-core-api/internal/validation"
)

// ErrAlreadyStarted is returned by Start when the server is already listening.
var ErrAlreadyStarted = errors.New("application already started")

// State is the lifecycle phase of an App.
type State int32

const (
	StateNotStarted State = iota
	StateListening
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NOT_STARTED"
	case StateListening:
		return "LISTENING"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

// App encapsulates the application dependencies and HTTP server.
type App struct {
	validator *validation.Validator
	metrics   *api.Metrics
	modules   []api.Module
	router    http.Handler
	logger    *zap.Logger
	server    *http.Server

	mu       sync.Mutex
	listener net.Listener
	state    atomic.Int32
}

// New is the composition root. It builds the validation stage, the built-in
// health and metrics modules followed by the given feature modules, the
// router and the HTTP server. Nothing listens until Start.
func New(cfg config.Config, logger *zap.Logger, modules ...api.Module) (*App, error) {
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	for i, module := range modules {
		if module == nil {
			return nil, fmt.Errorf("module %d is nil", i)
		}
	}

	validator := validation.New(validation.Options{
		Whitelist:            true,
		ForbidNonWhitelisted: true,
		ImplicitConversion:   true,
		MaxBodyBytes:         cfg.BodyLimitBytes,
	})

	all := []api.Module{api.NewHealthModule(cfg.Version)}
	routerOpts := []api.RouterOption{
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}

	var metrics *api.Metrics
	if cfg.EnableMetrics {
		metrics = api.NewMetrics()
		all = append(all, metrics)
		routerOpts = append(routerOpts, api.WithMetrics(metrics))
	}
	all = append(all, modules...)

	deps := api.Dependencies{
		Validator: validator,
		Logger:    logger,
	}
	router := api.NewRouter(deps, all, routerOpts...)

	return &App{
		validator: validator,
		metrics:   metrics,
		modules:   all,
		router:    router,
		logger:    logger,
		server:    NewServer(cfg, router),
	}, nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Address(),
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start binds the listening socket, logs the base URL and serves requests in
// a goroutine. A bind failure is returned and leaves the App not started.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.listener != nil {
		return ErrAlreadyStarted
	}

	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.server.Addr, err)
	}
	a.listener = listener
	a.state.Store(int32(StateListening))

	a.logger.Info("application is running", zap.String("url", baseURL(listener.Addr())))

	go func() {
		if err := a.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// State reports whether the server has bound its port.
func (a *App) State() State {
	return State(a.state.Load())
}

// Addr returns the bound address, or nil before Start.
func (a *App) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return nil
	}
	return a.listener.Addr()
}

// URL returns the base URL clients reach the server on, or "" before Start.
func (a *App) URL() string {
	addr := a.Addr()
	if addr == nil {
		return ""
	}
	return baseURL(addr)
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.router
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// baseURL renders addr as an http URL, showing wildcard binds as loopback.
func baseURL(addr net.Addr) string {
	tcpAddr, ok := addr.(*net.TCPAddr)
	if !ok {
		return "http://" + addr.String()
	}

	host := tcpAddr.IP.String()
	switch {
	case tcpAddr.IP == nil || tcpAddr.IP.IsUnspecified() && tcpAddr.IP.To4() != nil:
		host = "127.0.0.1"
	case tcpAddr.IP.IsUnspecified():
		host = "::1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(tcpAddr.Port))
}
