// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"
	"golang.org/x/time/rate"

	"github.com/ava-labs/avalanchego/utils/logging"

	"github.com/chain4travel/caminodao/config"
)

const baseURL = "/ext"

var (
	_ Server = (*server)(nil)

	errDuplicateRoute = errors.New("route already registered")
)

// Server maintains the HTTP router
type Server interface {
	// AddRoute registers a route to a handler at /ext/[base][endpoint].
	AddRoute(handler http.Handler, base, endpoint string) error
	// AddAliases registers [aliases] for the routes at /ext/[base].
	AddAliases(base string, aliases ...string) error
	// Addr returns the address the server listens on.
	Addr() net.Addr
	// Dispatch starts the API server and blocks until it is shut down.
	Dispatch() error
	// Shutdown this server
	Shutdown() error
}

type server struct {
	// log this server writes to
	log logging.Logger

	shutdownTimeout time.Duration

	router   *router
	listener net.Listener
	srv      *http.Server
}

// New returns an instance of a Server listening on the configured address.
func New(log logging.Logger, cfg config.HTTPConfig) (Server, error) {
	var tlsConfig *tls.Config
	if cfg.TLSEnabled {
		var err error
		tlsConfig, err = newTLSConfig(cfg.TLSKeyFile, cfg.TLSCertFile)
		if err != nil {
			return nil, fmt.Errorf("couldn't load TLS key pair: %w", err)
		}
	}

	listener, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return nil, fmt.Errorf("couldn't listen on %s: %w", cfg.Addr(), err)
	}
	if cfg.MaxConns > 0 {
		listener = netutil.LimitListener(listener, cfg.MaxConns)
	}
	if tlsConfig != nil {
		listener = tls.NewListener(listener, tlsConfig)
	}

	router := newRouter()
	handler := wrapHandler(log, router, cfg)

	log.Info("API created",
		zap.Stringer("address", listener.Addr()),
		zap.Strings("allowedOrigins", cfg.AllowedOrigins),
		zap.Bool("tls", cfg.TLSEnabled),
	)
	return &server{
		log:             log,
		shutdownTimeout: cfg.ShutdownTimeout,
		router:          router,
		listener:        listener,
		srv: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		},
	}, nil
}

// wrapHandler applies compression, rate limiting and CORS to [handler].
func wrapHandler(log logging.Logger, handler http.Handler, cfg config.HTTPConfig) http.Handler {
	handler = gziphandler.GzipHandler(handler)
	if cfg.RateLimit > 0 {
		handler = rateLimit(log, handler, rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst))
	}
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
	}).Handler(handler)
}

func rateLimit(log logging.Logger, handler http.Handler, limiter *rate.Limiter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			log.Debug("rate limited API request",
				zap.String("path", r.URL.Path),
				zap.String("remoteAddr", r.RemoteAddr),
			)
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		handler.ServeHTTP(w, r)
	})
}

func (s *server) AddRoute(handler http.Handler, base, endpoint string) error {
	url := fmt.Sprintf("%s/%s", baseURL, base)
	s.log.Info("adding route",
		zap.String("url", url),
		zap.String("endpoint", endpoint),
	)
	return s.router.AddRouter(url, endpoint, handler)
}

func (s *server) AddAliases(base string, aliases ...string) error {
	url := fmt.Sprintf("%s/%s", baseURL, base)
	endpoints := make([]string, len(aliases))
	for i, alias := range aliases {
		endpoints[i] = fmt.Sprintf("%s/%s", baseURL, alias)
	}
	return s.router.AddAlias(url, endpoints...)
}

func (s *server) Addr() net.Addr {
	return s.listener.Addr()
}

func (s *server) Dispatch() error {
	err := s.srv.Serve(s.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	err := s.srv.Shutdown(ctx)
	cancel()

	// If shutdown times out, make sure the server is still shutdown.
	_ = s.srv.Close()
	return err
}

// router keeps track of the registered routes so that aliases can be added
// and duplicates rejected.
type router struct {
	lock   sync.Mutex
	router *mux.Router

	routes map[string]map[string]http.Handler
}

func newRouter() *router {
	return &router{
		router: mux.NewRouter(),
		routes: make(map[string]map[string]http.Handler),
	}
}

func (r *router) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	r.router.ServeHTTP(writer, request)
}

func (r *router) AddRouter(base, endpoint string, handler http.Handler) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.addRouter(base, endpoint, handler)
}

func (r *router) addRouter(base, endpoint string, handler http.Handler) error {
	if _, exists := r.routes[base][endpoint]; exists {
		return fmt.Errorf("%w: %s%s", errDuplicateRoute, base, endpoint)
	}
	endpoints, exists := r.routes[base]
	if !exists {
		endpoints = make(map[string]http.Handler)
		r.routes[base] = endpoints
	}
	endpoints[endpoint] = handler

	url := base + endpoint
	if strings.HasSuffix(url, "/") {
		r.router.PathPrefix(url).Handler(handler)
	} else {
		r.router.Handle(url, handler)
	}
	return nil
}

func (r *router) AddAlias(base string, aliases ...string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	endpoints := r.routes[base]
	for _, alias := range aliases {
		for endpoint, handler := range endpoints {
			if err := r.addRouter(alias, endpoint, handler); err != nil {
				return err
			}
		}
	}
	return nil
}
