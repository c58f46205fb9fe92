package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/spaceone/rest-feeds/internal/runtime"
	"github.com/spaceone/rest-feeds/internal/server/http/controllers"
	feedsvc "github.com/spaceone/rest-feeds/internal/services/feeds"
	logpkg "github.com/spaceone/rest-feeds/pkg/log"
)

// Authenticator inspects a request before routing. A non-nil error rejects
// the request with 401. The default server accepts everything.
type Authenticator func(r *http.Request) error

// Option configures a Server.
type Option func(*Server)

// WithAuthenticator installs an authenticator in front of the mux.
func WithAuthenticator(a Authenticator) Option {
	return func(s *Server) { s.auth = a }
}

type Server struct {
	rt     *runtime.Runtime
	svc    *feedsvc.Service
	srv    *http.Server
	lis    net.Listener
	logger logpkg.Logger
	auth   Authenticator
}

func New(rt *runtime.Runtime, logger logpkg.Logger, opts ...Option) *Server {
	s := &Server{
		rt:     rt,
		svc:    feedsvc.New(rt, logger),
		logger: logger.With(logpkg.Component("http")),
	}
	for _, opt := range opts {
		opt(s)
	}
	mux := http.NewServeMux()
	controllers.NewControllerRegistry(rt, s.svc, s.logger).RegisterAllRoutes(mux)
	s.srv = &http.Server{Handler: cors(s.requestID(s.authenticate(mux)))}
	return s
}

// Service exposes the feeds service backing this server.
func (s *Server) Service() *feedsvc.Service { return s.svc }

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	s.logger.Info("http server listening", logpkg.Str("addr", l.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

// Addr reports the bound listener address, empty before ListenAndServe.
func (s *Server) Addr() string {
	if s.lis == nil {
		return ""
	}
	return s.lis.Addr().String()
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	if s.auth == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.auth(r); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
