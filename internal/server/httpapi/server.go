// Package httpapi exposes the chat assistant over a JSON HTTP API: auth
// endpoints that set the session cookie, chat and message management,
// completion and uploads.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/chatassist/internal/logging"
	"github.com/dmitrijs2005/chatassist/internal/server/services"
	"github.com/dmitrijs2005/chatassist/internal/server/uploads"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// DefaultProtectedPrefixes are the paths that require a valid session.
var DefaultProtectedPrefixes = []string{"/api/chats", "/api/chat", "/api/upload"}

const (
	readTimeout     = 15 * time.Second
	WriteTimeout    = 90 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 15 * time.Second

	// CompletionBudget bounds a completion call (all models, retries
	// included) so the reply is written before WriteTimeout closes the
	// connection.
	CompletionBudget = WriteTimeout - 15*time.Second
)

type Options struct {
	// SecureCookie sets the Secure flag on the session cookie.
	SecureCookie      bool
	ProtectedPrefixes []string
	// StaticDir is served under StaticPrefix when both are set (local uploads).
	StaticDir    string
	StaticPrefix string
	// AccessLog receives combined-format access lines; nil means stdout.
	AccessLog io.Writer
}

type HTTPServer struct {
	address string
	auth    *services.AuthService
	chats   *services.ChatService
	uploads *uploads.Service
	logger  logging.Logger
	opts    Options
	handler http.Handler
}

func NewHTTPServer(addr string, l logging.Logger, as *services.AuthService, cs *services.ChatService,
	us *uploads.Service, opts Options) *HTTPServer {
	if len(opts.ProtectedPrefixes) == 0 {
		opts.ProtectedPrefixes = DefaultProtectedPrefixes
	}
	if opts.AccessLog == nil {
		opts.AccessLog = os.Stdout
	}

	s := &HTTPServer{
		address: addr,
		auth:    as,
		chats:   cs,
		uploads: us,
		logger:  l.With("module", "http_server"),
		opts:    opts,
	}
	s.handler = s.buildHandler()
	return s
}

func (s *HTTPServer) Handler() http.Handler {
	return s.handler
}

func (s *HTTPServer) routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/register", s.register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.login).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", s.logout).Methods(http.MethodPost)
	api.HandleFunc("/auth/me", s.me).Methods(http.MethodGet)

	api.HandleFunc("/chats", s.listChats).Methods(http.MethodGet)
	api.HandleFunc("/chats", s.createChat).Methods(http.MethodPost)
	api.HandleFunc("/chats/{chatId}", s.renameChat).Methods(http.MethodPatch)
	api.HandleFunc("/chats/{chatId}", s.deleteChat).Methods(http.MethodDelete)
	api.HandleFunc("/chats/{chatId}/messages", s.listMessages).Methods(http.MethodGet)
	api.HandleFunc("/chats/{chatId}/messages", s.createMessage).Methods(http.MethodPost)
	api.HandleFunc("/chats/{chatId}/messages/{messageId}", s.editMessage).Methods(http.MethodPut)
	api.HandleFunc("/chats/{chatId}/messages/{messageId}", s.deleteMessage).Methods(http.MethodDelete)

	api.HandleFunc("/chat", s.complete).Methods(http.MethodPost)
	api.HandleFunc("/upload", s.upload).Methods(http.MethodPost)

	if s.opts.StaticDir != "" && s.opts.StaticPrefix != "" {
		prefix := "/" + strings.Trim(s.opts.StaticPrefix, "/") + "/"
		r.PathPrefix(prefix).Methods(http.MethodGet, http.MethodHead).
			Handler(http.StripPrefix(prefix, uploadedFiles(s.opts.StaticDir)))
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorMessage(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

func (s *HTTPServer) buildHandler() http.Handler {
	return s.wrap(s.routes())
}

// wrap applies the middleware chain: access log, then panic recovery, then
// the session gate.
func (s *HTTPServer) wrap(h http.Handler) http.Handler {
	h = s.sessionGate(h)
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{s.logger}),
		handlers.PrintRecoveryStack(true),
	)(h)
	return handlers.CombinedLoggingHandler(s.opts.AccessLog, h)
}

func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on l until ctx is cancelled, then shuts down
// gracefully.
func (s *HTTPServer) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: WriteTimeout,
		IdleTimeout:  idleTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		done <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", l.Addr().String())

	if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-done
}

type recoveryLogger struct {
	l logging.Logger
}

func (r recoveryLogger) Println(v ...interface{}) {
	r.l.Error(context.Background(), "panic recovered", "detail", fmt.Sprint(v...))
}
