// Package server initializes and runs the chat assistant server. It selects
// storage and throttle backends from configuration, wires the services and
// runs the HTTP server until a termination signal arrives.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/chatassist/internal/logging"
	"github.com/dmitrijs2005/chatassist/internal/server/auth"
	"github.com/dmitrijs2005/chatassist/internal/server/completion"
	"github.com/dmitrijs2005/chatassist/internal/server/config"
	"github.com/dmitrijs2005/chatassist/internal/server/httpapi"
	"github.com/dmitrijs2005/chatassist/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/chatassist/internal/server/services"
	"github.com/dmitrijs2005/chatassist/internal/server/throttle"
	"github.com/dmitrijs2005/chatassist/internal/server/uploads"
	"github.com/redis/go-redis/v9"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	repos   repomanager.RepositoryManager
	rdb     *redis.Client
	server  *httpapi.HTTPServer
	closers []io.Closer
}

// NewRedisClient connects to Redis and checks the connection.
func NewRedisClient(ctx context.Context, c *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func needsRedis(c *config.Config) bool {
	return c.StorageBackend == config.BackendRedis || c.ThrottleBackend == config.BackendRedis
}

func newThrottle(c *config.Config, rdb redis.Cmdable) throttle.Throttle {
	p := throttle.Policy{MaxFailures: c.ThrottleMaxFailures, Lockout: c.ThrottleLockout}
	if c.ThrottleBackend == config.BackendRedis {
		return throttle.NewRedis(rdb, p)
	}
	return throttle.NewMemory(p)
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel).With("app", "chatassist")

	app := &App{config: c, logger: logger}

	if needsRedis(c) {
		rdb, err := NewRedisClient(ctx, c)
		if err != nil {
			return nil, err
		}
		app.rdb = rdb
		app.closers = append(app.closers, rdb)
	}

	var rdb redis.Cmdable
	if app.rdb != nil {
		rdb = app.rdb
	}

	repos, err := repomanager.New(ctx, c, rdb, logger)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}
	app.repos = repos
	app.closers = append(app.closers, repos)

	store, err := uploads.NewStore(ctx, c)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("upload store init error: %w", err)
	}

	authSvc := services.NewAuthService(
		repos,
		auth.NewPasswordHasher(c.BcryptCost),
		auth.NewTokenService([]byte(c.SecretKey), c.TokenTTL),
		newThrottle(c, rdb),
		logger.With("module", "auth"),
	)

	var completer services.Completer
	if c.GeminiAPIKey != "" {
		completer = completion.NewGateway(
			completion.NewGeminiClient(c.GeminiBaseURL, c.GeminiAPIKey, c.GeminiTimeout),
			completion.WithModels(c.GeminiModels),
			completion.WithRetry(c.GeminiMaxRetries, c.GeminiRetryDelay),
			completion.WithBudget(httpapi.CompletionBudget),
			completion.WithLogger(logger.With("module", "completion")),
		)
	} else {
		logger.Warn(ctx, "GOOGLE_GENERATIVE_AI_API_KEY is not set, completion is disabled")
	}
	chatSvc := services.NewChatService(repos, completer, logger.With("module", "chats"))
	uploadSvc := uploads.NewService(store, c.UploadMaxBytes, logger.With("module", "uploads"))

	opts := httpapi.Options{
		SecureCookie:      c.IsProduction(),
		ProtectedPrefixes: c.ProtectedPrefixes,
	}
	if local, ok := store.(*uploads.LocalStore); ok {
		opts.StaticDir = local.Dir()
		opts.StaticPrefix = local.URLPrefix()
	}

	app.server = httpapi.NewHTTPServer(c.HTTPAddr, logger, authSvc, chatSvc, uploadSvc, opts)

	logger.Info(ctx, "app initialized",
		"storage", c.StorageBackend,
		"throttle", c.ThrottleBackend,
		"uploads", c.UploadBackend,
		"environment", c.Environment,
	)
	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return err
	}
	return nil
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// releases storage connections.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var (
		wg     sync.WaitGroup
		runErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		runErr = app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.Close(); err != nil {
		app.logger.Error(ctx, "close failed", "error", err.Error())
	}
	app.logger.Info(ctx, "App stopped")
	return runErr
}

// Close releases resources in reverse order of acquisition.
func (app *App) Close() error {
	var first error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	app.closers = nil
	return first
}
