package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/atinyakov/shortlink/internal/app/server"
	"github.com/atinyakov/shortlink/internal/app/server/grpc"
	"github.com/atinyakov/shortlink/internal/app/service"
	"github.com/atinyakov/shortlink/internal/config"
	"github.com/atinyakov/shortlink/internal/logger"
	"github.com/atinyakov/shortlink/internal/middleware"
	"github.com/atinyakov/shortlink/internal/repository"
	"github.com/atinyakov/shortlink/internal/repository/sqlite"
	"github.com/atinyakov/shortlink/internal/storage"
	"github.com/atinyakov/shortlink/internal/worker"

	_ "net/http/pprof"
)

var buildVersion string
var buildDate string
var buildCommit string

const (
	shutdownTimeout = 10 * time.Second
	pprofAddr       = "localhost:6060"
)

func main() {
	printBuildInfo(os.Stdout)

	options, err := config.Parse()
	if err != nil {
		panic(err)
	}

	log := logger.New()
	if err := log.Init(options.LogLevel, options.LogDevelopment); err != nil {
		panic(err)
	}
	defer func() {
		_ = log.Log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, options, log.Log); err != nil {
		log.Log.Error("shortener stopped with error", zap.Error(err))
		_ = log.Log.Sync()
		panic(err)
	}
}

func printBuildInfo(w io.Writer) {
	orNA := func(s string) string {
		if s == "" {
			return "N/A"
		}
		return s
	}
	fmt.Fprintf(w, "Build version: %s\n", orNA(buildVersion))
	fmt.Fprintf(w, "Build date: %s\n", orNA(buildDate))
	fmt.Fprintf(w, "Build commit: %s\n", orNA(buildCommit))
}

// store is what the application needs from a storage backend.
type store interface {
	service.Storage
	io.Closer
}

type nopCloser struct {
	service.Storage
}

func (nopCloser) Close() error { return nil }

// openStorage picks the backend: Postgres, SQLite, journal file, memory.
func openStorage(ctx context.Context, options *config.Options, zapLogger *zap.Logger) (store, error) {
	switch {
	case options.DatabaseDSN != "":
		zapLogger.Info("using postgres storage")
		db, err := repository.InitDB(ctx, options.DatabaseDSN, zapLogger)
		if err != nil {
			return nil, err
		}
		return struct {
			service.Storage
			io.Closer
		}{repository.CreateURLRepository(db, zapLogger), db}, nil

	case options.SQLitePath != "":
		zapLogger.Info("using sqlite storage", zap.String("path", options.SQLitePath))
		return sqlite.Open(ctx, options.SQLitePath, zapLogger)

	case options.FilePath != "":
		zapLogger.Info("using file storage", zap.String("path", options.FilePath))
		return storage.NewFileStorage(options.FilePath, zapLogger)

	default:
		zapLogger.Info("using in memory storage")
		mem, err := storage.CreateMemoryStorage()
		if err != nil {
			return nil, err
		}
		return nopCloser{mem}, nil
	}
}

func run(ctx context.Context, options *config.Options, zapLogger *zap.Logger) error {
	s, err := openStorage(ctx, options, zapLogger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			zapLogger.Error("cannot close storage", zap.Error(err))
		}
	}()

	gen, err := service.NewGenerator(options.CodeLength, options.CodeAlphabet)
	if err != nil {
		return err
	}

	poolCfg := service.DefaultPoolConfig()
	poolCfg.MinSize = options.PoolMinSize
	poolCfg.MaxSize = options.PoolMaxSize
	poolCfg.BatchSize = options.PoolBatchSize
	pool, err := service.NewCodePool(gen, s, poolCfg, zapLogger)
	if err != nil {
		return err
	}
	pool.Start(ctx)

	urlService, err := service.NewURL(s, gen, pool, zapLogger, service.Policy{
		BaseURL:               options.ResultHostname,
		DefaultExpirationDays: options.DefaultExpirationDays,
		MaxExpirationDays:     options.MaxExpirationDays,
		MaxClickCount:         options.MaxClickCount,
	})
	if err != nil {
		return err
	}
	auth := service.NewAuth(urlService, options.JWTSecret)

	limiter, err := middleware.NewRateLimiter(ctx, middleware.RateLimitOptions{
		Rate:               options.RateLimit,
		RedisAddr:          options.RedisAddr,
		TrustForwardHeader: options.TrustForwardHeader,
	}, zapLogger)
	if err != nil {
		return err
	}
	defer limiter.Close()

	sweeper := worker.NewExpiryWorker(zapLogger, s, time.Duration(options.ExpirySweepSeconds)*time.Second)
	go sweeper.Run(ctx)

	if options.EnablePprof {
		go func() {
			zapLogger.Info("Starting pprof server", zap.String("addr", pprofAddr))
			if err := http.ListenAndServe(pprofAddr, nil); err != nil {
				zapLogger.Error("pprof server error", zap.Error(err))
			}
		}()
	}

	grpcServer := grpc.New(options.GRPCPort, options.TrustedSubnet, urlService, auth, zapLogger)
	go func() {
		if err := grpcServer.Start(); err != nil {
			zapLogger.Error("gRPC server error", zap.Error(err))
		}
	}()
	defer grpcServer.GracefulStop()

	router := server.Init(urlService, auth, server.Options{
		TrustedSubnet: options.TrustedSubnet,
		RateLimiter:   limiter,
	}, zapLogger)

	httpServer := &http.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- serve(httpServer, options, zapLogger)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		zapLogger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func serve(srv *http.Server, options *config.Options, zapLogger *zap.Logger) error {
	var err error
	if options.EnableHTTPS {
		manager := &autocert.Manager{
			Cache:      autocert.DirCache("cache-dir"),
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(certHosts(options.ResultHostname)...),
		}
		srv.Addr = ":443"
		srv.TLSConfig = manager.TLSConfig()

		zapLogger.Info("Server is running with TLS", zap.String("hosts", fmt.Sprint(certHosts(options.ResultHostname))))
		err = srv.ListenAndServeTLS("", "")
	} else {
		zapLogger.Info("Server is running", zap.String("hostname", srv.Addr))
		err = srv.ListenAndServe()
	}

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// certHosts lists the hosts autocert may issue certificates for.
func certHosts(baseURL string) []string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Hostname() == "" {
		return nil
	}
	host := u.Hostname()
	return []string{host, "www." + host}
}
