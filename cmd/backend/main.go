package main

import (
	"chat-app/auth"
	"chat-app/backend"
	"chat-app/internal"
	"chat-app/transport"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-chi/chi/v5"
	"github.com/mama165/sdk-go/logs"
)

const (
	exitOK = iota
	exitRuntime
	exitConfig
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	config, err := internal.LoadBackendConfig()
	if err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	svc := backend.New(log, db, backend.Options{
		JWTSecret:     config.JWTSecret,
		TokenDuration: config.AuthTokenDuration,
		PublicBaseURL: config.ObjectBaseURL(),
		HashParams:    auth.DefaultHashParams,
	})

	// gRPC API
	address := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	grpcServer := transport.NewServer(log, svc, svc)

	// Object downloads, plus the key inspector when enabled
	router := chi.NewRouter()
	router.Mount("/", svc.Objects.Handler())
	if config.DebugInspect {
		started := time.Now()
		router.Get("/debug/inspect", internal.InspectHandler(db, nil, func() map[string]any {
			return map[string]any{"Uptime": time.Since(started).Round(time.Second).String()}
		}))
	}
	httpServer := &http.Server{
		Addr:              net.JoinHostPort(config.Host, strconv.Itoa(config.HTTPPort)),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 2)
	go func() {
		if err := grpcServer.Serve(listener); err != nil {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()
	go func() {
		log.Info("Starting object server", "address", httpServer.Addr, "public_url", config.ObjectBaseURL())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("object server error: %w", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		config.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"grpc": func(ctx context.Context) error {
				// Open watch streams only end when cancelled
				done := make(chan struct{})
				go func() {
					grpcServer.GracefulStop()
					close(done)
				}()
				select {
				case <-done:
					return nil
				case <-ctx.Done():
					grpcServer.Stop()
					return ctx.Err()
				}
			},
			"http": func(ctx context.Context) error {
				return httpServer.Shutdown(ctx)
			},
		},
	)

	select {
	case code := <-wait:
		log.Info("Backend stopped", "exit_code", code)
		if code != 0 {
			return exitRuntime, fmt.Errorf("shutdown finished with code %d", code)
		}
		return exitOK, nil
	case err := <-errChan:
		return exitRuntime, err
	}
}
