package main

import (
	"chat-app/app"
	"chat-app/auth"
	"chat-app/backend"
	"chat-app/composer"
	"chat-app/contract"
	"chat-app/internal"
	"chat-app/storage"
	"chat-app/transport"
	"chat-app/ui"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dgraph-io/badger/v4"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
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

// run wires the terminal client. Deferred cleanups run before main exits.
func run() (int, error) {
	config, err := internal.LoadClientConfig()
	if err != nil {
		return exitConfig, err
	}

	// The terminal belongs to the UI, logs go to a file
	logFile, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return exitConfig, fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	log := fileLogger(config.SlogLevel(), logFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cacheDB, err := storage.Open(config.CacheDir)
	if err != nil {
		return exitRuntime, err
	}
	defer func() {
		log.Info("Closing local cache...")
		_ = cacheDB.Close()
	}()

	remote, closeBackend, err := connect(ctx, log, config)
	if err != nil {
		return exitRuntime, err
	}
	defer closeBackend()

	session, err := app.New(app.Deps{
		Log:               log,
		Store:             storage.NewBadgerStore(cacheDB, log),
		Backend:           remote,
		Images:            composer.NewLocalImageSource(nil),
		CredentialSecret:  []byte(config.CredentialSecret),
		MessageCacheLimit: config.MessageCacheLimit,
	})
	if err != nil {
		return exitRuntime, err
	}

	model := ui.New(ctx, log, session)
	final, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if m, ok := final.(ui.Model); ok {
		m.Close()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return exitRuntime, fmt.Errorf("terminal UI: %w", err)
	}
	log.Info("Client stopped cleanly")
	return exitOK, nil
}

// connect dials the configured backend, or embeds one when no address is set.
func connect(ctx context.Context, log *slog.Logger, config internal.ClientConfig) (contract.IBackend, func(), error) {
	if !config.Embedded() {
		conn, err := grpc.NewClient(config.BackendAddr,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithUnaryInterceptor(transport.LoggingInterceptor(log, config.LogPayloads)),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("dial backend %s: %w", config.BackendAddr, err)
		}
		log.Info("Using remote backend", "addr", config.BackendAddr)
		return transport.NewClient(conn), func() { _ = conn.Close() }, nil
	}

	db, err := badger.Open(badger.DefaultOptions(config.Backend.BadgerFilepath).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return nil, nil, fmt.Errorf("open embedded backend store: %w", err)
	}
	svc := backend.New(log, db, backend.Options{
		JWTSecret:     config.Backend.JWTSecret,
		TokenDuration: config.Backend.AuthTokenDuration,
		PublicBaseURL: config.Backend.ObjectBaseURL(),
		HashParams:    auth.DefaultHashParams,
	})

	// Image links must resolve, so the object server runs alongside
	server := &http.Server{
		Addr:    net.JoinHostPort(config.Backend.Host, strconv.Itoa(config.Backend.HTTPPort)),
		Handler: svc.Objects.Handler(),
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Object server failed", "error", err)
		}
	}()
	log.Info("Using embedded backend", "objects", config.Backend.ObjectBaseURL())

	return svc, func() {
		_ = server.Shutdown(context.WithoutCancel(ctx))
		_ = db.Close()
	}, nil
}

// fileLogger writes JSON records to w. The sdk logger takes no writer and
// would print over the TUI.
func fileLogger(level slog.Level, w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
