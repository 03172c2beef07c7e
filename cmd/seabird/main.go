package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/tailored-agentic-units/seabird/hub"
	"github.com/tailored-agentic-units/seabird/rpc"
)

const shutdownGrace = 10 * time.Second

func main() {
	var (
		configFile    = flag.String("config", "", "Path to hub config JSON file")
		addr          = flag.String("addr", ":11235", "Listen address for the RPC server")
		commandPrefix = flag.String("command-prefix", "", "Command prefix (overrides config)")
		verbose       = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	cfg := hub.DefaultConfig()
	if *configFile != "" {
		loaded, err := hub.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = *loaded
	}
	if *commandPrefix != "" {
		cfg.CommandPrefix = *commandPrefix
	}
	cfg.Logger = logger

	if len(cfg.Tokens) == 0 {
		log.Fatal("No auth tokens configured; refusing to start an open hub")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	h := hub.New(ctx, cfg)
	server := rpc.NewServer(h, logger)

	// The backend ingestion stream is bidirectional, so the listener must
	// speak HTTP/2 without TLS for plaintext deployments.
	var protocols http.Protocols
	protocols.SetHTTP1(true)
	protocols.SetUnencryptedHTTP2(true)

	srv := &http.Server{
		Addr:      *addr,
		Handler:   server.Handler(),
		Protocols: &protocols,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", *addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.String("error", err.Error()))
	}
	h.Shutdown()
}
