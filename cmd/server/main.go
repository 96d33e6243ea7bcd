package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Tyrowin/guildchat/internal/realtime"
	"github.com/Tyrowin/guildchat/internal/server"
	"github.com/Tyrowin/guildchat/internal/store"
	"github.com/Tyrowin/guildchat/internal/store/mysqlstore"
)

type gateway interface {
	realtime.Gateway
	Close() error
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", os.Getenv("GUILDCHAT_CONFIG"), "path to a TOML config file")
	flag.Parse()

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	log, err := server.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw, err := openGateway(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("store opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing store...")
		if err := gw.Close(); err != nil {
			log.Warn("Error closing store", zap.Error(err))
		}
	}()

	srv := server.New(*cfg, gw, log)
	srv.StartHub()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down gracefully...")
		return srv.Shutdown()
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Server stopped cleanly")
	return nil
}

func openGateway(ctx context.Context, cfg server.StoreConfig) (gateway, error) {
	switch cfg.Driver {
	case "sqlite":
		return store.Open(cfg.DSN)
	case "mysql":
		if cfg.DSN == "" {
			return nil, errors.New("mysql driver requires a dsn")
		}
		return mysqlstore.Open(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
