// Command featherd runs the FeatherVault development server: a local,
// API-compatible stand-in for the hosted secret store that the SDK and
// integration tests can run against.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/feathervault/feathervault/internal/emulator"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := emulator.LoadConfig()
	if err != nil {
		logrus.Fatalf("failed to load configuration: %v", err)
	}

	log := emulator.NewLogger(cfg)

	var store emulator.Store
	switch cfg.Store {
	case "redis":
		store, err = emulator.NewRedisStore(cfg.Redis)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to Redis")
		}
		log.WithField("addr", cfg.Redis.Address()).Info("using Redis store")
	default:
		store = emulator.NewMemoryStore()
		log.Info("using in-memory store")
	}
	defer store.Close()

	app := emulator.NewApp(cfg, store, log)

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	if cfg.SweepInterval > 0 {
		sweeper := emulator.NewSweeper(store, log, cfg.SweepInterval)
		go sweeper.Start(sweepCtx)
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down")
		stopSweeper()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.WithError(err).Warn("forced shutdown")
		}
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	log.WithField("addr", addr).Info("featherd listening")
	if err := app.Listen(addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
