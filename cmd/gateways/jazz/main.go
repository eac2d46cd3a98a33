package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	config "github.com/xilidan/jazz/config/jazz"
	"github.com/xilidan/jazz/gateways/jazz"
	"github.com/xilidan/jazz/gateways/jazz/clients/salute"
	"github.com/xilidan/jazz/pkg/logger"
)

func main() {
	log := logger.New(logger.Config{
		Level:      slog.LevelDebug,
		Output:     os.Stderr,
		AddSource:  true,
		JSONFormat: false,
	})

	cfg := config.MustLoad()
	log.Info("configuration loaded",
		slog.Int("port", cfg.Port),
		slog.String("base_url", cfg.JazzBaseURL),
		slog.Bool("sdk_key_set", cfg.SDKKey != ""))

	ctx := logger.WithContext(context.Background(), log)

	rootCtx, cancel := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer cancel()

	if err := run(rootCtx, cfg, log); err != nil {
		log.Error("failed to run()", slog.String("error", err.Error()))

		// A bad credential blob means nothing can work; exit non-zero
		// so the supervisor does not keep a broken gateway alive.
		var cfgErr *salute.ConfigError
		if errors.As(err, &cfgErr) {
			os.Exit(1)
		}
		return
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	srv, err := jazz.New(cfg, log)
	if err != nil {
		return err
	}
	log.Info("jazz gateway instance created")

	return srv.Start(ctx)
}
