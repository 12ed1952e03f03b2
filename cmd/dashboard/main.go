package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/sidlin0932/dht-sensor-monitor/internal/app"
	"github.com/sidlin0932/dht-sensor-monitor/internal/config"
	"github.com/sidlin0932/dht-sensor-monitor/internal/logging"
	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/dashboard/controller"
)

const (
	appName = "dht-dashboard"
	// Default version is "dev" if not set with -ldflags "-X main.version=..."
	version = "dev"
)

const usage = `usage: %s [command]
  serve        run the dashboard (default)
  clear soft   clear live readings on the sensor API
  clear hard   delete all stored history (asks twice)
`

func main() {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg, version, appName)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := os.Args[1:]
	if len(args) == 0 {
		args = []string{"serve"}
	}

	switch args[0] {
	case "serve":
		slog.Info("starting",
			"app", appName,
			"version", version,
			"env", cfg.AppEnv,
			"log_level", cfg.LogLevel.String(),
		)
		if err := app.Run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("run failed", "err", err)
			stop()
			os.Exit(1)
		}
		slog.Info("shutting down")
	case "clear":
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, usage, os.Args[0])
			stop()
			os.Exit(2)
		}
		confirm := controller.NewTerminalConfirmer(os.Stdin, os.Stdout)
		if err := app.Clear(ctx, cfg, http.DefaultClient, app.ClearMode(args[1]), confirm, os.Stdout, logger); err != nil {
			fmt.Fprintf(os.Stderr, "clear %s: %v\n", args[1], err)
			stop()
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		stop()
		os.Exit(2)
	}
}
