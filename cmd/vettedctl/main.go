// Command vettedctl previews, sends and audits submission notifications
// from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/noah-isme/vetted-notifier/internal/bootstrap"
	"github.com/noah-isme/vetted-notifier/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(loadServices)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadServices(ctx context.Context) (services, func() error, error) {
	cfg, err := config.Load()
	if err != nil {
		return services{}, nil, err
	}

	logger := bootstrap.NewLogger(cfg.LogLevel, os.Stderr)
	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		return services{}, nil, err
	}

	return services{notify: app.Notify, integrity: app.Integrity}, app.Close, nil
}
