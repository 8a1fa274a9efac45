// Package bootstrap assembles the notifier's services from configuration so
// the HTTP server and the CLI share one wiring path.
package bootstrap

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/vetted-notifier/internal/config"
	"github.com/noah-isme/vetted-notifier/internal/database"
	"github.com/noah-isme/vetted-notifier/internal/handler"
	"github.com/noah-isme/vetted-notifier/internal/repository"
	"github.com/noah-isme/vetted-notifier/internal/service"
	"github.com/noah-isme/vetted-notifier/pkg/webhook"
)

// ErrWebhookNotConfigured is returned by deliveries attempted without a webhook url.
var ErrWebhookNotConfigured = errors.New("webhook url not configured")

// App holds the assembled services and the connections they own.
type App struct {
	Config    config.Config
	Logger    zerolog.Logger
	Validate  *validator.Validate
	Notify    service.NotifyService
	Integrity service.IntegrityService
	Redis     *redis.Client
	NATS      *nats.Conn

	closers []func() error
}

// NewLogger builds the root logger at the configured level.
func NewLogger(level string, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		parsed = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(parsed).With().Timestamp().Logger()
}

// New connects to the configured backends and builds the services. Redis and
// NATS are optional; when they are unreachable the notifier runs without
// de-duplication or delivery events and logs a warning.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*App, error) {
	app := &App{
		Config:   cfg,
		Logger:   logger,
		Validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	congrats, closeCongrats, err := database.OpenCongratsStore(cfg.Congrats, logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closeCongrats)

	vetted, closeVetted, hasVetted, err := database.OpenVettedStore(cfg.Vetted, logger)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.closers = append(app.closers, closeVetted)

	var projects repository.ProjectRepository
	if hasVetted {
		projects = vetted.Projects
	} else {
		logger.Warn().Msg("vetted backend not configured; project links will not be verified")
	}

	if cfg.RedisURL != "" {
		client, err := database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable; delivery de-duplication disabled")
		} else {
			app.Redis = client
			app.closers = append(app.closers, client.Close)
		}
	}

	var events service.EventPublisher
	if cfg.NATSURL != "" {
		conn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable; delivery events disabled")
		} else {
			app.NATS = conn
			events = conn
			app.closers = append(app.closers, func() error {
				return conn.Drain()
			})
		}
	}

	sender, err := newSender(cfg.Webhook, logger)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	app.Notify = service.NewNotifyService(congrats, sender, app.Redis, events, app.Validate, service.NotifyConfig{
		DedupeTTL:    cfg.DedupeTTL,
		EventSubject: cfg.NATSSubject,
	}, logger)
	app.Integrity = service.NewIntegrityService(congrats, projects, app.Validate, logger)

	return app, nil
}

// HealthProbes returns probes for the optional connections that are open.
func (a *App) HealthProbes() map[string]handler.HealthProbe {
	probes := map[string]handler.HealthProbe{}
	if a.Redis != nil {
		probes["redis"] = func(ctx context.Context) error {
			return a.Redis.Ping(ctx).Err()
		}
	}
	if a.NATS != nil {
		probes["nats"] = func(context.Context) error {
			if !a.NATS.IsConnected() {
				return nats.ErrConnectionClosed
			}
			return nil
		}
	}
	return probes
}

// Close releases every connection in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newSender(cfg config.WebhookConfig, logger zerolog.Logger) (service.WebhookSender, error) {
	if cfg.URL == "" {
		logger.Warn().Msg("webhook url not configured; notifications will fail")
		return unconfiguredSender{}, nil
	}
	return webhook.New(webhook.Config{
		URL:             cfg.URL,
		Secret:          cfg.Secret,
		Timeout:         cfg.Timeout,
		MaxRetries:      cfg.MaxRetries,
		InitialInterval: cfg.InitialInterval,
		MaxInterval:     cfg.MaxInterval,
	}, logger)
}

type unconfiguredSender struct{}

func (unconfiguredSender) Send(context.Context, interface{}) (webhook.Result, error) {
	return webhook.Result{}, ErrWebhookNotConfigured
}
