// Package app wires the dashboard together: configuration, the settings
// store, the gateway client, the session store and the screen controllers,
// built once and passed down explicitly.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"minishield-dashboard/internal/config"
	"minishield-dashboard/internal/controller"
	"minishield-dashboard/internal/gateway"
	"minishield-dashboard/internal/logger"
	"minishield-dashboard/internal/notify"
	"minishield-dashboard/internal/session"
	"minishield-dashboard/internal/store"
)

// App is the dependency context shared by the CLI and the web facade.
type App struct {
	Config   *config.Config
	Settings *store.Store
	Client   *gateway.Client
	Stream   *gateway.Stream
	Session  *session.Store
	Notifier *notify.Switchable
	Log      *logger.Logger

	Domains *controller.Domains
	Rules   *controller.Rules
	Logs    *controller.Logs
	Status  *controller.Status
}

// Options tune construction. Zero values give the standard CLI setup.
type Options struct {
	// Notifier overrides the default stderr writer.
	Notifier notify.Notifier
	// LogWriter overrides the log destination.
	LogWriter io.Writer
}

// New loads configuration, opens the settings store and builds the full
// dependency graph. Close must be called when done.
func New(opts Options) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	settings, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening settings store: %w", err)
	}

	logWriter := opts.LogWriter
	if logWriter == nil {
		logWriter = os.Stderr
	}
	log := logger.NewWithWriter(logWriter, "dashboard")

	target := opts.Notifier
	if target == nil {
		target = notify.NewWriter(os.Stderr)
	}
	notifier := notify.NewSwitchable(target)

	creds := gateway.NewCredentials(settings)
	client := gateway.New(cfg.NewResolver(settings), creds, notifier, log.WithPrefix("gateway"), cfg.API.RequestTimeout)
	stream := gateway.NewStream(client, log.WithPrefix("stream"))

	return &App{
		Config:   cfg,
		Settings: settings,
		Client:   client,
		Stream:   stream,
		Session:  session.NewStore(),
		Notifier: notifier,
		Log:      log,
		Domains:  controller.NewDomains(client, notifier, log.WithPrefix("domains")),
		Rules:    controller.NewRules(client, notifier, log.WithPrefix("rules")),
		Logs:     controller.NewLogs(client, stream, notifier, log.WithPrefix("logs")),
		Status:   controller.NewStatus(client),
	}, nil
}

// SetAPIURL persists a new backend base address. The gateway client picks
// it up on its next call; nothing restarts.
func (a *App) SetAPIURL(ctx context.Context, url string) error {
	return a.Settings.Set(ctx, store.KeyAPIURL, strings.TrimRight(strings.TrimSpace(url), "/"))
}

// Close releases held resources: the live channel and the settings store.
func (a *App) Close() error {
	a.Logs.Close()
	a.Stream.Close()
	return a.Settings.Close()
}
