package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/fleetbell/internal/app"
	"github.com/nhle/fleetbell/internal/backend"
	"github.com/nhle/fleetbell/internal/credential"
	"github.com/nhle/fleetbell/internal/httpserver"
	"github.com/nhle/fleetbell/internal/logger"
	"github.com/nhle/fleetbell/internal/model"
	"github.com/nhle/fleetbell/internal/normalize"
	"github.com/nhle/fleetbell/internal/notifications"
	"github.com/nhle/fleetbell/internal/push"
	"github.com/nhle/fleetbell/internal/push/amqp"
	"github.com/nhle/fleetbell/internal/store"
)

func runConsole(cfg *model.AppConfig) error {
	ctx := context.Background()
	log := logger.L()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	kv, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("opening %s storage: %w", cfg.Storage.Driver, err)
	}
	defer kv.Close()

	session := store.NewMemoryStore()
	defer session.Close()

	token, err := backendToken()
	if err != nil {
		log.Warn("Backend token unavailable", zap.Error(err))
	}
	api := backend.NewNotifications(
		backend.NewClient(cfg.Backend.BaseURL, token, backend.WithLogger(log)),
		cfg.Backend,
	)

	provider := amqp.NewProvider(cfg.Push.AMQPURL, cfg.Push.Exchange, cfg.Push.AppKey, log)
	defer provider.Close()
	adapter := push.NewAdapter(provider, cfg.Push.AppKey, kv, session, log)

	st := notifications.Create(ctx, kv, api, notifications.WithLogger(log))
	defer st.Dispose()
	defer adapter.Detach()

	if cfg.Metrics.Address != "" {
		srv := httpserver.New(cfg.Metrics.Address, st, log)
		srv.Start()
		defer func() {
			if err := srv.Shutdown(); err != nil {
				log.Error("Error shutting down metrics server", zap.Error(err))
			}
		}()
	}

	log.Info("Starting fleetbell",
		zap.String("backend", cfg.Backend.BaseURL),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("exchange", cfg.Push.Exchange),
		zap.String("timezone", loc.String()),
	)

	p := tea.NewProgram(app.New(app.Deps{
		Store:      st,
		Adapter:    adapter,
		Normalizer: normalize.New(loc),
		Resetter:   api,
		Logger:     log,
	}), tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running console: %w", err)
	}

	log.Info("fleetbell stopped")
	return nil
}

// backendToken reads the bearer token from the environment or keyring.
func backendToken() (string, error) {
	if token := os.Getenv(credential.BackendTokenEnv); token != "" {
		return token, nil
	}
	creds, err := credential.Open()
	if err != nil {
		return "", err
	}
	return creds.BackendToken()
}
