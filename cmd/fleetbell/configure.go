package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/nhle/fleetbell/internal/credential"
	"github.com/nhle/fleetbell/internal/model"
	"github.com/nhle/fleetbell/internal/ui/config"
)

// configure edits the settings interactively, writes them to path and
// optionally checks the backend with the stored token.
func configure(cfg *model.AppConfig, path string) error {
	form := config.NewForm(cfg)
	if err := form.Build().Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return fmt.Errorf("reading settings: %w", err)
	}

	next := form.Apply()
	if err := next.Validate(); err != nil {
		return err
	}
	if err := model.SaveConfig(path, next); err != nil {
		return err
	}
	fmt.Println("settings saved to", path)

	creds, err := credential.Open()
	if err != nil {
		return err
	}
	if token := strings.TrimSpace(form.Token); token != "" {
		if err := creds.Set(credential.BackendTokenKey, token); err != nil {
			return err
		}
	}
	if !form.Check {
		return nil
	}

	token, err := creds.BackendToken()
	if err != nil {
		return err
	}
	n, err := config.CheckBackend(context.Background(), next, token)
	if err != nil {
		return fmt.Errorf("backend check: %w", err)
	}
	fmt.Printf("backend reachable, %d unread notifications\n", n)
	return nil
}
