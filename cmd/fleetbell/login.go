package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/nhle/fleetbell/internal/credential"
)

// login prompts for the backend bearer token and stores it in the keyring.
func login() error {
	var token string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Backend token").
				Description("Bearer token used for the unread backlog and password resets.").
				EchoMode(huh.EchoModePassword).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("token is required")
					}
					return nil
				}).
				Value(&token),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return fmt.Errorf("reading token: %w", err)
	}

	creds, err := credential.Open()
	if err != nil {
		return err
	}
	if err := creds.Set(credential.BackendTokenKey, strings.TrimSpace(token)); err != nil {
		return err
	}

	fmt.Println("token saved")
	return nil
}
