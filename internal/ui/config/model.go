// Package config is the interactive settings form behind `fleetbell
// configure`.
package config

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/nhle/fleetbell/internal/backend"
	"github.com/nhle/fleetbell/internal/model"
)

// Form holds the editable settings. Fields are bound to the huh inputs, so
// Form must not be copied after Build.
type Form struct {
	BaseURL  string
	Token    string
	AMQPURL  string
	Exchange string
	AppKey   string
	Driver   string
	Path     string
	Redis    string
	Timezone string
	Metrics  string

	// Check asks for a backend round trip after saving.
	Check bool

	base model.AppConfig
}

// NewForm seeds the form from cfg.
func NewForm(cfg *model.AppConfig) *Form {
	return &Form{
		BaseURL:  cfg.Backend.BaseURL,
		AMQPURL:  cfg.Push.AMQPURL,
		Exchange: cfg.Push.Exchange,
		AppKey:   cfg.Push.AppKey,
		Driver:   cfg.Storage.Driver,
		Path:     cfg.Storage.Path,
		Redis:    cfg.Storage.RedisAddr,
		Timezone: cfg.Display.Timezone,
		Metrics:  cfg.Metrics.Address,
		Check:    true,
		base:     *cfg,
	}
}

// Build returns the huh form bound to f.
func (f *Form) Build() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Backend URL").
				Description("Fleet backend root (e.g., https://fleet.example.com)").
				Value(&f.BaseURL).
				Validate(validateURL("http", "https")),
			huh.NewInput().
				Title("Backend token").
				Description("Leave empty to keep the stored token").
				EchoMode(huh.EchoModePassword).
				Value(&f.Token),
		).Title("Backend"),
		huh.NewGroup(
			huh.NewInput().
				Title("AMQP URL").
				Value(&f.AMQPURL).
				Validate(validateURL("amqp", "amqps")),
			huh.NewInput().
				Title("Exchange").
				Value(&f.Exchange).
				Validate(validateRequired("Exchange")),
			huh.NewInput().
				Title("App key").
				Description("Routing key every console is bound to").
				Value(&f.AppKey).
				Validate(validateRequired("App key")),
		).Title("Push"),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Storage").
				Options(
					huh.NewOption("SQLite file", "sqlite"),
					huh.NewOption("Redis", "redis"),
					huh.NewOption("Memory (nothing survives a restart)", "memory"),
				).
				Value(&f.Driver),
			huh.NewInput().
				Title("SQLite path").
				Value(&f.Path),
			huh.NewInput().
				Title("Redis address").
				Value(&f.Redis).
				Validate(validateAddress(true)),
		).Title("Storage"),
		huh.NewGroup(
			huh.NewInput().
				Title("Timezone").
				Description("IANA zone used to stamp receipt times").
				Value(&f.Timezone).
				Validate(validateTimezone),
			huh.NewInput().
				Title("Metrics address").
				Description("Listen address for /metrics and /healthz; empty disables it").
				Placeholder("127.0.0.1:9464").
				Value(&f.Metrics).
				Validate(validateAddress(false)),
			huh.NewConfirm().
				Title("Check the backend after saving?").
				Value(&f.Check),
		).Title("Console"),
	)
}

// Apply returns the configuration the form describes. Settings the form
// does not show are carried over unchanged.
func (f *Form) Apply() *model.AppConfig {
	cfg := f.base
	cfg.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(f.BaseURL), "/")
	cfg.Push.AMQPURL = strings.TrimSpace(f.AMQPURL)
	cfg.Push.Exchange = strings.TrimSpace(f.Exchange)
	cfg.Push.AppKey = strings.TrimSpace(f.AppKey)
	cfg.Storage.Driver = f.Driver
	cfg.Storage.Path = strings.TrimSpace(f.Path)
	cfg.Storage.RedisAddr = strings.TrimSpace(f.Redis)
	cfg.Display.Timezone = strings.TrimSpace(f.Timezone)
	cfg.Metrics.Address = strings.TrimSpace(f.Metrics)
	return &cfg
}

// CheckBackend fetches the unread backlog once and reports how many
// notifications are waiting.
func CheckBackend(ctx context.Context, cfg *model.AppConfig, token string, opts ...backend.Option) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client := backend.NewClient(cfg.Backend.BaseURL, token, opts...)
	items, err := backend.NewNotifications(client, cfg.Backend).FetchUnread(ctx)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// --- Validators ---

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateURL(schemes ...string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("URL is required")
		}
		parsed, err := url.Parse(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("invalid URL: %w", err)
		}
		if parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("URL must include scheme and host (e.g., %s://example.com)", schemes[0])
		}
		for _, scheme := range schemes {
			if parsed.Scheme == scheme {
				return nil
			}
		}
		return fmt.Errorf("URL scheme must be one of %s", strings.Join(schemes, ", "))
	}
}

func validateAddress(required bool) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			if required {
				return fmt.Errorf("address is required")
			}
			return nil
		}
		_, port, err := net.SplitHostPort(s)
		if err != nil {
			return fmt.Errorf("address must be host:port")
		}
		if n, err := strconv.Atoi(port); err != nil || n < 0 || n > 65535 {
			return fmt.Errorf("port must be a number")
		}
		return nil
	}
}

func validateTimezone(s string) error {
	if _, err := time.LoadLocation(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("unknown timezone %q", s)
	}
	return nil
}
