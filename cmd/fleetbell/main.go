// Command fleetbell is the fleet operator console: it receives push
// notifications, seeds itself from the backend's unread backlog and lets
// the operator work through them in the terminal.
//
// Usage:
//
//	fleetbell [--config path] [run]
//	fleetbell [--config path] login
//	fleetbell [--config path] configure
//	fleetbell [--config path] send --title T --body B [--to routing-key]
//
// The config path can also be set with FLEETBELL_CONFIG.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nhle/fleetbell/internal/logger"
	"github.com/nhle/fleetbell/internal/model"
)

func main() {
	err := newRootCmd().Execute()
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// cli carries state shared by the subcommands once the root command has
// loaded the configuration.
type cli struct {
	flags      *viper.Viper
	cfg        *model.AppConfig
	configPath string
}

func newRootCmd() *cobra.Command {
	c := &cli{flags: viper.New()}

	root := &cobra.Command{
		Use:               "fleetbell",
		Short:             "Fleet operator notification console",
		SilenceUsage:      true,
		Args:              cobra.NoArgs,
		PersistentPreRunE: c.load,
		RunE: func(*cobra.Command, []string) error {
			return runConsole(c.cfg)
		},
	}

	root.PersistentFlags().String("config", model.DefaultConfigPath(), "path to the YAML config file")
	_ = c.flags.BindPFlag("config", root.PersistentFlags().Lookup("config"))
	c.flags.SetEnvPrefix(model.EnvPrefix)
	_ = c.flags.BindEnv("config")

	root.AddCommand(
		c.newRunCmd(),
		c.newLoginCmd(),
		c.newConfigureCmd(),
		c.newSendCmd(),
	)
	return root
}

// load reads the configuration and starts the logger before any
// subcommand runs.
func (c *cli) load(*cobra.Command, []string) error {
	c.configPath = c.flags.GetString("config")

	cfg, err := model.LoadConfig(c.configPath)
	if err != nil {
		return err
	}

	if err := logger.InitializeLogger(logger.Options{
		Level:       cfg.Log.Level,
		File:        cfg.Log.File,
		Development: cfg.Log.Development,
	}); err != nil {
		return err
	}

	c.cfg = cfg
	return nil
}

func (c *cli) newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the console (default)",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return runConsole(c.cfg)
		},
	}
}

func (c *cli) newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Store the backend token in the keyring",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return login()
		},
	}
}

func (c *cli) newConfigureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Edit settings interactively and check the backend",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return configure(c.cfg, c.configPath)
		},
	}
}
