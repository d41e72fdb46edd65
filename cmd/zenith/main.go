package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zenith-desktop/zenith/internal/app"
	"github.com/zenith-desktop/zenith/internal/config"
	"github.com/zenith-desktop/zenith/internal/logging"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(viper.New()).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "zenith: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:   "zenith",
		Short: "Match the desktop wallpaper to the weather outside",
		Long: `zenith looks up your location from your public IP address, fetches the
current weather from Open-Meteo and sets a wallpaper for the conditions.

Running zenith with no command updates the wallpaper once.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, v, func(rt *app.Runtime) error {
				return rt.RunOnce(cmd.Context())
			})
		},
	}

	flags := root.PersistentFlags()
	flags.String("config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/zenith)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Int("interval", 0, "refresh interval in seconds written to a new config.json")
	flags.Bool("progress", false, "show download progress for background images")
	_ = v.BindPFlag(config.KeyConfigDir, flags.Lookup("config-dir"))
	_ = v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	_ = v.BindPFlag(config.KeyInterval, flags.Lookup("interval"))
	_ = v.BindPFlag(config.KeyProgress, flags.Lookup("progress"))

	root.AddCommand(runCmd(v), watchCmd(v), versionCmd())
	return root
}

func runCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Update the wallpaper once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, v, func(rt *app.Runtime) error {
				return rt.RunOnce(cmd.Context())
			})
		},
	}
}

func watchCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep updating the wallpaper at the configured interval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, v, func(rt *app.Runtime) error {
				return rt.Watch(cmd.Context())
			})
		},
	}
	cmd.Flags().String("listen", "", "serve the status API on this address (e.g. 127.0.0.1:7788)")
	_ = v.BindPFlag(config.KeyListen, cmd.Flags().Lookup("listen"))
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "zenith %s\n", version)
		},
	}
}

// withRuntime loads settings, builds the logger and runtime, and runs fn.
func withRuntime(cmd *cobra.Command, v *viper.Viper, fn func(*app.Runtime) error) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	settings, err := config.Load(v)
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(settings.LogLevel)
	if err != nil {
		return err
	}
	logger, closer, err := logging.New(logging.Options{
		Dir:     settings.ConfigDir,
		Level:   level,
		Console: cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer closer.Close()

	rt, err := app.New(settings, logger, app.Options{})
	if err != nil {
		logger.Error("startup failed", "error", err)
		return err
	}
	defer rt.Close()

	return fn(rt)
}
