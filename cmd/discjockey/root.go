package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"discjockey/internal/config"
)

type runFunc func(ctx context.Context, cfg *config.Config) error

type rootFlags struct {
	configPath string
	delay      int
	foreground bool
	pidFile    string
	handler    string
	output     string
	classify   bool
	strictReap bool
	grace      int
	udev       bool
	logLevel   string
	logFormat  string
}

func newRootCommand(run runFunc) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "discjockey [flags] device...",
		Short:         "Launch a handler whenever an optical drive reports media",
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(flags.configPath, flags.overrides(cmd.Flags(), args)...)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	rootCmd.SetVersionTemplate("discjockey {{.Version}}\n")
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", config.ErrInvalid, err)
	})

	f := rootCmd.Flags()
	f.IntVarP(&flags.delay, "delay", "d", 0, "Seconds between drive scans (default 5)")
	f.BoolVarP(&flags.foreground, "foreground", "f", false, "Stay in the foreground instead of daemonizing")
	f.StringVarP(&flags.pidFile, "pidfile", "p", "", "Write the supervisor pid to this file")
	f.StringVarP(&flags.handler, "run", "r", "", "Handler to launch for each loaded drive (default \"rip\")")
	f.StringVarP(&flags.output, "output", "o", "", "File receiving daemon and handler output (default /dev/null)")
	f.BoolVar(&flags.classify, "classify", true, "Pass the media type to the handler")
	f.BoolVar(&flags.strictReap, "strict-reap", false, "Treat an exited child that matches no drive as fatal")
	f.IntVar(&flags.grace, "grace", 0, "Seconds to wait for handlers after relaying a shutdown signal (default 3)")
	f.BoolVar(&flags.udev, "udev", false, "Wake early on udev media-change events")
	f.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	f.StringVar(&flags.logFormat, "log-format", "", "Log format (auto, console, json)")

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newProbeCommand(&flags.configPath))
	rootCmd.AddCommand(newConfigCommand(&flags.configPath))

	return rootCmd
}

// overrides turns explicitly set flags and trailing devices into config
// overrides so they take precedence over file values.
func (f *rootFlags) overrides(set *pflag.FlagSet, devices []string) []config.Override {
	var out []config.Override
	changed := func(name string, apply func(*config.Config)) {
		if set.Changed(name) {
			out = append(out, apply)
		}
	}

	changed("delay", func(c *config.Config) { c.Supervisor.RescanInterval = f.delay })
	changed("foreground", func(c *config.Config) { c.Daemon.Foreground = f.foreground })
	changed("pidfile", func(c *config.Config) { c.Daemon.PIDFile = f.pidFile })
	changed("run", func(c *config.Config) { c.Supervisor.Handler = f.handler })
	changed("output", func(c *config.Config) { c.Daemon.Output = f.output })
	changed("classify", func(c *config.Config) { c.Supervisor.ClassifyMedia = f.classify })
	changed("strict-reap", func(c *config.Config) { c.Supervisor.StrictReap = f.strictReap })
	changed("grace", func(c *config.Config) { c.Supervisor.ShutdownGrace = f.grace })
	changed("udev", func(c *config.Config) { c.Supervisor.Udev = f.udev })
	changed("log-level", func(c *config.Config) { c.Logging.Level = f.logLevel })
	changed("log-format", func(c *config.Config) { c.Logging.Format = f.logFormat })

	if len(devices) > 0 {
		list := append([]string(nil), devices...)
		out = append(out, func(c *config.Config) { c.Supervisor.Devices = list })
	}
	return out
}
