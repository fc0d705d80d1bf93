package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"discjockey/internal/config"
	"discjockey/internal/deps"
)

func newConfigCommand(configPath *string) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(configPath))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a sample configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the devices list before starting discjockey.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the configuration and report problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, resolved, exists, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if exists {
				fmt.Fprintf(out, "Configuration %s is valid\n", resolved)
			}
			fmt.Fprintf(out, "Devices: %s\n", strings.Join(cfg.Supervisor.Devices, ", "))
			handler := deps.CheckBinaries([]deps.Requirement{deps.HandlerRequirement(cfg.Supervisor.Handler)})[0]
			if handler.Available {
				fmt.Fprintf(out, "Handler: %s (%s)\n", handler.Command, handler.Path)
			} else {
				fmt.Fprintf(out, "Handler: %s (%s)\n", handler.Command, handler.Detail)
			}
			fmt.Fprintf(out, "Rescan interval: %s\n", cfg.RescanDuration())
			if cfg.Daemonize() {
				fmt.Fprintf(out, "Daemonize: yes (pid file %s, output %s)\n", cfg.Daemon.PIDFile, cfg.Daemon.Output)
			} else {
				fmt.Fprintln(out, "Daemonize: no")
			}
			return nil
		},
	}
}
