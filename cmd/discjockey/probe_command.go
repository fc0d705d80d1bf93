package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"discjockey/internal/config"
	"discjockey/internal/disc"
)

func newProbeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "probe [device...]",
		Short: "Show drive status and media type for each device",
		Long: "Probe each device once and print its drive status and media type.\n" +
			"Without arguments the configured devices are probed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			devices := args
			if len(devices) == 0 {
				cfg, _, _, err := config.Load(*configPath)
				if err != nil {
					return err
				}
				devices = cfg.Supervisor.Devices
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderProbeTable(disc.NewProber(), devices))
			return nil
		},
	}
}

// renderProbeTable probes each device once and lays the results out one row
// per slot. Headers keep their case so they match the config vocabulary.
func renderProbeTable(prober disc.Prober, devices []string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault
	tw.AppendHeader(table.Row{"Slot", "Device", "Status", "Media"})
	for i, device := range devices {
		status, media := probeRow(prober, device)
		tw.AppendRow(table.Row{strconv.Itoa(i), device, status, media})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func probeRow(prober disc.Prober, device string) (string, string) {
	status, err := prober.DriveStatus(device)
	if err != nil {
		var openErr *disc.OpenError
		if errors.As(err, &openErr) {
			return "Unavailable", openErr.Err.Error()
		}
		return "Error", err.Error()
	}
	if !status.MediaPresent() {
		return statusLabel(status.String()), "-"
	}
	media, err := prober.MediaType(device)
	if err != nil {
		return statusLabel(status.String()), string(disc.MediaUnknown)
	}
	return statusLabel(status.String()), string(media)
}

var titleCaser = cases.Title(language.English)

func statusLabel(value string) string {
	return titleCaser.String(strings.ReplaceAll(value, "_", " "))
}
