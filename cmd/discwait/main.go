// Command discwait blocks until a drive reports loaded media, then prints the
// media classification. It is meant for scripts that need to wait for a disc.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"discjockey/internal/daemonize"
	"discjockey/internal/disc"
)

var version = "dev"

var (
	errUsage      = errors.New("usage")
	errTerminated = errors.New("terminated before media was detected")
)

func main() {
	err := newRootCommand(disc.NewProber(), time.Second).ExecuteContext(context.Background())
	os.Exit(reportError(os.Stderr, err))
}

// newRootCommand builds the command. unit scales the -d value and is a second
// outside tests.
func newRootCommand(prober disc.Prober, unit time.Duration) *cobra.Command {
	var delay int
	var pidFile string
	var quiet bool

	cmd := &cobra.Command{
		Use:           "discwait [flags] <device>",
		Short:         "Wait for media in a drive and print its type",
		Version:       version,
		Args:          singleDevice,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if delay < 1 {
				return fmt.Errorf("%w: invalid delay %d (must be at least 1 second)", errUsage, delay)
			}
			device := args[0]

			var openErr *disc.OpenError
			if _, err := prober.DriveStatus(device); errors.As(err, &openErr) || errors.Is(err, disc.ErrEmptyDevice) {
				return err
			}

			if pidFile != "" {
				if err := daemonize.WritePID(pidFile); err != nil {
					return fmt.Errorf("write pid file: %w", err)
				}
				defer os.Remove(pidFile)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if _, err := disc.WaitForMedia(ctx, prober, device, time.Duration(delay)*unit); err != nil {
				if errors.Is(err, context.Canceled) {
					return errTerminated
				}
				return err
			}
			if quiet {
				return nil
			}

			media, err := prober.MediaType(device)
			if err != nil {
				media = disc.MediaUnknown
			}
			fmt.Fprintln(cmd.OutOrStdout(), media)
			return nil
		},
	}
	cmd.SetVersionTemplate("discwait {{.Version}}\n")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})

	cmd.Flags().IntVarP(&delay, "delay", "d", 5, "Seconds between checks")
	cmd.Flags().StringVarP(&pidFile, "pidfile", "p", "", "Write the process ID to this file")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print the disc type")
	return cmd
}

func singleDevice(_ *cobra.Command, args []string) error {
	switch {
	case len(args) == 0:
		return fmt.Errorf("%w: no devices specified", errUsage)
	case len(args) > 1:
		return fmt.Errorf("%w: too many devices specified", errUsage)
	}
	return nil
}

// reportError maps err to the exit status: 2 when interrupted by a signal,
// 1 for any other failure.
func reportError(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, errTerminated) {
		return 2
	}
	fmt.Fprintf(w, "discwait: %v\n", err)
	if errors.Is(err, errUsage) {
		fmt.Fprintln(w, "Run 'discwait --help' for usage.")
	}
	return 1
}
