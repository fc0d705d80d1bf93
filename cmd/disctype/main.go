// Command disctype prints the media classification of the disc in a drive:
// audio, data, mixed, or unknown.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"discjockey/internal/disc"
)

var version = "dev"

var errUsage = errors.New("usage")

func main() {
	err := newRootCommand(disc.NewProber()).Execute()
	os.Exit(reportError(os.Stderr, err))
}

func newRootCommand(prober disc.Prober) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "disctype <device>",
		Short:         "Print the media type of the disc in a drive",
		Version:       version,
		Args:          singleDevice,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			media, err := classify(prober, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), media)
			return nil
		},
	}
	cmd.SetVersionTemplate("disctype {{.Version}}\n")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})
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

// classify reports the media type. A drive that answers the open but not the
// ioctl is reported as unknown.
func classify(prober disc.Prober, device string) (disc.MediaType, error) {
	media, err := prober.MediaType(device)
	if err != nil {
		var openErr *disc.OpenError
		if errors.As(err, &openErr) || errors.Is(err, disc.ErrEmptyDevice) {
			return "", err
		}
		return disc.MediaUnknown, nil
	}
	return media, nil
}

func reportError(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintf(w, "disctype: %v\n", err)
	if errors.Is(err, errUsage) {
		fmt.Fprintln(w, "Run 'disctype --help' for usage.")
	}
	return 1
}
