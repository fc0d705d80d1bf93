package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"discjockey/internal/config"
	"discjockey/internal/daemonrun"
)

var version = "dev"

func main() {
	cmd := newRootCommand(func(ctx context.Context, cfg *config.Config) error {
		return daemonrun.Run(ctx, cfg, daemonrun.Options{})
	})
	err := cmd.ExecuteContext(context.Background())
	os.Exit(reportError(os.Stderr, err))
}

// reportError prints err and maps it to the process exit status: 0 for
// success and 1 for any failure. Configuration and argument errors also
// print a usage hint, which is how scripts and operators tell them apart.
func reportError(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintf(w, "discjockey: %v\n", err)
	if errors.Is(err, config.ErrInvalid) {
		fmt.Fprintln(w, "Run 'discjockey --help' for usage.")
	}
	return 1
}
