package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bandorder/internal/cli"
	bderrors "github.com/matzehuels/bandorder/pkg/errors"
)

// Exit codes.
const (
	exitError       = 1
	exitInvalidArgs = 2
	exitStalled     = 3
	exitInterrupted = 130 // shell convention for SIGINT
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func run(ctx context.Context) error {
	var verbose bool

	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	setup := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(cli.LogDebug)
		}
		if setup != nil {
			return setup(cmd, args)
		}
		return nil
	}

	return root.ExecuteContext(ctx)
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	case bderrors.Is(err, bderrors.ErrCodeStalled):
		return exitStalled
	}
	switch bderrors.GetCode(err) {
	case bderrors.ErrCodeInvalidInput, bderrors.ErrCodeInvalidSource, bderrors.ErrCodeInvalidPath:
		return exitInvalidArgs
	}
	return exitError
}
