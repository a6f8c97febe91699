// Package main is the negneg-eq command: it files the exit questionnaire and
// summary of findings for NegNeg cases with the CIP-API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/negneg-eq-submitter/internal/domain"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// Process exit codes
const (
	exitOK         = 0
	exitOther      = 1
	exitInput      = 2
	exitValidation = 3
	exitTransport  = 4
	exitConflict   = 5
	exitConfig     = 6
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, err)
		return exitCode(err)
	}
	return exitOK
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:   "negneg-eq",
		Short: "Submit NegNeg exit questionnaires to the CIP-API",
		Long: `Generates the Exit Questionnaire and Summary of Findings for cases with
no tier 1 or 2 variants ("NegNeg"), validates both and submits them via
the CIP-API.

Credentials and endpoints come from config.yaml (., ./config or
/etc/negneg-eq/) and NEGNEG_EQ_* environment variables, e.g.
NEGNEG_EQ_AUTH_USERNAME and NEGNEG_EQ_AUTH_PASSWORD.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: search ., ./config, /etc/negneg-eq/)")

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return domain.NewError(domain.KindInput, domain.ErrInvalidInput, err.Error(), nil)
	})

	root.AddCommand(
		newSubmitCmd(&configFile),
		newHistoryCmd(&configFile),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "negneg-eq %s\n", version)
		},
	}
}

// exitCode maps an error's kind to the process exit status
func exitCode(err error) int {
	if errors.Is(err, context.Canceled) {
		return exitOther
	}
	switch domain.KindOf(err) {
	case domain.KindInput:
		return exitInput
	case domain.KindValidation:
		return exitValidation
	case domain.KindTransport, domain.KindData:
		return exitTransport
	case domain.KindConflict:
		return exitConflict
	case domain.KindConfig:
		return exitConfig
	default:
		return exitOther
	}
}
