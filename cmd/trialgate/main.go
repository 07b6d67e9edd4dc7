// Command trialgate runs the trial and subscription gate service and its
// operator tooling.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/trialgate/pkg/clientip"
	"github.com/dmitrymomot/trialgate/pkg/identity"
	"github.com/dmitrymomot/trialgate/pkg/logger"
	"github.com/dmitrymomot/trialgate/pkg/requestid"
)

// Version information (set at build time with -ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "trialgate",
		Short:         "Trial codes, subscriptions and device limits for a protected API",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newCodesCmd(),
		newGrantCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "trialgate %s\n", Version)
			if BuildTime != "unknown" {
				fmt.Fprintf(out, "Built: %s\n", BuildTime)
			}
			if GitCommit != "unknown" {
				fmt.Fprintf(out, "Commit: %s\n", GitCommit)
			}
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			log.InfoContext(cmd.Context(), "starting trialgate", slog.String("version", Version))
			return runServer(cmd.Context(), cfg, log)
		},
	}
}

// setup loads the app config and installs the default logger.
func setup() (appConfig, *slog.Logger, error) {
	cfg, err := loadAppConfig()
	if err != nil {
		return appConfig{}, nil, err
	}
	log, err := newLogger(cfg,
		requestid.LoggerExtractor(),
		identity.LoggerExtractor(),
		clientip.LoggerExtractor(),
	)
	if err != nil {
		return appConfig{}, nil, err
	}
	logger.SetAsDefault(log)
	return cfg, log, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
