// Package cli wires configuration, logging and services into the phytod command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marinedrive/phyto-backend/internal/config"
	"github.com/marinedrive/phyto-backend/internal/logging"
)

// Dependencies are the values injected from main
type Dependencies struct {
	Version string
}

// app is the state shared by every subcommand once the root pre-run has loaded it
type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

// Execute runs the command tree and returns the process exit code
func Execute(ctx context.Context, args []string, deps Dependencies, stdout, stderr io.Writer) int {
	cmd := NewRootCommand(deps)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			_, _ = fmt.Fprintln(stderr, err)
		}
		return 1
	}
	return 0
}

// NewRootCommand builds the complete command tree
func NewRootCommand(deps Dependencies) *cobra.Command {
	a := &app{}
	var configPath, logLevel string

	version := deps.Version
	if version == "" {
		version = "dev"
	}

	root := &cobra.Command{
		Use:           "phytod",
		Short:         "Phytoplankton occurrence markers and live detection feed.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			logger, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			a.cfg, a.logger = cfg, logger
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file (default $"+config.EnvConfigPath+").")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level.")

	root.AddCommand(newServeCommand(a))
	root.AddCommand(newDeriveCommand(a))
	root.AddCommand(newTokenCommand(a))
	return root
}
