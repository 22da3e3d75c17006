// Command cardqueryctl runs translations and maintenance jobs against the
// configured stores without going through the HTTP API.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cardquery/internal/app"
	"github.com/kailas-cloud/cardquery/internal/config"
	logpkg "github.com/kailas-cloud/cardquery/internal/logger"
	"github.com/kailas-cloud/cardquery/internal/metrics"
	"github.com/kailas-cloud/cardquery/internal/version"
)

type rootOptions struct {
	env      string
	logLevel string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "cardqueryctl",
		Short:        "Translate card searches and run cardquery maintenance jobs",
		Version:      version.String(),
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.env, "env", config.GetEnv(), "config environment (config/<env>.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")

	root.AddCommand(
		newTranslateCmd(opts),
		newFallbackCmd(),
		newMineCmd(opts),
		newProcessCmd(opts),
		newSweepCmd(opts),
	)
	return root
}

// withApp loads config, builds the application and hands it to fn.
func withApp(ctx context.Context, opts *rootOptions, fn func(*app.App, config.Config, *zap.Logger) error) error {
	cfg, err := config.Load(opts.env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logpkg.NewLogger(opts.env, opts.logLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	metrics.RegisterTranslationMetrics()
	metrics.RegisterGenerationMetrics()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a, cfg, logger)
}
