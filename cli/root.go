package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/warp/budget-engine/config"
	"github.com/warp/budget-engine/logging"
)

type rootOptions struct {
	logLevel  string
	logFormat string
}

// NewRootCmd builds the planner command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "planner",
		Short:         "Budget projection and debt payoff planner",
		Long:          "Project a monthly budget across past and future months and simulate snowball or avalanche debt payoff.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format (text, json); overrides LOG_FORMAT")

	root.AddCommand(
		newServeCmd(opts),
		newSimulateCmd(opts),
		newStrategiesCmd(),
		newScenariosCmd(),
	)
	return root
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies the persistent flags.
func (o *rootOptions) loadConfig() *config.Config {
	cfg := config.Load()
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}
	return cfg
}

func newLogger(cfg *config.Config, component string) *slog.Logger {
	lc := cfg.Logging(component)
	lc.Output = os.Stderr
	return logging.New(lc)
}
