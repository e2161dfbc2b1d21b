package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/turtacn/riskengine/internal/app"
	"github.com/turtacn/riskengine/internal/config"
	"github.com/turtacn/riskengine/internal/infrastructure/monitoring"
)

type options struct {
	configFile string
	logLevel   string
}

// NewRootCommand builds the riskctl command tree.
// NewRootCommand 构建 riskctl 命令树。
func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "riskctl",
		Short: "Operate the risk engine from the command line",
		Long: `riskctl runs assessments, portfolio roll-ups and alert sweeps directly
against the risk engine's storage, using the same configuration as the server.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "path to the configuration file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level for diagnostic output")

	root.AddCommand(
		newAssessCommand(opts),
		newPortfolioCommand(opts),
		newTrendCommand(opts),
		newSweepCommand(opts),
		newAlertCommand(opts),
	)
	return root
}

// Execute is the main entry point for the CLI application.
// Execute 是 CLI 应用程序的主入口点。
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withContainer loads configuration, builds the engine, runs fn and releases
// everything afterwards.
func withContainer(cmd *cobra.Command, opts *options, fn func(ctx context.Context, c *app.Container) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Diagnostics go to stderr so stdout stays machine readable.
	log, err := monitoring.NewZapLogger(&config.LogConfig{Level: opts.logLevel, Format: "console", OutputPath: "stderr"})
	if err != nil {
		return err
	}
	cfg, err := config.NewLoader(log).Load(opts.configFile)
	if err != nil {
		return err
	}
	c, err := app.New(ctx, cfg, log, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := c.Close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(ctx, c)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
