// Package cli wires hierad's cobra command tree: config/logger bootstrap
// in PersistentPreRunE, subcommands for serving and printing the version, with
// a signal.NotifyContext + http.Server.Shutdown graceful-shutdown idiom
// for the serve subcommand.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Polqt/hieraengine/internal/config"
	"github.com/Polqt/hieraengine/internal/logging"
)

var (
	configPath string
	logLevel   string
	logFormat  string

	logger *zap.Logger
	cfg    config.Config
)

// NewRootCommand builds hierad's root cobra.Command.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "hierad",
		Short: "hierad: hierarchical configuration lookup service",
		Long: `hierad is a hierarchical configuration service inspired by Puppet's Hiera.

It serves typed configuration keys resolved across priority-ordered,
fact-parametrised levels, with optional deep-merge across levels.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				loaded.Log.Level = logLevel
			}
			if logFormat != "" {
				loaded.Log.Format = logFormat
			}
			cfg = loaded

			l, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to hierad.yaml (optional)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override configured log level")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "override configured log format (console|json)")

	root.AddCommand(newServeCommand())
	root.AddCommand(newVersionCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print hierad's version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("hierad v0.1.0")
			return nil
		},
	}
}
