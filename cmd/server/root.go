package main

import (
	"fmt"
	"os"

	"housing-dashboard/internal/config"
	"housing-dashboard/internal/dataset"
	"housing-dashboard/internal/logging"
	"housing-dashboard/internal/render"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	flagConfig  string
	flagVerbose bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "housing-dashboard",
	Short: "Cascading facet filter dashboard for housing innovation initiatives",
	Long: `housing-dashboard loads a table of housing innovation initiatives and lets
users narrow it by category, subcategory, location, stakeholder and timeline.

Each facet only offers values that still match every other active filter.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd == versionCmd {
			return nil
		}

		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Log.Level, cfg.Log.Development, flagVerbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "housing-dashboard %s (commit: %s)\n", version, commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(facetsCmd)
	rootCmd.AddCommand(versionCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newDatasetCache wires the configured source, the asset gate and the cache
func newDatasetCache(cfg *config.Config, logger *zap.Logger) (*dataset.Cache, dataset.Source, render.Assets, error) {
	assets := render.Assets{Dir: cfg.Assets.Dir, Ext: cfg.AssetExtension()}

	source, err := dataset.NewSource(cfg.Dataset)
	if err != nil {
		return nil, nil, assets, errors.Wrap(err, "dataset source")
	}

	var keep dataset.KeepFunc
	if cfg.Assets.Require {
		keep = assets.Exists
	}
	return dataset.NewCache(source, cfg.Fields, keep, logger), source, assets, nil
}
