package internal

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bluescarni/piranha-ci/internal/build"
	"github.com/bluescarni/piranha-ci/internal/fetch"
	"github.com/bluescarni/piranha-ci/internal/metrics"
	"github.com/bluescarni/piranha-ci/internal/provision"
	"github.com/bluescarni/piranha-ci/internal/run"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Provision, build, test and package the current checkout",
	Long: `Run installs the dependencies of the configured build type, configures and
installs piranha from the current directory, runs its tests and, for Python
builds, packages the wheel and publishes it on release tags.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	manifest, err := provision.DefaultManifest()
	if err != nil {
		return err
	}
	src, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	rec := metrics.New()
	runner := rec.Runner(run.New(logger))
	orch := &build.Orchestrator{
		Runner: runner,
		Provisioner: &provision.Provisioner{
			Fetcher:  fetch.New(logger),
			Runner:   runner,
			Manifest: manifest,
			Logger:   logger,
		},
		Logger:    logger,
		Metrics:   rec,
		SourceDir: src,
		Account:   manifest.Python.Account,
	}

	logger.Info("starting", "build_type", cfg.BuildType.Name(), "release", cfg.Tag.IsRelease)
	err = orch.Run(cmd.Context(), cfg)

	if path := v.GetString(keyMetricsFile); path != "" {
		if werr := rec.WriteFile(path); werr != nil {
			logger.Warn("failed to write metrics", "path", path, "err", werr)
		}
	}
	return err
}
