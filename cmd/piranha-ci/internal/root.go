package internal

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/bluescarni/piranha-ci/internal/gitinfo"
	"github.com/bluescarni/piranha-ci/internal/matrix"
)

const (
	keyLogLevel    = "log_level"
	keyMetricsFile = "metrics_file"
)

var (
	v          = newViper()
	logger     = newLogger(os.Stderr)
	tagFromGit bool
)

var rootCmd = &cobra.Command{
	Use:   "piranha-ci",
	Short: "piranha-ci provisions, builds and packages piranha on CI",
	Long: `piranha-ci reads the CI job's build type from the environment, installs the
prebuilt dependencies, builds and tests the library and, for Python builds,
packages and publishes the pyranha wheel.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func newViper() *viper.Viper {
	v := matrix.NewViper()
	_ = v.BindEnv(keyLogLevel, "PIRANHA_CI_LOG_LEVEL")
	_ = v.BindEnv(keyMetricsFile, "PIRANHA_CI_METRICS_FILE")
	v.SetDefault(keyLogLevel, "info")
	return v
}

func newLogger(w *os.File) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix:          "piranha-ci",
		ReportTimestamp: true,
	})
}

func init() {
	fs := rootCmd.PersistentFlags()
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("root", "", `filesystem root dependencies are installed under (default C:\)`)
	fs.String("build-type", "", "build type: Release, Debug, Python27, Python34 or Python35")
	fs.String("repo-tag", "", `"true" when the job runs against a tag`)
	fs.String("repo-tag-name", "", "name of the tag the job runs against")
	fs.String("test-nsplit", "", "number of test shards")
	fs.String("split-test-num", "", "index of the test shard to run")
	fs.String("metrics-file", "", "write Prometheus metrics to this file when the run ends")
	fs.BoolVar(&tagFromGit, "tag-from-git", false, "take the release tag from the checkout's HEAD instead of the CI variables")

	bindFlags(fs, map[string]string{
		"log-level":      keyLogLevel,
		"root":           matrix.KeyRoot,
		"build-type":     matrix.KeyBuildType,
		"repo-tag":       matrix.KeyRepoTag,
		"repo-tag-name":  matrix.KeyRepoTagName,
		"test-nsplit":    matrix.KeyTestNSplit,
		"split-test-num": matrix.KeySplitTestNum,
		"metrics-file":   keyMetricsFile,
	})
}

func bindFlags(fs *pflag.FlagSet, keys map[string]string) {
	for flag, key := range keys {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func setup(cmd *cobra.Command, args []string) error {
	level, err := log.ParseLevel(v.GetString(keyLogLevel))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", v.GetString(keyLogLevel), err)
	}
	logger.SetLevel(level)
	return nil
}

// loadConfig resolves the build configuration, optionally taking the tag
// from the local checkout.
func loadConfig() (*matrix.Config, error) {
	if tagFromGit {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		name, ok, err := gitinfo.HeadTag(wd)
		if err != nil {
			return nil, err
		}
		if ok {
			v.Set(matrix.KeyRepoTag, "true")
			v.Set(matrix.KeyRepoTagName, name)
		} else {
			v.Set(matrix.KeyRepoTag, "false")
		}
		logger.Debug("tag from git", "tag", name, "found", ok)
	}
	return matrix.Load(v)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger = logger.With("run", uuid.NewString()[:8])
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		logger.Fatal(err)
	}
}
