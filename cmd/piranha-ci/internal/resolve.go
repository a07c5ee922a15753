package internal

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Print the resolved build configuration",
	Long:  `Resolve validates the CI variables and prints the derived configuration as YAML without touching the filesystem.`,
	Args:  cobra.NoArgs,
	RunE:  runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(cfg.Summary()); err != nil {
		return err
	}
	return enc.Close()
}
