package internal

import (
	"github.com/spf13/cobra"

	"github.com/bluescarni/piranha-ci/internal/fsutil"
)

var purgeCmd = &cobra.Command{
	Use:   "purge PATH...",
	Short: "Remove files, symlinks or directory trees",
	Long:  `Purge removes each path whether it is a directory, a file or a symlink. Symlinks are never followed and missing paths are ignored.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, p := range args {
			if err := fsutil.Purge(p); err != nil {
				return err
			}
			logger.Debug("purged", "path", p)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(purgeCmd)
}
