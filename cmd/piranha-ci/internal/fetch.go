package internal

import (
	"github.com/spf13/cobra"

	"github.com/bluescarni/piranha-ci/internal/fetch"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch URL DEST",
	Short: "Download a URL to a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetch.New(logger).Fetch(cmd.Context(), args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
