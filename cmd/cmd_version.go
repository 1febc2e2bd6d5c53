package cmd

import (
	"fmt"

	"github.com/gaze-network/brc20-indexer/modules/brc20"
	"github.com/spf13/cobra"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show brc20-indexer version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), brc20.ClientVersion)
			return nil
		},
	}
}
