package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newBlockCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "block <latest|height>",
		Short: "Show the latest block, or the transactions at a height",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := o.api()
			if err != nil {
				return err
			}

			if args[0] == "latest" {
				block, err := api.GetLatestBlock(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), block)
			}

			height, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid height %q", args[0])
			}
			detail, err := api.GetBlock(cmd.Context(), height)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), detail)
		},
	}
}
