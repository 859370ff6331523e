package cli

import "github.com/spf13/cobra"

func newTxCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tx <hash>",
		Short: "Show a transaction and its execution result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := o.api()
			if err != nil {
				return err
			}
			tx, err := api.GetTx(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tx)
		},
	}
}
