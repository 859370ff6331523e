package cli

import "github.com/spf13/cobra"

func newAccountCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "account <address>",
		Short: "Show account number, sequence and public key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := o.api()
			if err != nil {
				return err
			}
			account, err := api.GetAccount(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), account)
		},
	}
}
