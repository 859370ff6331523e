package cli

import (
	"fmt"

	"github.com/Adda-Baaj/stargate-client/pkg/stargate"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newBalanceCmd(o *options) *cobra.Command {
	var legacy bool

	cmd := &cobra.Command{
		Use:   "balance <address> <denom>",
		Short: "Show the balance of one denom",
		Long: `Show the balance of one denom held by an address.

The default query passes the denom as a query parameter, so IBC denoms
such as ibc/27394FB0... work. --legacy uses the older path form, which
cannot address denoms containing a slash.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := o.api()
			if err != nil {
				return err
			}

			var resp *stargate.BalanceResponse
			if legacy {
				resp, err = api.GetAccountBalanceLegacy(cmd.Context(), args[0], args[1])
			} else {
				resp, err = api.GetAccountBalance(cmd.Context(), args[0], args[1])
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := printJSON(out, resp); err != nil {
				return err
			}
			// The JSON is the result; the decimal line is only a summary.
			amount, err := resp.Balance.Decimal()
			if err != nil {
				return nil
			}
			_, err = fmt.Fprintf(out, "%s %s\n", color.GreenString(amount.String()), resp.Balance.Denom)
			return err
		},
	}
	cmd.Flags().BoolVar(&legacy, "legacy", false, "use the path-based balance endpoint")
	return cmd
}
