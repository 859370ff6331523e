package cli

import (
	"fmt"
	"os"

	"github.com/Adda-Baaj/stargate-client/pkg/stargate"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

func newBroadcastCmd(o *options) *cobra.Command {
	var (
		file string
		mode string
	)

	cmd := &cobra.Command{
		Use:   "broadcast",
		Short: "Submit a signed transaction (not available yet)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			broadcastMode, err := stargate.ParseBroadcastMode(mode)
			if err != nil {
				return err
			}

			var tx stargate.StdTx[jsoniter.RawMessage]
			if file != "" {
				raw, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read tx file: %w", err)
				}
				if err := json.Unmarshal(raw, &tx); err != nil {
					return fmt.Errorf("decode tx file: %w", err)
				}
			}

			api, err := o.api()
			if err != nil {
				return err
			}
			resp, err := stargate.BroadcastTx(cmd.Context(), api, tx, broadcastMode)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "signed transaction JSON")
	cmd.Flags().StringVar(&mode, "mode", "sync", "broadcast mode: sync, async or block")
	return cmd
}
