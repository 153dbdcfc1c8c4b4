package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the WAN connection status",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setLogLevel(); err != nil {
			return err
		}

		si, err := newWANClient().StatusInfo(context.Background())
		if err != nil {
			return err
		}

		fmt.Printf("status: %s\n", si.ConnectionStatus)
		fmt.Printf("uptime: %s\n", si.Uptime)
		if si.LastConnectionError != "" {
			fmt.Printf("last_connection_error: %s\n", si.LastConnectionError)
		}

		return nil
	},
}
