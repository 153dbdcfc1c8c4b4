package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var ipCmd = &cobra.Command{
	Use:   "ip",
	Short: "Print the current public IP address",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setLogLevel(); err != nil {
			return err
		}

		ip, err := newWANClient().ExternalIPAddress(context.Background())
		if err != nil {
			return err
		}

		fmt.Println(ip)
		return nil
	},
}
