package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/huin/goupnp/dcps/internetgateway1"
	"github.com/huin/goupnp/dcps/internetgateway2"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// discovery may hit several multicast timeouts before giving up.
const discoverTimeout = 10 * time.Second

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover WANIPConnection control endpoints via SSDP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setLogLevel(); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), discoverTimeout)
		defer cancel()

		found := 0

		clients2, errs, err := internetgateway2.NewWANIPConnection1ClientsCtx(ctx)
		logDiscoveryErrors("igdv2", errs, err)
		for _, c := range clients2 {
			printService(c.ServiceClient.RootDevice.Device.FriendlyName, c.ServiceClient.Service.String(), c.ServiceClient.Service.ControlURL.Str)
			found++
		}

		clients1, errs, err := internetgateway1.NewWANIPConnection1ClientsCtx(ctx)
		logDiscoveryErrors("igdv1", errs, err)
		for _, c := range clients1 {
			printService(c.ServiceClient.RootDevice.Device.FriendlyName, c.ServiceClient.Service.String(), c.ServiceClient.Service.ControlURL.Str)
			found++
		}

		if found == 0 {
			return fmt.Errorf("no WANIPConnection services discovered")
		}

		return nil
	},
}

func logDiscoveryErrors(generation string, errs []error, err error) {
	if err != nil {
		log.WithError(err).WithField("igd", generation).Debug("discover: discovery error")
	}
	for _, derr := range errs {
		log.WithError(derr).WithField("igd", generation).Debug("discover: device error")
	}
}

func printService(device, service, controlURL string) {
	fmt.Printf("device: %s\n", device)
	fmt.Printf("  service: %s\n", service)
	fmt.Printf("  control_url: %s\n", controlURL)
}
