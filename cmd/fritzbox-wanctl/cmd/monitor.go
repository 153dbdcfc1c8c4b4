package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fritzbox-tools/fritzbox-wanctl/internal/config"
	"github.com/fritzbox-tools/fritzbox-wanctl/internal/integration/mqtt"
	"github.com/fritzbox-tools/fritzbox-wanctl/internal/metrics"
	"github.com/fritzbox-tools/fritzbox-wanctl/internal/monitor"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Poll the WAN connection and export metrics / MQTT events",
	RunE:  runMonitor,
}

func runMonitor(cmd *cobra.Command, args []string) error {
	tasks := []func() error{
		setLogLevel,
		setSyslog,
		printStartMessage,
		setupMetrics,
	}

	for _, t := range tasks {
		if err := t(); err != nil {
			log.Fatal(err)
		}
	}

	integration, err := setupIntegration()
	if err != nil {
		return err
	}
	if integration != nil {
		defer integration.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := monitor.New(newWANClient(), monitor.Config{
		PollInterval:         config.C.Monitor.PollInterval,
		StateRefreshInterval: config.C.Monitor.StateRefreshInterval,
	}, asIntegration(integration))

	if err := m.Run(ctx); err != nil {
		return err
	}

	log.Warning("shutting down monitor")
	return nil
}

func setupMetrics() error {
	if err := metrics.Setup(config.C); err != nil {
		return errors.Wrap(err, "setup metrics error")
	}
	return nil
}

// setupIntegration returns nil when no MQTT server is configured; the
// monitor then only logs and exports metrics.
func setupIntegration() (*mqtt.Backend, error) {
	if len(config.C.Integration.MQTT.Servers) == 0 {
		log.Info("no mqtt servers configured, mqtt integration disabled")
		return nil, nil
	}

	b, err := mqtt.NewBackend(config.C.Integration.MQTT)
	if err != nil {
		return nil, errors.Wrap(err, "setup mqtt integration error")
	}

	if err := b.Start(); err != nil {
		return nil, errors.Wrap(err, "start mqtt integration error")
	}

	return b, nil
}

// asIntegration converts the typed nil of an absent backend into an
// untyped nil interface.
func asIntegration(b *mqtt.Backend) monitor.Integration {
	if b == nil {
		return nil
	}
	return b
}
