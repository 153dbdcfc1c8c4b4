package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fritzbox-tools/fritzbox-wanctl/internal/config"
)

func run(cmd *cobra.Command, args []string) error {
	tasks := []func() error{
		setLogLevel,
		setSyslog,
		printStartMessage,
	}

	for _, t := range tasks {
		if err := t(); err != nil {
			log.Fatal(err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := newWANClient()

	ip, err := client.ExternalIPAddress(ctx)
	if err != nil {
		log.WithError(err).Warning("could not read current public ip")
	} else {
		log.WithField("ip", ip).Info("current public ip")
	}

	if err := client.Reconnect(ctx, reconnectConfig()); err != nil {
		return err
	}

	newIP, err := client.ExternalIPAddress(ctx)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"old_ip": ip,
		"new_ip": newIP,
	}).Info("reconnect cycle finished")

	if ip == newIP && ip != "" {
		log.Warning("router reports the same public ip as before the reconnect")
	}

	return nil
}

func setLogLevel() error {
	log.SetLevel(log.Level(uint8(config.C.General.LogLevel)))
	return nil
}

func printStartMessage() error {
	log.WithFields(log.Fields{
		"version": version,
		"url":     config.C.Router.URL,
	}).Info("starting fritzbox-wanctl")
	return nil
}
