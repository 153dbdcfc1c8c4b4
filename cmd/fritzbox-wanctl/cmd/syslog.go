//go:build !windows

package cmd

import (
	"log/syslog"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	lsyslog "github.com/sirupsen/logrus/hooks/syslog"

	"github.com/fritzbox-tools/fritzbox-wanctl/internal/config"
)

func setSyslog() error {
	if !config.C.General.LogToSyslog {
		return nil
	}

	hook, err := lsyslog.NewSyslogHook("", "", syslog.LOG_INFO, "fritzbox-wanctl")
	if err != nil {
		return errors.Wrap(err, "new syslog hook error")
	}

	log.AddHook(hook)

	return nil
}
