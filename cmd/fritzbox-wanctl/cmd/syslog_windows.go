//go:build windows

package cmd

import (
	"github.com/pkg/errors"

	"github.com/fritzbox-tools/fritzbox-wanctl/internal/config"
)

func setSyslog() error {
	if config.C.General.LogToSyslog {
		return errors.New("syslog logging is not supported on windows")
	}
	return nil
}
