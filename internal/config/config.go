package config

import (
	"time"

	"github.com/fritzbox-tools/fritzbox-wanctl/internal/integration/mqtt"
)

// Config defines the configuration structure.
type Config struct {
	General struct {
		LogLevel    int  `mapstructure:"log_level"`
		LogToSyslog bool `mapstructure:"log_to_syslog"`
	} `mapstructure:"general"`

	Router struct {
		URL        string        `mapstructure:"url"`
		ControlURL string        `mapstructure:"control_url"`
		Timeout    time.Duration `mapstructure:"timeout"`
	} `mapstructure:"router"`

	Reconnect struct {
		SettleDelay  time.Duration `mapstructure:"settle_delay"`
		PollInterval time.Duration `mapstructure:"poll_interval"`
		MaxWait      time.Duration `mapstructure:"max_wait"`
	} `mapstructure:"reconnect"`

	Monitor struct {
		PollInterval         time.Duration `mapstructure:"poll_interval"`
		StateRefreshInterval time.Duration `mapstructure:"state_refresh_interval"`
	} `mapstructure:"monitor"`

	Integration struct {
		MQTT mqtt.Config `mapstructure:"mqtt"`
	} `mapstructure:"integration"`

	Metrics struct {
		Prometheus struct {
			EndpointEnabled bool   `mapstructure:"endpoint_enabled"`
			Bind            string `mapstructure:"bind"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"metrics"`
}

// C holds the global configuration.
var C Config
