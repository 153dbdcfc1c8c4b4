package cmd

import (
	"bytes"
	"errors"
	"os"
	"reflect"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fritzbox-tools/fritzbox-wanctl/internal/config"
	"github.com/fritzbox-tools/fritzbox-wanctl/internal/tr064"
	"github.com/fritzbox-tools/fritzbox-wanctl/internal/wanip"
)

var cfgFiles *[]string // config file
var version string

var rootCmd = &cobra.Command{
	Use:   "fritzbox-wanctl",
	Short: "control and monitor the WAN IP connection of a FRITZ!Box router",
	Long: `fritzbox-wanctl talks to the TR-064 / UPnP WANIPConnection service of a
FRITZ!Box (or any internet gateway device exposing it) to read the public IP
address, query the WAN connection status and force a reconnect to obtain a
new public IP.

Without a subcommand it prints the current public IP, forces a reconnect and
prints the new public IP once the router is connected again.`,
	RunE: run,

	// Execute logs the error and maps it to an exit code; cobra must not
	// print it again or dump the usage text on transport failures.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	cfgFiles = rootCmd.PersistentFlags().StringSliceP("config", "c", []string{}, "path to configuration file (optional)")
	rootCmd.PersistentFlags().Int("log-level", 4, "debug=5, info=4, error=2, fatal=1, panic=0")
	rootCmd.PersistentFlags().String("url", tr064.DefaultEndpoint, "base URL of the router's SOAP control point")

	viper.BindPFlag("general.log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("router.url", rootCmd.PersistentFlags().Lookup("url"))

	// default values
	viper.SetDefault("general.log_level", 4)

	viper.SetDefault("router.url", tr064.DefaultEndpoint)
	viper.SetDefault("router.control_url", wanip.WANIPConnection1.ControlURL)
	viper.SetDefault("router.timeout", tr064.DefaultTimeout)

	viper.SetDefault("reconnect.settle_delay", 10*time.Second)
	viper.SetDefault("reconnect.poll_interval", 2*time.Second)
	viper.SetDefault("reconnect.max_wait", 2*time.Minute)

	viper.SetDefault("monitor.poll_interval", time.Minute)
	viper.SetDefault("monitor.state_refresh_interval", 15*time.Minute)

	viper.SetDefault("integration.mqtt.event_topic_template", "wanctl/event/{{ .EventType }}")
	viper.SetDefault("integration.mqtt.state_topic_template", "wanctl/state/{{ .StateType }}")
	viper.SetDefault("integration.mqtt.state_retained", true)
	viper.SetDefault("integration.mqtt.clean_session", true)
	viper.SetDefault("integration.mqtt.keep_alive", 30*time.Second)
	viper.SetDefault("integration.mqtt.max_reconnect_interval", time.Minute)
	viper.SetDefault("integration.mqtt.max_token_wait", time.Minute)

	viper.SetDefault("metrics.prometheus.bind", "0.0.0.0:9100")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(ipCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(discoverCmd)
}

// Execute executes the root command.
func Execute(v string) {
	version = v
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps the error kinds of the SOAP client onto distinct exit
// codes so scripts can tell transport failures from router failures.
func exitCode(err error) int {
	var terr *tr064.Error
	if !errors.As(err, &terr) {
		return 1
	}

	switch terr.Kind {
	case tr064.KindHTTPStatus:
		return 2
	case tr064.KindNoResponse:
		return 3
	case tr064.KindMalformedResponse:
		return 4
	default:
		return 1
	}
}

func initConfig() {
	if cfgFiles != nil && len(*cfgFiles) != 0 {
		var filesMerged []byte
		for _, cfgFile := range *cfgFiles {
			cfgFileContent, err := os.ReadFile(cfgFile)
			if err != nil {
				log.WithError(err).WithField("config", cfgFile).Fatal("error loading config file")
			}
			filesMerged = bytes.Join([][]byte{
				filesMerged,
				cfgFileContent,
			}, []byte("\n"))
		}

		viper.SetConfigType("toml")
		if err := viper.ReadConfig(bytes.NewBuffer(filesMerged)); err != nil {
			log.WithError(err).WithField("config", cfgFiles).Fatal("error loading config file")
		}
	} else {
		viper.SetConfigName("fritzbox-wanctl")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/fritzbox-wanctl")
		viper.AddConfigPath("/etc/fritzbox-wanctl/")
		if err := viper.ReadInConfig(); err != nil {
			switch err.(type) {
			case viper.ConfigFileNotFoundError:
			default:
				log.WithError(err).Fatal("read configuration file error")
			}
		}
	}

	viperBindEnvs(config.C)

	if err := viper.Unmarshal(&config.C); err != nil {
		log.WithError(err).Fatal("unmarshal config error")
	}
}

func viperBindEnvs(iface interface{}, parts ...string) {
	ifv := reflect.ValueOf(iface)
	ift := reflect.TypeOf(iface)
	for i := 0; i < ift.NumField(); i++ {
		v := ifv.Field(i)
		t := ift.Field(i)
		tv, ok := t.Tag.Lookup("mapstructure")
		if !ok {
			tv = strings.ToLower(t.Name)
		}
		if tv == "-" {
			continue
		}

		switch v.Kind() {
		case reflect.Struct:
			viperBindEnvs(v.Interface(), append(parts, tv)...)
		default:
			// Bash doesn't allow env variable names with a dot so
			// bind the double underscore version.
			keyDot := strings.Join(append(parts, tv), ".")
			keyUnderscore := strings.Join(append(parts, tv), "__")
			viper.BindEnv(keyDot, strings.ToUpper(keyUnderscore))
		}
	}
}

// newWANClient builds the WANIPConnection client from the global
// configuration.
func newWANClient() *wanip.Client {
	tc := tr064.NewClient(tr064.ClientConfig{
		Endpoint: config.C.Router.URL,
		Timeout:  config.C.Router.Timeout,
	})

	svc := wanip.WANIPConnection1
	if config.C.Router.ControlURL != "" {
		svc.ControlURL = config.C.Router.ControlURL
	}

	return wanip.NewClient(tc, svc)
}

func reconnectConfig() wanip.ReconnectConfig {
	return wanip.ReconnectConfig{
		SettleDelay:  config.C.Reconnect.SettleDelay,
		PollInterval: config.C.Reconnect.PollInterval,
		MaxWait:      config.C.Reconnect.MaxWait,
	}
}
