package cmd

import (
	"html/template"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/fritzbox-tools/fritzbox-wanctl/internal/config"
)

const configTemplate = `[general]
# debug=5, info=4, warning=3, error=2, fatal=1, panic=0
log_level={{ .General.LogLevel }}

# Log to syslog.
#
# When set to true, log messages are being written to syslog.
log_to_syslog={{ .General.LogToSyslog }}


# Router configuration.
[router]

# Base URL of the router's SOAP control point.
#
# For a FRITZ!Box this is http://fritz.box:49000 (or the router's IP
# address on the same port).
url="{{ .Router.URL }}"

# Control URL of the WANIPConnection service.
#
# Only change this for non-FRITZ!Box gateways; the 'discover' command
# prints the control URLs announced on the local network.
control_url="{{ .Router.ControlURL }}"

# Timeout of a single SOAP request.
# Valid units are 'ms', 's', 'm', 'h'. Note that these values can be combined, e.g. '24h30m15s'.
timeout="{{ .Router.Timeout }}"


# Reconnect behavior.
#
# A reconnect forces the router to terminate the WAN connection; the
# router then re-dials on its own, which usually results in a new
# public IP address.
[reconnect]

# Time to wait after the termination request before the first status poll.
settle_delay="{{ .Reconnect.SettleDelay }}"

# Interval between status polls while waiting for the connection to
# come back.
poll_interval="{{ .Reconnect.PollInterval }}"

# Give up when the router does not report Connected within this duration.
max_wait="{{ .Reconnect.MaxWait }}"


# Monitor mode.
[monitor]

# Interval between router polls.
poll_interval="{{ .Monitor.PollInterval }}"

# Interval after which the (retained) state is published again even when
# it did not change.
state_refresh_interval="{{ .Monitor.StateRefreshInterval }}"


# Integration configuration.
[integration]

  # MQTT integration configuration.
  #
  # The integration is disabled when no servers are configured.
  [integration.mqtt]

  # Event topic template.
  #
  # Events ('ip_changed', 'status_changed') are published as they happen.
  event_topic_template="{{ .Integration.MQTT.EventTopicTemplate }}"

  # State topic template.
  #
  # The WAN state is published as a retained message (by default) so that
  # the last state is stored by the MQTT broker.
  state_topic_template="{{ .Integration.MQTT.StateTopicTemplate }}"

  # State retained.
  state_retained={{ .Integration.MQTT.StateRetained }}

  # MQTT servers.
  #
  # Configure one or multiple MQTT server to connect to. Each item must be in
  # the following format: scheme://host:port where scheme is tcp, ssl or ws.
  servers=[{{ range $index, $elm := .Integration.MQTT.Servers }}
    "{{ $elm }}",{{ end }}
  ]

  # Connect with the given username (optional)
  username="{{ .Integration.MQTT.Username }}"

  # Connect with the given password (optional)
  password="{{ .Integration.MQTT.Password }}"

  # Quality of service level
  #
  # 0: at most once
  # 1: at least once
  # 2: exactly once
  qos={{ .Integration.MQTT.QOS }}

  # Clean session
  #
  # Set the "clean session" flag in the connect message when this client
  # connects to an MQTT broker. By setting this flag you are indicating
  # that no messages saved by the broker for this client should be delivered.
  clean_session={{ .Integration.MQTT.CleanSession }}

  # Client ID
  #
  # Set the client id to be used by this client when connecting to the MQTT
  # broker. When left blank, a random id will be generated. This requires
  # clean_session=true.
  client_id="{{ .Integration.MQTT.ClientID }}"

  # CA certificate file (optional)
  #
  # Use this when setting up a secure connection (when server uses ssl://...)
  # but the certificate used by the server is not trusted by any CA certificate
  # on the server (e.g. when self generated).
  ca_cert="{{ .Integration.MQTT.CACert }}"

  # mqtt TLS certificate file (optional)
  tls_cert="{{ .Integration.MQTT.TLSCert }}"

  # mqtt TLS key file (optional)
  tls_key="{{ .Integration.MQTT.TLSKey }}"

  # Keep alive will set the amount of time (in seconds) that the client should
  # wait before sending a PING request to the broker.
  # Valid units are 'ms', 's', 'm', 'h'. Note that these values can be combined, e.g. '24h30m15s'.
  keep_alive="{{ .Integration.MQTT.KeepAlive }}"

  # Maximum interval that will be waited between reconnection attempts when connection is lost.
  # Valid units are 'ms', 's', 'm', 'h'. Note that these values can be combined, e.g. '24h30m15s'.
  max_reconnect_interval="{{ .Integration.MQTT.MaxReconnectInterval }}"

  # Maximum time that will be waited for a publish to complete.
  max_token_wait="{{ .Integration.MQTT.MaxTokenWait }}"


# Metrics configuration.
[metrics]

  # Metrics stored in Prometheus.
  #
  # These metrics expose information about the WAN connection like the
  # connected state, uptime and observed IP address changes.
  [metrics.prometheus]
  # Expose Prometheus metrics endpoint.
  endpoint_enabled={{ .Metrics.Prometheus.EndpointEnabled }}

  # The ip:port to bind the Prometheus metrics server to for serving the
  # metrics endpoint.
  bind="{{ .Metrics.Prometheus.Bind }}"
`

var configCmd = &cobra.Command{
	Use:   "configfile",
	Short: "Print the fritzbox-wanctl configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		t := template.Must(template.New("config").Parse(configTemplate))
		err := t.Execute(os.Stdout, config.C)
		if err != nil {
			return errors.Wrap(err, "execute config template error")
		}
		return nil
	},
}
