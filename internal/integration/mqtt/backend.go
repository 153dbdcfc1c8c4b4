// Package mqtt publishes WAN events and state to an MQTT broker, e.g.
// for consumption by home-automation systems.
package mqtt

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"os"
	"text/template"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Config holds the MQTT integration configuration.
type Config struct {
	EventTopicTemplate string `mapstructure:"event_topic_template"`
	StateTopicTemplate string `mapstructure:"state_topic_template"`
	StateRetained      bool   `mapstructure:"state_retained"`

	Servers              []string      `mapstructure:"servers"`
	Username             string        `mapstructure:"username"`
	Password             string        `mapstructure:"password"`
	CACert               string        `mapstructure:"ca_cert"`
	TLSCert              string        `mapstructure:"tls_cert"`
	TLSKey               string        `mapstructure:"tls_key"`
	QOS                  uint8         `mapstructure:"qos"`
	CleanSession         bool          `mapstructure:"clean_session"`
	ClientID             string        `mapstructure:"client_id"`
	KeepAlive            time.Duration `mapstructure:"keep_alive"`
	MaxReconnectInterval time.Duration `mapstructure:"max_reconnect_interval"`
	MaxTokenWait         time.Duration `mapstructure:"max_token_wait"`
}

// Backend implements the MQTT integration.
type Backend struct {
	conn paho.Client
	conf Config

	eventTemplate *template.Template
	stateTemplate *template.Template
}

// NewBackend creates a new Backend.
func NewBackend(conf Config) (*Backend, error) {
	if conf.MaxTokenWait == 0 {
		conf.MaxTokenWait = time.Minute
	}

	b := Backend{
		conf: conf,
	}

	var err error
	b.eventTemplate, err = template.New("event").Parse(conf.EventTopicTemplate)
	if err != nil {
		return nil, errors.Wrap(err, "mqtt: parse event-topic template error")
	}

	b.stateTemplate, err = template.New("state").Parse(conf.StateTopicTemplate)
	if err != nil {
		return nil, errors.Wrap(err, "mqtt: parse state-topic template error")
	}

	opts := paho.NewClientOptions()
	for _, server := range conf.Servers {
		opts.AddBroker(server)
	}
	opts.SetUsername(conf.Username)
	opts.SetPassword(conf.Password)
	opts.SetCleanSession(conf.CleanSession)
	opts.SetClientID(conf.ClientID)
	opts.SetKeepAlive(conf.KeepAlive)
	opts.SetMaxReconnectInterval(conf.MaxReconnectInterval)
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(b.onConnected)
	opts.SetConnectionLostHandler(b.onConnectionLost)

	tlsConfig, err := newTLSConfig(conf.CACert, conf.TLSCert, conf.TLSKey)
	if err != nil {
		return nil, errors.Wrap(err, "mqtt: new tls config error")
	}
	if tlsConfig != nil {
		opts.SetTLSConfig(tlsConfig)
	}

	b.conn = paho.NewClient(opts)

	return &b, nil
}

// Start connects to the broker.
func (b *Backend) Start() error {
	log.WithFields(log.Fields{
		"servers":       b.conf.Servers,
		"clean_session": b.conf.CleanSession,
		"client_id":     b.conf.ClientID,
	}).Info("integration/mqtt: connecting to broker")

	if err := tokenWrapper(b.conn.Connect(), b.conf.MaxTokenWait); err != nil {
		return errors.Wrap(err, "mqtt: connect error")
	}

	return nil
}

// Stop disconnects from the broker.
func (b *Backend) Stop() {
	b.conn.Disconnect(250)
}

// PublishEvent publishes an event of the given type.
func (b *Backend) PublishEvent(eventType string, payload interface{}) error {
	topic, err := b.eventTopic(eventType)
	if err != nil {
		return err
	}
	return b.publish(topic, false, payload)
}

// PublishState publishes (and by default retains) a state document of
// the given type.
func (b *Backend) PublishState(stateType string, payload interface{}) error {
	topic, err := b.stateTopic(stateType)
	if err != nil {
		return err
	}
	return b.publish(topic, b.conf.StateRetained, payload)
}

func (b *Backend) publish(topic string, retained bool, payload interface{}) error {
	bb, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "mqtt: marshal payload error")
	}

	log.WithFields(log.Fields{
		"topic":    topic,
		"retained": retained,
	}).Info("integration/mqtt: publishing message")

	if err := tokenWrapper(b.conn.Publish(topic, b.conf.QOS, retained, bb), b.conf.MaxTokenWait); err != nil {
		return errors.Wrap(err, "mqtt: publish error")
	}

	return nil
}

func tokenWrapper(token paho.Token, timeout time.Duration) error {
	if !token.WaitTimeout(timeout) {
		return errors.New("token wait timeout error")
	}
	return token.Error()
}

func (b *Backend) eventTopic(eventType string) (string, error) {
	var buf bytes.Buffer
	if err := b.eventTemplate.Execute(&buf, struct{ EventType string }{eventType}); err != nil {
		return "", errors.Wrap(err, "mqtt: execute event-topic template error")
	}
	return buf.String(), nil
}

func (b *Backend) stateTopic(stateType string) (string, error) {
	var buf bytes.Buffer
	if err := b.stateTemplate.Execute(&buf, struct{ StateType string }{stateType}); err != nil {
		return "", errors.Wrap(err, "mqtt: execute state-topic template error")
	}
	return buf.String(), nil
}

func (b *Backend) onConnected(c paho.Client) {
	log.Info("integration/mqtt: connected to broker")
}

func (b *Backend) onConnectionLost(c paho.Client, err error) {
	log.WithError(err).Error("integration/mqtt: connection to broker lost")
}

func newTLSConfig(cafile, certFile, certKeyFile string) (*tls.Config, error) {
	if cafile == "" && certFile == "" && certKeyFile == "" {
		return nil, nil
	}

	tlsConfig := &tls.Config{}

	if cafile != "" {
		cacert, err := os.ReadFile(cafile)
		if err != nil {
			return nil, errors.Wrap(err, "load ca-cert error")
		}
		certpool := x509.NewCertPool()
		certpool.AppendCertsFromPEM(cacert)

		tlsConfig.RootCAs = certpool
	}

	if certFile != "" && certKeyFile != "" {
		kp, err := tls.LoadX509KeyPair(certFile, certKeyFile)
		if err != nil {
			return nil, errors.Wrap(err, "load tls key-pair error")
		}
		tlsConfig.Certificates = []tls.Certificate{kp}
	}

	return tlsConfig, nil
}
