// Package monitor periodically polls the WAN connection and fans out
// changes as log lines, metrics and integration events.
package monitor

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"

	"github.com/fritzbox-tools/fritzbox-wanctl/internal/tr064"
	"github.com/fritzbox-tools/fritzbox-wanctl/internal/wanip"
)

const (
	eventIPChanged     = "ip_changed"
	eventStatusChanged = "status_changed"

	stateWAN = "wan"
)

// WANClient is the subset of wanip.Client polled by the monitor.
type WANClient interface {
	ExternalIPAddress(ctx context.Context) (string, error)
	StatusInfo(ctx context.Context) (wanip.StatusInfo, error)
}

// Integration receives events and state documents, e.g. the MQTT
// backend.
type Integration interface {
	PublishEvent(eventType string, payload interface{}) error
	PublishState(stateType string, payload interface{}) error
}

// Config holds the monitor configuration.
type Config struct {
	// PollInterval between router polls.
	PollInterval time.Duration

	// StateRefreshInterval after which the state document is published
	// again even when nothing changed, so that a broker restarted
	// mid-run re-learns the retained state.
	StateRefreshInterval time.Duration
}

// IPChanged is the payload of an ip_changed event.
type IPChanged struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// StatusChanged is the payload of a status_changed event.
type StatusChanged struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// WANState is the payload of the wan state document.
type WANState struct {
	ExternalIP          string `json:"external_ip"`
	Status              string `json:"status"`
	UptimeSeconds       int64  `json:"uptime_seconds"`
	LastConnectionError string `json:"last_connection_error,omitempty"`
}

// Monitor polls the WAN connection at a fixed interval.
type Monitor struct {
	client      WANClient
	conf        Config
	integration Integration

	states *cache.Cache

	lastIP     string
	lastStatus wanip.ConnectionStatus
	seeded     bool
}

// New creates a Monitor. integration may be nil, in which case only
// logs and metrics are emitted.
func New(client WANClient, conf Config, integration Integration) *Monitor {
	if conf.PollInterval == 0 {
		conf.PollInterval = time.Minute
	}
	if conf.StateRefreshInterval == 0 {
		conf.StateRefreshInterval = 15 * time.Minute
	}

	return &Monitor{
		client:      client,
		conf:        conf,
		integration: integration,
		states:      cache.New(conf.StateRefreshInterval, conf.StateRefreshInterval),
	}
}

// Run polls until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	log.WithFields(log.Fields{
		"poll_interval":          m.conf.PollInterval,
		"state_refresh_interval": m.conf.StateRefreshInterval,
	}).Info("monitor: starting poll loop")

	m.poll(ctx)

	ticker := time.NewTicker(m.conf.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

func (m *Monitor) poll(ctx context.Context) {
	ip, err := m.client.ExternalIPAddress(ctx)
	if err != nil {
		pollCounter(errResult(err))
		log.WithError(err).Error("monitor: get external ip error")
		return
	}

	si, err := m.client.StatusInfo(ctx)
	if err != nil {
		pollCounter(errResult(err))
		log.WithError(err).Error("monitor: get status info error")
		return
	}

	pollCounter("ok")
	setConnectedGauge(si.ConnectionStatus.Connected())
	setUptimeGauge(si.Uptime)

	changed := false

	if m.seeded && ip != m.lastIP {
		changed = true
		log.WithFields(log.Fields{
			"old": m.lastIP,
			"new": ip,
		}).Info("monitor: external ip changed")
		ipChangeCounter()
		m.publishEvent(eventIPChanged, IPChanged{Old: m.lastIP, New: ip})
	}

	if m.seeded && si.ConnectionStatus != m.lastStatus {
		changed = true
		log.WithFields(log.Fields{
			"old": m.lastStatus,
			"new": si.ConnectionStatus,
		}).Info("monitor: connection status changed")
		m.publishEvent(eventStatusChanged, StatusChanged{
			Old: m.lastStatus.String(),
			New: si.ConnectionStatus.String(),
		})
	}

	m.lastIP = ip
	m.lastStatus = si.ConnectionStatus
	m.seeded = true

	// Re-publish the state when it changed or when the cached copy
	// expired.
	if _, ok := m.states.Get(stateWAN); !ok || changed {
		m.publishState(stateWAN, WANState{
			ExternalIP:          ip,
			Status:              si.ConnectionStatus.String(),
			UptimeSeconds:       int64(si.Uptime / time.Second),
			LastConnectionError: si.LastConnectionError,
		})
		m.states.SetDefault(stateWAN, ip)
	}
}

func (m *Monitor) publishEvent(eventType string, payload interface{}) {
	if m.integration == nil {
		return
	}
	if err := m.integration.PublishEvent(eventType, payload); err != nil {
		log.WithError(err).WithField("event", eventType).Error("monitor: publish event error")
	}
}

func (m *Monitor) publishState(stateType string, payload interface{}) {
	if m.integration == nil {
		return
	}
	if err := m.integration.PublishState(stateType, payload); err != nil {
		log.WithError(err).WithField("state", stateType).Error("monitor: publish state error")
	}
}

func errResult(err error) string {
	if kind := tr064.KindOf(err); kind != 0 {
		return kind.String()
	}
	return "error"
}
