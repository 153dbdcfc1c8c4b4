package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fritzbox-tools/fritzbox-wanctl/internal/metrics"
)

var (
	pollCounter       func(string)
	ipChangeCounter   func()
	setConnectedGauge func(bool)
	setUptimeGauge    func(time.Duration)
)

func init() {
	pc := metrics.MustRegisterNewCounter(
		"monitor_poll",
		"Router polls by result.",
		[]string{"result"},
	)

	icc := metrics.MustRegisterNewCounter(
		"monitor_ip_change",
		"Observed external IP address changes.",
		nil,
	)

	cg := metrics.MustRegisterNewGauge(
		"monitor_wan_connected",
		"1 when the WAN connection status is Connected.",
		nil,
	)

	ug := metrics.MustRegisterNewGauge(
		"monitor_wan_uptime_seconds",
		"WAN connection uptime as reported by the router.",
		nil,
	)

	pollCounter = func(result string) {
		pc(prometheus.Labels{"result": result})
	}

	ipChangeCounter = func() {
		icc(prometheus.Labels{})
	}

	setConnectedGauge = func(connected bool) {
		v := float64(0)
		if connected {
			v = 1
		}
		cg(prometheus.Labels{}, v)
	}

	setUptimeGauge = func(uptime time.Duration) {
		ug(prometheus.Labels{}, uptime.Seconds())
	}
}
