// Package wanip exposes the WANIPConnection operations of a TR-064 /
// UPnP internet gateway device: reading the external IP address, reading
// the WAN connection status and forcing a reconnect cycle.
package wanip

import (
	"context"
	"strconv"
	"time"

	"github.com/fritzbox-tools/fritzbox-wanctl/internal/tr064"
)

// WANIPConnection1 is the IGDv1 WANIPConnection service as exposed by
// AVM FRITZ!Box devices.
var WANIPConnection1 = tr064.Service{
	URN:        "urn:schemas-upnp-org:service:WANIPConnection:1",
	ControlURL: "/igdupnp/control/WANIPConn1",
}

const (
	actionGetExternalIPAddress = "GetExternalIPAddress"
	actionGetStatusInfo        = "GetStatusInfo"
	actionForceTermination     = "ForceTermination"
)

// StatusInfo is the result of the GetStatusInfo action.
type StatusInfo struct {
	ConnectionStatus    ConnectionStatus
	LastConnectionError string
	Uptime              time.Duration
}

// Client issues WANIPConnection actions through a tr064.Client. It is
// stateless between calls.
type Client struct {
	tc  *tr064.Client
	svc tr064.Service
}

// NewClient creates a Client for the given service. Use WANIPConnection1
// unless the gateway exposes the service on a non-standard control URL.
func NewClient(tc *tr064.Client, svc tr064.Service) *Client {
	return &Client{
		tc:  tc,
		svc: svc,
	}
}

// ExternalIPAddress returns the current public IP address of the WAN
// connection.
func (c *Client) ExternalIPAddress(ctx context.Context) (string, error) {
	resp, err := c.tc.Call(ctx, c.svc, actionGetExternalIPAddress)
	if err != nil {
		return "", err
	}

	return resp.Require(actionGetExternalIPAddress, "NewExternalIPAddress")
}

// StatusInfo returns the WAN connection status, the last connection
// error reported by the gateway and the connection uptime.
func (c *Client) StatusInfo(ctx context.Context) (StatusInfo, error) {
	resp, err := c.tc.Call(ctx, c.svc, actionGetStatusInfo)
	if err != nil {
		return StatusInfo{}, err
	}

	status, err := resp.Require(actionGetStatusInfo, "NewConnectionStatus")
	if err != nil {
		return StatusInfo{}, err
	}

	si := StatusInfo{
		ConnectionStatus: ConnectionStatus(status),
	}

	// Optional arguments; older firmwares omit them.
	if v, ok := resp.Value("NewLastConnectionError"); ok {
		si.LastConnectionError = v
	}
	if v, ok := resp.Value("NewUptime"); ok {
		if secs, err := strconv.ParseUint(v, 10, 32); err == nil {
			si.Uptime = time.Duration(secs) * time.Second
		}
	}

	return si, nil
}

// ForceTermination asks the gateway to terminate the WAN connection. The
// gateway re-dials on its own, which usually results in a new external
// IP address. A nil return only means the request was accepted, not that
// the address changed.
func (c *Client) ForceTermination(ctx context.Context) error {
	_, err := c.tc.Call(ctx, c.svc, actionForceTermination)
	return err
}
