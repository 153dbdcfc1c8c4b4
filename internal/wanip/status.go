package wanip

// ConnectionStatus is the WAN connection state as reported by the
// GetStatusInfo action. The value is the raw string from the router so
// vendor-specific states survive a round trip.
type ConnectionStatus string

// Connection states defined by the WANIPConnection service.
const (
	StatusConnected         ConnectionStatus = "Connected"
	StatusConnecting        ConnectionStatus = "Connecting"
	StatusDisconnected      ConnectionStatus = "Disconnected"
	StatusDisconnecting     ConnectionStatus = "Disconnecting"
	StatusPendingDisconnect ConnectionStatus = "PendingDisconnect"
	StatusUnconfigured      ConnectionStatus = "Unconfigured"
)

// Known reports whether the status is one of the states defined by the
// WANIPConnection service.
func (s ConnectionStatus) Known() bool {
	switch s {
	case StatusConnected, StatusConnecting, StatusDisconnected,
		StatusDisconnecting, StatusPendingDisconnect, StatusUnconfigured:
		return true
	default:
		return false
	}
}

// Connected reports whether the WAN connection is up.
func (s ConnectionStatus) Connected() bool {
	return s == StatusConnected
}

// String implements fmt.Stringer.
func (s ConnectionStatus) String() string {
	return string(s)
}
