package domain

// ConnectionState is the lifecycle state of a station's relay connection.
type ConnectionState int32

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
	Reconnecting
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// NetworkSignal is a host reachability change.
type NetworkSignal int

const (
	NetworkLost NetworkSignal = iota + 1
	NetworkRestored
)

func (s NetworkSignal) String() string {
	switch s {
	case NetworkLost:
		return "network_lost"
	case NetworkRestored:
		return "network_restored"
	default:
		return "unknown"
	}
}

// TransportSignal is a lifecycle callback from the relay connector.
type TransportSignal int

const (
	// TransportConnecting fires before every connection attempt.
	TransportConnecting TransportSignal = iota + 1
	// TransportConnected fires once the relay acknowledged the subscription.
	TransportConnected
	// TransportLost fires when an established subscription breaks.
	TransportLost
	// TransportFailed fires when an attempt fails before connecting.
	TransportFailed
	// TransportExhausted fires when a full pass of the reconnect
	// schedule failed; the connector keeps retrying at the last delay.
	TransportExhausted
	// TransportClosed fires once on explicit shutdown.
	TransportClosed
)

func (s TransportSignal) String() string {
	switch s {
	case TransportConnecting:
		return "connecting"
	case TransportConnected:
		return "connected"
	case TransportLost:
		return "lost"
	case TransportFailed:
		return "failed"
	case TransportExhausted:
		return "exhausted"
	case TransportClosed:
		return "closed"
	default:
		return "unknown"
	}
}
