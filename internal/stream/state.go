package stream

// State is the connection lifecycle state. Owned exclusively by the
// Client; it transitions only on connect, error and close events.
type State int

const (
	// StateDisconnected means no live connection exists.
	StateDisconnected State = iota
	// StateConnecting means a dial is in flight.
	StateConnecting
	// StateConnected means frames can be sent and received.
	StateConnected
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}
