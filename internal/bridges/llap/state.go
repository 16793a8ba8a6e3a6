package llap

// ConnectionState is the broker session state owned by the Supervisor.
type ConnectionState int

const (
	// StateDisconnected means no session; a connection attempt is pending.
	StateDisconnected ConnectionState = iota

	// StateConnecting is held while a connection attempt is in progress.
	StateConnecting

	// StateConnected means the session is up and the command topics are subscribed.
	StateConnected

	// StateFaulted means MaxFailures consecutive attempts failed. Retries
	// continue, but the engine makes no publish or subscribe calls.
	StateFaulted
)

// String returns the lowercase state name.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}
