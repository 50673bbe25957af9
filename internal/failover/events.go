package failover

import "time"

// EventType represents failover event types
type EventType int

const (
	// EventPrimaryLost is emitted when a manager moves to its fallback pool
	EventPrimaryLost EventType = iota
	// EventPrimaryRestored is emitted when a manager moves back to primary
	EventPrimaryRestored
)

func (e EventType) String() string {
	switch e {
	case EventPrimaryLost:
		return "primary_lost"
	case EventPrimaryRestored:
		return "primary_restored"
	default:
		return "unknown"
	}
}

// Event describes one role transition of a manager
type Event struct {
	Type      EventType
	Backend   string
	From      State
	To        State
	Timestamp time.Time
	// Err is the probe error that caused a primary_lost transition
	Err error
}
