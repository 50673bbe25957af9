// internal/failover/role.go
package failover

import "fmt"

// Role identifies one of the two pools a manager owns
type Role int

const (
	RolePrimary Role = iota
	RoleFallback
)

func (r Role) String() string {
	switch r {
	case RolePrimary:
		return "primary"
	case RoleFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// State is a manager's position in the failover state machine
type State int

const (
	StateUsingPrimary State = iota
	StateUsingFallback
	StateUnusable
)

func (s State) String() string {
	switch s {
	case StateUsingPrimary:
		return "using_primary"
	case StateUsingFallback:
		return "using_fallback"
	case StateUnusable:
		return "unusable"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON and YAML output
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "using_primary":
		*s = StateUsingPrimary
	case "using_fallback":
		*s = StateUsingFallback
	case "unusable":
		*s = StateUnusable
	default:
		return fmt.Errorf("failover: unknown state %q", text)
	}
	return nil
}

// activeRole maps a usable state to the role it serves from
func (s State) activeRole() (Role, bool) {
	switch s {
	case StateUsingPrimary:
		return RolePrimary, true
	case StateUsingFallback:
		return RoleFallback, true
	default:
		return 0, false
	}
}
